package db

import "errors"

// --------------------------------------------------------------------------
// Error Taxonomy
// --------------------------------------------------------------------------

// Sentinel errors returned by KVDB implementations. Implementations wrap the
// underlying cause, so callers should match them with errors.Is.
var (
	// ErrFileOpen is returned when the backing file can neither be opened nor created.
	ErrFileOpen = errors.New("file open error")

	// ErrFileRead is returned on failed or short reads (and failed position queries).
	ErrFileRead = errors.New("file read error")

	// ErrFileWrite is returned on failed or short writes.
	ErrFileWrite = errors.New("file write error")

	// ErrFileBadSeek is returned when positioning the file fails.
	ErrFileBadSeek = errors.New("file bad seek")

	// ErrFileClose is returned when closing the backing file fails.
	ErrFileClose = errors.New("file close error")

	// ErrFileDelete is returned when removing the backing file fails.
	ErrFileDelete = errors.New("file delete error")

	// ErrOutOfBounds is returned when a scan starts outside the stored rows.
	ErrOutOfBounds = errors.New("location out of bounds")

	// ErrHitEOF signals that a scan reached the end of the data without a match.
	ErrHitEOF = errors.New("hit end of data")

	// ErrItemNotFound is returned when no entry matches a key.
	ErrItemNotFound = errors.New("item not found")

	// ErrSortedOrderViolation is returned when an operation conflicts with sorted mode.
	ErrSortedOrderViolation = errors.New("sorted order violation")

	// ErrOutOfMemory is returned when the row buffer cannot be allocated.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrUninitialized is returned when the backing filename cannot be constructed.
	ErrUninitialized = errors.New("uninitialized")

	// ErrInvalidArgument is returned when a key, value or size does not fit the database layout.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrClosed is returned when operating on a closed database.
	ErrClosed = errors.New("database is closed")
)
