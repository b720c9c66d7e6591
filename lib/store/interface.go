package store

import (
	"fmt"

	"github.com/ValentinKolb/flatkv/lib/db"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// DBFactory is a function type that opens the db used by the store.
// This is used to abstract the creation of the db from the store implementation.
type DBFactory func() (db.KVDB, error)

// Pair is a single key-value entry returned by Find
type Pair struct {
	Key   []byte
	Value []byte
}

// Stats counts the operations a store has served
type Stats struct {
	Inserts int64 `json:"inserts"`
	Gets    int64 `json:"gets"`
	Updates int64 `json:"updates"`
	Deletes int64 `json:"deletes"`
	Finds   int64 `json:"finds"`
	Errors  int64 `json:"errors"`
}

// IStore is the generic interface for interacting with a fixed-width key–value store.
// All errors returned by a store are of type *Error (nil on success).
// Counts returned by write operations are only meaningful if the error is nil.
type IStore interface {
	// Insert appends a key–value pair. Keys may exist more than once in unsorted stores.
	Insert(key, value []byte) (err error)
	// Update overwrites the value of all entries with the given key,
	// or inserts the pair if the key does not exist.
	Update(key, value []byte) (count int, err error)
	// Delete removes all entries with the given key.
	// A RetCNotFound error is returned if the key does not exist.
	Delete(key []byte) (count int, err error)
	// Get returns the value for a key. The boolean return value indicates whether a value for the key was found.
	Get(key []byte) (value []byte, loaded bool, err error)
	// Find returns all entries matching the predicate.
	Find(predicate db.Predicate) (pairs []Pair, err error)
	// GetDBInfo returns metadata about the database underlying the store.
	GetDBInfo() (info db.DatabaseInfo, err error)
	// GetStats returns the operation counters of the store.
	GetStats() Stats
	// Close closes the underlying database. Subsequent operations fail with RetCInvalidOperation.
	Close() (err error)
	// Destroy closes the underlying database and deletes its data.
	Destroy() (err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode),
// an error message and the error that caused it.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
	Err  error   // The cause (may be nil)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("KVStoreError (code %s): %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("KVStoreError (code %s): %s", e.Code, e.Msg)
}

// Unwrap exposes the cause to errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new KVStoreError with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// WrapError creates a new KVStoreError with the given code and message caused by err.
func WrapError(code RetCode, msg string, err error) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
		Err:  err,
	}
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Command executed successfully.
	RetCInternalError                       // 1: Command failed due to an internal error.
	RetCUnsupportedOperation                // 2: Operation is not supported by underlying database.
	RetCInvalidOperation                    // 3: Invalid operation.
	RetCNotFound                            // 4: The key does not exist.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	case RetCInvalidOperation:
		return "InvalidOperation"
	case RetCNotFound:
		return "NotFound"
	default:
		return "Unknown"
	}
}
