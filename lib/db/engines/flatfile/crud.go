package flatfile

import (
	"errors"
	"fmt"

	"github.com/ValentinKolb/flatkv/lib/db"
	"github.com/ValentinKolb/flatkv/lib/db/engines/flatfile/internal"
)

// --------------------------------------------------------------------------
// Write Operations
// --------------------------------------------------------------------------

// Insert appends a new row at the end of data. There are no holes to fill since
// Delete compacts by swapping and sorted mode forbids deletes.
//
// In sorted mode key must be strictly greater than the last inserted key,
// otherwise db.ErrSortedOrderViolation is returned.
func (ff *FlatFile) Insert(key, value []byte) (int, error) {
	if err := ff.checkOpen(); err != nil {
		return 0, err
	}
	if err := ff.checkRecord(key, value); err != nil {
		return 0, err
	}
	return ff.insert(key, value)
}

func (ff *FlatFile) insert(key, value []byte) (int, error) {
	insertAt := ff.rowCount()

	if ff.sortedMode && insertAt > 0 {
		last, err := ff.lastKey(insertAt - 1)
		if err != nil {
			return 0, err
		}
		if ff.compare(key, last) <= 0 {
			return 0, fmt.Errorf("%w: key %s is not greater than the last key %s",
				db.ErrSortedOrderViolation, db.FormatKey(ff.keyType, key), db.FormatKey(ff.keyType, last))
		}
	}

	if err := ff.writeRow(insertAt, internal.StatusOccupied, key, value); err != nil {
		return 0, err
	}
	ff.eof = ff.layout.Offset(insertAt + 1)

	if ff.trackLast {
		copy(ff.lastInserted, key)
		ff.empty = false
	}
	return 1, nil
}

// lastKey returns the key of the last row, served from memory when tracked
func (ff *FlatFile) lastKey(lastIndex int64) ([]byte, error) {
	if ff.trackLast && !ff.empty {
		return ff.lastInserted, nil
	}
	row, err := ff.readRow(lastIndex)
	if err != nil {
		return nil, err
	}
	return row.Key, nil
}

// Update overwrites the value of the rows matching key, inserting the row if none exists.
//
// In sorted mode only the first row of the key is updated and the row keeps its position.
// An upsert in sorted mode still has to respect the insert order.
func (ff *FlatFile) Update(key, value []byte) (int, error) {
	if err := ff.checkOpen(); err != nil {
		return 0, err
	}
	if err := ff.checkRecord(key, value); err != nil {
		return 0, err
	}

	if ff.sortedMode {
		return ff.updateSorted(key, value)
	}

	count := 0
	start := int64(-1)
	for {
		loc, _, err := ff.scan(start, ScanForward, KeyMatch{Key: key})
		if errors.Is(err, db.ErrHitEOF) {
			break
		}
		if err != nil {
			return count, err
		}

		if err := ff.writeRow(loc, internal.StatusOccupied, key, value); err != nil {
			return count, err
		}
		count++

		// skip the row we just updated
		start = loc + 1
	}

	if count == 0 {
		// nothing to update, upsert
		return ff.insert(key, value)
	}
	return count, nil
}

func (ff *FlatFile) updateSorted(key, value []byte) (int, error) {
	loc, err := ff.binarySearch(key)
	if errors.Is(err, db.ErrItemNotFound) {
		return ff.insert(key, value)
	}
	if err != nil {
		return 0, err
	}

	row, err := ff.readRow(loc)
	if err != nil {
		return 0, err
	}
	if ff.compare(row.Key, key) != 0 {
		// floor match only, the key does not exist yet
		return ff.insert(key, value)
	}

	if err := ff.writeRow(loc, internal.StatusOccupied, key, value); err != nil {
		return 0, err
	}
	return 1, nil
}

// Delete removes every row matching key. The hole left by a deleted row is filled
// with the last row of the file and the end of data shrinks by one row, so the data
// stays contiguous without shifting.
//
// Delete is not supported in sorted mode (db.ErrSortedOrderViolation).
// If an I/O error occurs the rows deleted so far are reported together with the error;
// the file may then hold the swapped row twice.
func (ff *FlatFile) Delete(key []byte) (int, error) {
	if err := ff.checkOpen(); err != nil {
		return 0, err
	}
	if ff.sortedMode {
		return 0, db.ErrSortedOrderViolation
	}
	if err := ff.checkKey(key); err != nil {
		return 0, err
	}

	count := 0
	loc := int64(-1)
	for {
		var err error
		loc, _, err = ff.scan(loc, ScanForward, KeyMatch{Key: key})
		if errors.Is(err, db.ErrHitEOF) {
			break
		}
		if err != nil {
			return count, err
		}

		lastIndex := ff.rowCount() - 1

		// deleting the last row needs no swap
		if lastIndex != loc {
			last, err := ff.readRow(lastIndex)
			if err != nil {
				return count, err
			}
			if err := ff.writeRow(loc, last.Status, last.Key, last.Value); err != nil {
				return count, err
			}
		}

		// tombstone the vacated slot, otherwise reopening would resurrect it
		if err := ff.writeRow(lastIndex, internal.StatusEmpty, nil, nil); err != nil {
			return count, err
		}

		// soft truncate
		ff.eof = ff.layout.Offset(lastIndex)
		count++

		// loc is not advanced, the row swapped into it has to be checked as well
	}

	if count == 0 {
		return 0, db.ErrItemNotFound
	}
	plog.Debugf("deleted %d row(s) of key %s from %s", count, db.FormatKey(ff.keyType, key), ff.filename)
	return count, nil
}

// --------------------------------------------------------------------------
// Query Operations
// --------------------------------------------------------------------------

// Get returns a copy of the value stored for key or db.ErrItemNotFound.
// Unsorted flat files are scanned from the back, so the most recently appended row wins
// when a key exists more than once.
func (ff *FlatFile) Get(key []byte) ([]byte, error) {
	if err := ff.checkOpen(); err != nil {
		return nil, err
	}
	if err := ff.checkKey(key); err != nil {
		return nil, err
	}

	var row internal.Row
	if !ff.sortedMode {
		_, found, err := ff.scan(-1, ScanBackward, KeyMatch{Key: key})
		if errors.Is(err, db.ErrHitEOF) {
			// hitting the end means we did not find what we were looking for
			return nil, db.ErrItemNotFound
		}
		if err != nil {
			return nil, err
		}
		row = found
	} else {
		loc, err := ff.binarySearch(key)
		if err != nil {
			return nil, err
		}
		row, err = ff.readRow(loc)
		if err != nil {
			return nil, err
		}
		if ff.compare(row.Key, key) != 0 {
			return nil, db.ErrItemNotFound
		}
	}

	value := make([]byte, len(row.Value))
	copy(value, row.Value)
	return value, nil
}
