package flatfile

import (
	"github.com/ValentinKolb/flatkv/lib/db"
)

// --------------------------------------------------------------------------
// Binary Search (sorted mode)
// --------------------------------------------------------------------------

// BinarySearch returns the row index of target in a sorted flat file.
// On an exact match the first row of the run of equal keys is returned. Otherwise the
// index of the greatest key below target (the floor) is returned, so callers must compare
// the key of the returned row before treating it as a hit.
// db.ErrItemNotFound is returned if every key is greater than target.
func (ff *FlatFile) BinarySearch(target []byte) (int64, error) {
	if err := ff.checkOpen(); err != nil {
		return -1, err
	}
	if err := ff.checkKey(target); err != nil {
		return -1, err
	}
	return ff.binarySearch(target)
}

func (ff *FlatFile) binarySearch(target []byte) (int64, error) {
	if !ff.sortedMode {
		return -1, db.ErrSortedOrderViolation
	}

	low, high := int64(0), ff.rowCount()-1
	for low <= high {
		mid := low + (high-low)/2
		row, err := ff.readRow(mid)
		if err != nil {
			return -1, err
		}

		c := ff.compare(target, row.Key)
		switch {
		case c > 0:
			low = mid + 1
		case c < 0:
			high = mid - 1
		default:
			return ff.firstOfRun(mid, target)
		}
	}

	// no exact match: high now points at the floor
	if high < 0 {
		return -1, db.ErrItemNotFound
	}
	return high, nil
}

// firstOfRun walks backwards from a match to the first row of a run of equal keys.
// Runs only exist if the comparator treats distinct byte sequences as equal.
func (ff *FlatFile) firstOfRun(index int64, target []byte) (int64, error) {
	for index > 0 {
		row, err := ff.readRow(index - 1)
		if err != nil {
			return -1, err
		}
		if ff.compare(row.Key, target) != 0 {
			break
		}
		index--
	}
	return index, nil
}
