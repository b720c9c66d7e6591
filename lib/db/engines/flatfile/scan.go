package flatfile

import (
	"fmt"
	"io"

	"github.com/ValentinKolb/flatkv/lib/db"
	"github.com/ValentinKolb/flatkv/lib/db/engines/flatfile/internal"
)

// --------------------------------------------------------------------------
// Scan Direction
// --------------------------------------------------------------------------

// Direction selects which way a scan traverses the rows
type Direction int

const (
	ScanForward  Direction = iota // towards the end of data
	ScanBackward                  // towards the start of data
)

func (d Direction) String() string {
	if d == ScanForward {
		return "Forward"
	}
	return "Backward"
}

// --------------------------------------------------------------------------
// Predicates
// --------------------------------------------------------------------------

// Predicate decides whether a scan stops at a row
type Predicate interface {
	Match(compare db.CompareFunc, row internal.Row) bool
}

// NotEmpty matches every occupied row
type NotEmpty struct{}

func (NotEmpty) Match(_ db.CompareFunc, row internal.Row) bool {
	return row.Occupied()
}

// KeyMatch matches occupied rows whose key equals Key
type KeyMatch struct {
	Key []byte
}

func (p KeyMatch) Match(compare db.CompareFunc, row internal.Row) bool {
	return row.Occupied() && compare(p.Key, row.Key) == 0
}

// WithinBounds matches occupied rows with Low <= key <= High
type WithinBounds struct {
	Low  []byte
	High []byte
}

func (p WithinBounds) Match(compare db.CompareFunc, row internal.Row) bool {
	return row.Occupied() && compare(row.Key, p.Low) >= 0 && compare(row.Key, p.High) <= 0
}

// --------------------------------------------------------------------------
// Scan Engine
// --------------------------------------------------------------------------

// Row is a copied row returned by the exported scan primitives
type Row = internal.Row

// Row states as found in Row.Status
const (
	StatusEmpty    = internal.StatusEmpty
	StatusOccupied = internal.StatusOccupied
)

// Scan searches for the first row matching predicate, starting at row index start
// (inclusive) and moving in the given direction. A start of -1 begins at the boundary
// the direction starts from (row 0 for forward, the last row for backward scans).
//
// If no row matches, db.ErrHitEOF is returned together with the row count as location,
// which is the position a new row would be appended at.
func (ff *FlatFile) Scan(start int64, direction Direction, predicate Predicate) (int64, Row, error) {
	if err := ff.checkOpen(); err != nil {
		return -1, Row{}, err
	}
	loc, row, err := ff.scan(start, direction, predicate)
	if err != nil {
		return loc, Row{}, err
	}
	return loc, row.Clone(), nil
}

// scan is the buffered traversal behind Scan. The returned row aliases the region cache.
func (ff *FlatFile) scan(start int64, direction Direction, predicate Predicate) (int64, internal.Row, error) {
	rows := ff.rowCount()

	if direction == ScanForward {
		cur := start
		if start == -1 {
			cur = 0
		}
		if cur < 0 || cur > rows {
			return -1, internal.Row{}, fmt.Errorf("%w: forward scan from %d with %d rows", db.ErrOutOfBounds, start, rows)
		}

		for cur < rows {
			n := min(int64(ff.numBuffered), rows-cur)
			if err := ff.fill(cur, int(n)); err != nil {
				return -1, internal.Row{}, err
			}
			for i := 0; i < int(n); i++ {
				row := ff.layout.View(ff.buffer, i)
				if predicate.Match(ff.compare, row) {
					return cur + int64(i), row, nil
				}
			}
			cur += n
		}
		return rows, internal.Row{}, db.ErrHitEOF
	}

	// backward scans read the chunk ending right below high
	high := start + 1
	if start == -1 || start == rows {
		high = rows
	}
	if start < -1 || high > rows {
		return -1, internal.Row{}, fmt.Errorf("%w: backward scan from %d with %d rows", db.ErrOutOfBounds, start, rows)
	}

	for high > 0 {
		low := max(0, high-int64(ff.numBuffered))
		n := int(high - low)
		if err := ff.fill(low, n); err != nil {
			return -1, internal.Row{}, err
		}
		for i := n - 1; i >= 0; i-- {
			row := ff.layout.View(ff.buffer, i)
			if predicate.Match(ff.compare, row) {
				return low + int64(i), row, nil
			}
		}
		high = low
	}
	return rows, internal.Row{}, db.ErrHitEOF
}

// fill loads n consecutive rows starting at row index first into the region cache
func (ff *FlatFile) fill(first int64, n int) error {
	ff.invalidate()
	ff.stats.scanFills.Inc()

	if _, err := ff.file.Seek(ff.layout.Offset(first), io.SeekStart); err != nil {
		return fmt.Errorf("%w: seek to row %d: %w", db.ErrFileBadSeek, first, err)
	}
	if _, err := io.ReadFull(ff.file, ff.buffer[:n*ff.rowSize]); err != nil {
		return fmt.Errorf("%w: rows %d..%d: %w", db.ErrFileRead, first, first+int64(n), err)
	}

	ff.currentRegion = first
	ff.numInBuffer = n
	return nil
}
