package flatfile

import (
	"errors"
	"fmt"

	"github.com/ValentinKolb/flatkv/lib/db"
	"github.com/ValentinKolb/flatkv/lib/db/engines/flatfile/internal"
)

// --------------------------------------------------------------------------
// Cursor
// --------------------------------------------------------------------------

// cursor walks forward over the rows matching a scan predicate. Each call to Next
// resumes the scan one row behind the previous match, so the flat file may be
// modified between calls (rows moved by a swap delete may be skipped or visited twice).
type cursor struct {
	ff        *FlatFile
	predicate Predicate
	upper     []byte // sorted mode: stop once a key exceeds upper (nil = no early stop)
	next      int64
	key       []byte
	value     []byte
	done      bool
	err       error
}

// pastUpper matches rows the inner predicate matches and rows beyond the upper bound.
// It lets sorted cursors stop at the first key past the range instead of scanning to the end.
type pastUpper struct {
	inner Predicate
	upper []byte
}

func (p pastUpper) Match(compare db.CompareFunc, row internal.Row) bool {
	return p.inner.Match(compare, row) || (row.Occupied() && compare(row.Key, p.upper) > 0)
}

// Find opens a cursor over all rows selected by predicate.
// In sorted mode the cursor starts at the binary search position of the lower bound.
func (ff *FlatFile) Find(predicate db.Predicate) (db.Cursor, error) {
	if err := ff.checkOpen(); err != nil {
		return nil, err
	}

	c := &cursor{ff: ff, next: 0}

	switch predicate.Type {
	case db.PredicateTypeEquality:
		if err := ff.checkKey(predicate.Low); err != nil {
			return nil, err
		}
		c.predicate = KeyMatch{Key: clone(predicate.Low)}
		c.upper = clone(predicate.Low)
	case db.PredicateTypeRange:
		if err := ff.checkKey(predicate.Low); err != nil {
			return nil, err
		}
		if err := ff.checkKey(predicate.High); err != nil {
			return nil, err
		}
		c.predicate = WithinBounds{Low: clone(predicate.Low), High: clone(predicate.High)}
		c.upper = clone(predicate.High)
	case db.PredicateTypeAll:
		c.predicate = NotEmpty{}
	default:
		return nil, fmt.Errorf("%w: unknown predicate %s", db.ErrInvalidArgument, predicate.Type)
	}

	if !ff.sortedMode {
		c.upper = nil
		return c, nil
	}

	if predicate.Type != db.PredicateTypeAll {
		loc, err := ff.binarySearch(predicate.Low)
		switch {
		case errors.Is(err, db.ErrItemNotFound):
			// the lower bound is smaller than every key
			c.next = 0
		case err != nil:
			return nil, err
		default:
			c.next = loc
		}
	}
	if c.upper != nil {
		c.predicate = pastUpper{inner: c.predicate, upper: c.upper}
	}
	return c, nil
}

func (c *cursor) Next() bool {
	if c.done {
		return false
	}
	if err := c.ff.checkOpen(); err != nil {
		c.finish(err)
		return false
	}

	// deletes may have shrunk the data below our position
	if c.next >= c.ff.rowCount() {
		c.finish(nil)
		return false
	}

	loc, row, err := c.ff.scan(c.next, ScanForward, c.predicate)
	if errors.Is(err, db.ErrHitEOF) {
		c.finish(nil)
		return false
	}
	if err != nil {
		c.finish(err)
		return false
	}
	if c.upper != nil && c.ff.compare(row.Key, c.upper) > 0 {
		c.finish(nil)
		return false
	}

	c.key = clone(row.Key)
	c.value = clone(row.Value)
	c.next = loc + 1
	return true
}

func (c *cursor) finish(err error) {
	c.done = true
	c.err = err
	c.key, c.value = nil, nil
}

func (c *cursor) Key() []byte {
	return c.key
}

func (c *cursor) Value() []byte {
	return c.value
}

func (c *cursor) Err() error {
	return c.err
}

func (c *cursor) Close() {
	c.finish(c.err)
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
