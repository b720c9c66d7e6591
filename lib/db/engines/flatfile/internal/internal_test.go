package internal

import (
	"testing"

	. "github.com/fulldump/biff"
)

func TestLayout_Offsets(t *testing.T) {
	l := Layout{KeySize: 4, ValueSize: 4, StartOfData: 4}

	AssertEqual(l.RowSize(), 9)
	AssertEqual(l.Offset(0), int64(4))
	AssertEqual(l.Offset(3), int64(31))
	AssertEqual(l.RowIndex(31), int64(3))
	AssertEqual(l.RowIndex(35), int64(3))
}

func TestLayout_AlignDown(t *testing.T) {
	l := Layout{KeySize: 4, ValueSize: 4, StartOfData: 4}

	AssertEqual(l.AlignDown(0), int64(4))
	AssertEqual(l.AlignDown(4), int64(4))
	AssertEqual(l.AlignDown(12), int64(4)) // torn first row
	AssertEqual(l.AlignDown(13), int64(13))
	AssertEqual(l.AlignDown(20), int64(13))
}

func TestLayout_EncodeView(t *testing.T) {
	l := Layout{KeySize: 2, ValueSize: 3, StartOfData: 4}
	buf := make([]byte, 2*l.RowSize())

	l.Encode(buf[l.RowSize():], Row{Status: StatusOccupied, Key: []byte{1, 2}, Value: []byte{3, 4, 5}})

	empty := l.View(buf, 0)
	AssertFalse(empty.Occupied())

	row := l.View(buf, 1)
	AssertTrue(row.Occupied())
	AssertEqual(row.Key, []byte{1, 2})
	AssertEqual(row.Value, []byte{3, 4, 5})

	// views alias the buffer, clones do not
	clone := row.Clone()
	buf[l.RowSize()+1] = 9
	AssertEqual(row.Key, []byte{9, 2})
	AssertEqual(clone.Key, []byte{1, 2})
}

func TestLayout_ViewCapacity(t *testing.T) {
	l := Layout{KeySize: 2, ValueSize: 2, StartOfData: 0}
	buf := make([]byte, 2*l.RowSize())

	// appending to a key must never overwrite the value next to it
	row := l.View(buf, 0)
	_ = append(row.Key, 7)
	AssertEqual(buf[3], byte(0))
}

func TestStatus_String(t *testing.T) {
	AssertEqual(StatusEmpty.String(), "Empty")
	AssertEqual(StatusOccupied.String(), "Occupied")
	AssertEqual(Status(7).String(), "Status(7)")
}
