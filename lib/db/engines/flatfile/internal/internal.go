package internal

import "fmt"

// --------------------------------------------------------------------------
// Row Status
// --------------------------------------------------------------------------

// Status is the one byte flag in front of every row
type Status byte

const (
	StatusEmpty    Status = 0 // the row may be overwritten
	StatusOccupied Status = 1 // the row holds a live record
)

// StatusSize is the number of bytes used by the status flag
const StatusSize = 1

func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "Empty"
	case StatusOccupied:
		return "Occupied"
	default:
		return fmt.Sprintf("Status(%d)", byte(s))
	}
}

// --------------------------------------------------------------------------
// Row View
// --------------------------------------------------------------------------

// Row is a view of one record. When produced by Layout.View the key and value
// alias the buffer they were cut from and are only valid until that buffer is reused.
type Row struct {
	Status Status
	Key    []byte
	Value  []byte
}

// Occupied reports whether the row holds a live record
func (r Row) Occupied() bool {
	return r.Status == StatusOccupied
}

// Clone returns a copy of the row that does not alias any buffer
func (r Row) Clone() Row {
	return Row{
		Status: r.Status,
		Key:    append([]byte(nil), r.Key...),
		Value:  append([]byte(nil), r.Value...),
	}
}

// --------------------------------------------------------------------------
// Layout (offset arithmetic)
// --------------------------------------------------------------------------

// Layout describes where rows live in the data file.
// A row is laid out as:
//
//	| STATUS |    KEY     |     VALUE    |
//	   (1)    (KeySize)     (ValueSize)
type Layout struct {
	KeySize     int
	ValueSize   int
	StartOfData int64 // byte offset of row 0
}

// RowSize returns the number of bytes of one row
func (l Layout) RowSize() int {
	return StatusSize + l.KeySize + l.ValueSize
}

// Offset converts a row index into a byte offset
func (l Layout) Offset(index int64) int64 {
	return l.StartOfData + index*int64(l.RowSize())
}

// RowIndex converts a byte offset into a row index (rounding down to the row containing offset)
func (l Layout) RowIndex(offset int64) int64 {
	return (offset - l.StartOfData) / int64(l.RowSize())
}

// AlignDown truncates offset to the last complete row boundary (never below StartOfData)
func (l Layout) AlignDown(offset int64) int64 {
	if offset <= l.StartOfData {
		return l.StartOfData
	}
	return l.Offset(l.RowIndex(offset))
}

// View cuts the row stored at slot out of buf. buf must hold at least slot+1 rows.
// The returned row aliases buf.
func (l Layout) View(buf []byte, slot int) Row {
	base := slot * l.RowSize()
	keyStart := base + StatusSize
	valueStart := keyStart + l.KeySize
	return Row{
		Status: Status(buf[base]),
		Key:    buf[keyStart:valueStart:valueStart],
		Value:  buf[valueStart : valueStart+l.ValueSize : valueStart+l.ValueSize],
	}
}

// Encode serialises a complete row into dst (which must hold RowSize bytes).
func (l Layout) Encode(dst []byte, row Row) {
	dst[0] = byte(row.Status)
	copy(dst[StatusSize:StatusSize+l.KeySize], row.Key)
	copy(dst[StatusSize+l.KeySize:l.RowSize()], row.Value)
}
