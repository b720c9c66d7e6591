package flatfile

import (
	"fmt"
	"io"

	"github.com/ValentinKolb/flatkv/lib/db"
	"github.com/ValentinKolb/flatkv/lib/db/engines/flatfile/internal"
)

// --------------------------------------------------------------------------
// Region Cache
// --------------------------------------------------------------------------

// invalidate drops the loaded region, the next read goes to the file
func (ff *FlatFile) invalidate() {
	ff.currentRegion = noRegion
	ff.numInBuffer = 0
}

// cached reports whether row index is part of the loaded region
func (ff *FlatFile) cached(index int64) bool {
	return ff.currentRegion != noRegion &&
		index >= ff.currentRegion &&
		index < ff.currentRegion+int64(ff.numInBuffer)
}

// readRow returns the row at index. On a cache hit the row is served from the loaded
// region, otherwise it is read from the file into the first buffer slot.
//
// The returned row aliases the buffer and is only valid until the next read or write.
func (ff *FlatFile) readRow(index int64) (internal.Row, error) {
	if ff.cached(index) {
		ff.stats.cacheHits.Inc()
		return ff.layout.View(ff.buffer, int(index-ff.currentRegion)), nil
	}
	ff.stats.cacheMisses.Inc()

	// the buffer is about to be overwritten
	ff.invalidate()

	if _, err := ff.file.Seek(ff.layout.Offset(index), io.SeekStart); err != nil {
		return internal.Row{}, fmt.Errorf("%w: seek to row %d: %w", db.ErrFileRead, index, err)
	}

	// status, key and value are read one after another into slot 0
	keyStart := internal.StatusSize
	valueStart := keyStart + ff.layout.KeySize
	segments := [][]byte{
		ff.buffer[:keyStart],
		ff.buffer[keyStart:valueStart],
		ff.buffer[valueStart:ff.rowSize],
	}
	for _, segment := range segments {
		if _, err := io.ReadFull(ff.file, segment); err != nil {
			return internal.Row{}, fmt.Errorf("%w: row %d: %w", db.ErrFileRead, index, err)
		}
	}

	ff.currentRegion = index
	ff.numInBuffer = 1
	return ff.layout.View(ff.buffer, 0), nil
}

// writeRow writes a row at index. A nil key or value leaves that part of the row
// untouched on disk (status only writes pass nil for both). Since the parts are written
// sequentially a nil key together with a non nil value is rejected.
//
// Any write invalidates the region cache, whether or not it touches the loaded rows.
func (ff *FlatFile) writeRow(index int64, status internal.Status, key, value []byte) error {
	ff.invalidate()

	if key == nil && value != nil {
		return fmt.Errorf("%w: value without key breaks row alignment", db.ErrInvalidArgument)
	}

	if _, err := ff.file.Seek(ff.layout.Offset(index), io.SeekStart); err != nil {
		return fmt.Errorf("%w: seek to row %d: %w", db.ErrFileBadSeek, index, err)
	}

	if err := ff.writeFull([]byte{byte(status)}); err != nil {
		return fmt.Errorf("%w: status of row %d: %w", db.ErrFileWrite, index, err)
	}
	if key != nil {
		if err := ff.writeFull(key[:ff.layout.KeySize]); err != nil {
			return fmt.Errorf("%w: key of row %d: %w", db.ErrFileWrite, index, err)
		}
	}
	if value != nil {
		if err := ff.writeFull(value[:ff.layout.ValueSize]); err != nil {
			return fmt.Errorf("%w: value of row %d: %w", db.ErrFileWrite, index, err)
		}
	}

	ff.stats.rowWrites.Inc()
	return nil
}

// writeFull writes p and treats a short write as an error
func (ff *FlatFile) writeFull(p []byte) error {
	n, err := ff.file.Write(p)
	if err != nil {
		return err
	}
	if n != len(p) {
		return io.ErrShortWrite
	}
	return nil
}
