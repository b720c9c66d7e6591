package flatfile

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/ValentinKolb/flatkv/lib/db"
	"github.com/ValentinKolb/flatkv/lib/db/engines/flatfile/internal"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/afero"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	fileExtension     = "ffs"
	MaxFilenameLength = 20 // maximum length of "<id>.ffs" (exclusive)
	HeaderSize        = 4  // bytes reserved in front of row 0
	noRegion          = -1 // marks the region cache as unloaded
)

// headerPlaceholder is written into the reserved header region of a fresh file.
// It carries no metadata yet.
var headerPlaceholder = [HeaderSize]byte{0xDE, 0xAD, 0x00, 0x00}

var plog = logger.GetLogger("flatfile")

var _ db.KVDB = (*FlatFile)(nil)

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

// Options configures a flat file during Open
type Options struct {
	Fs           afero.Fs       // file system holding the data file (nil = OS file system)
	Dir          string         // directory of the data file
	KeyType      db.KeyType     // how keys are ordered
	KeySize      int            // fixed key width in bytes
	ValueSize    int            // fixed value width in bytes
	BufferedRows int            // rows read per disk access (clamped to >= 1)
	SortedMode   bool           // append-only mode with binary search and no deletes
	Compare      db.CompareFunc // overrides the comparator derived from KeyType (optional)

	// TrackLastInserted keeps the last inserted key in memory (sorted mode only),
	// so the order check of Insert does not have to re-read the last row.
	TrackLastInserted bool
}

// DefaultOptions returns options for 4 byte signed keys and 4 byte values
func DefaultOptions() *Options {
	return &Options{
		Fs:           afero.NewOsFs(),
		Dir:          ".",
		KeyType:      db.KeyTypeNumericSigned,
		KeySize:      4,
		ValueSize:    4,
		BufferedRows: 8,
	}
}

// --------------------------------------------------------------------------
// Core flat file structure
// --------------------------------------------------------------------------

// FlatFile is a single dictionary stored as an array of fixed-width rows in one file.
//
// Thread-safety: FlatFile is not safe for concurrent use. Every method, including
// the read-only looking ones, mutates the region cache. Callers must serialise access
// (see lstore for a locking wrapper).
type FlatFile struct {
	id       uint64
	fs       afero.Fs
	filename string
	file     afero.File

	keyType    db.KeyType
	compare    db.CompareFunc
	layout     internal.Layout
	rowSize    int
	sortedMode bool
	eof        int64 // one past the last occupied row (byte offset)

	// region cache
	numBuffered   int
	buffer        []byte
	numInBuffer   int
	currentRegion int64 // first row index held in buffer (noRegion = nothing loaded)

	// sorted mode bookkeeping
	trackLast    bool
	lastInserted []byte
	empty        bool

	stats *engineMetrics
}

// Open opens the dictionary with the given id or creates it if the data file does not exist.
// The end of data is recovered by scanning backwards for the last occupied row.
func Open(id uint64, opts *Options) (*FlatFile, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.KeySize <= 0 || opts.ValueSize < 0 {
		return nil, fmt.Errorf("%w: key size %d, value size %d", db.ErrInvalidArgument, opts.KeySize, opts.ValueSize)
	}

	numBuffered := opts.BufferedRows
	if numBuffered <= 0 {
		// we always need at least one row to buffer
		numBuffered = 1
	}

	name := Filename(id)
	if len(name) >= MaxFilenameLength {
		return nil, fmt.Errorf("%w: filename %q exceeds %d characters", db.ErrUninitialized, name, MaxFilenameLength-1)
	}

	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	compare := opts.Compare
	if compare == nil {
		compare = db.ComparatorFor(opts.KeyType)
	}

	ff := &FlatFile{
		id:            id,
		fs:            fs,
		filename:      filepath.Join(opts.Dir, name),
		keyType:       opts.KeyType,
		compare:       compare,
		sortedMode:    opts.SortedMode,
		numBuffered:   numBuffered,
		currentRegion: noRegion,
		trackLast:     opts.SortedMode && opts.TrackLastInserted,
		empty:         true,
	}

	if err := ff.openFile(); err != nil {
		return nil, err
	}

	ff.layout = internal.Layout{
		KeySize:     opts.KeySize,
		ValueSize:   opts.ValueSize,
		StartOfData: HeaderSize,
	}
	ff.rowSize = ff.layout.RowSize()

	if err := ff.allocate(); err != nil {
		_ = ff.file.Close()
		return nil, err
	}
	if ff.trackLast {
		ff.lastInserted = make([]byte, opts.KeySize)
	}
	ff.stats = newEngineMetrics(id)

	if err := ff.recoverEOF(); err != nil {
		_ = ff.file.Close()
		return nil, err
	}

	plog.Debugf("opened %s (rows=%d, row size=%d, sorted=%t, buffered=%d)",
		ff.filename, ff.rowCount(), ff.rowSize, ff.sortedMode, ff.numBuffered)
	return ff, nil
}

// Filename returns the name of the data file for a dictionary id
func Filename(id uint64) string {
	return fmt.Sprintf("%d.%s", id, fileExtension)
}

// openFile opens the data file for read/write, creating it (and its header) when missing
func (ff *FlatFile) openFile() error {
	f, err := ff.fs.OpenFile(ff.filename, os.O_RDWR, 0o644)
	if errors.Is(err, os.ErrNotExist) {
		f, err = ff.fs.OpenFile(ff.filename, os.O_RDWR|os.O_CREATE, 0o644)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", db.ErrFileOpen, err)
	}
	ff.file = f

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: %w", db.ErrFileRead, err)
	}

	// only a fresh (or truncated) file gets a header, existing headers are left alone
	if info.Size() < HeaderSize {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			_ = f.Close()
			return fmt.Errorf("%w: %w", db.ErrFileBadSeek, err)
		}
		if err := ff.writeFull(headerPlaceholder[:]); err != nil {
			_ = f.Close()
			return fmt.Errorf("%w: %w", db.ErrFileWrite, err)
		}
		plog.Debugf("created %s", ff.filename)
	}
	return nil
}

// allocate creates the region cache buffer
func (ff *FlatFile) allocate() (err error) {
	if ff.rowSize <= 0 || ff.numBuffered > math.MaxInt/ff.rowSize {
		return fmt.Errorf("%w: cannot buffer %d rows of %d bytes", db.ErrOutOfMemory, ff.numBuffered, ff.rowSize)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", db.ErrOutOfMemory, r)
		}
	}()
	ff.buffer = make([]byte, ff.numBuffered*ff.rowSize)
	return nil
}

// recoverEOF moves the end of data behind the last occupied row of the file
func (ff *FlatFile) recoverEOF() error {
	end, err := ff.file.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("%w: %w", db.ErrFileBadSeek, err)
	}

	// a torn row at the end of the file is ignored
	ff.eof = ff.layout.AlignDown(end)

	loc, _, err := ff.scan(-1, ScanBackward, NotEmpty{})
	switch {
	case errors.Is(err, db.ErrHitEOF):
		// no occupied rows in the file
		ff.eof = ff.layout.StartOfData
	case err != nil:
		return err
	default:
		ff.eof = ff.layout.Offset(loc + 1)
	}
	return nil
}

// --------------------------------------------------------------------------
// Lifecycle
// --------------------------------------------------------------------------

// Close releases the row buffer and closes the data file.
func (ff *FlatFile) Close() error {
	if ff.file == nil {
		return db.ErrClosed
	}

	f := ff.file
	ff.file = nil
	ff.buffer = nil
	ff.lastInserted = nil
	ff.invalidate()

	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", db.ErrFileClose, err)
	}
	plog.Debugf("closed %s", ff.filename)
	return nil
}

// Destroy closes the flat file and removes its data file.
func (ff *FlatFile) Destroy() error {
	if err := ff.Close(); err != nil {
		return err
	}
	if err := ff.fs.Remove(ff.filename); err != nil {
		return fmt.Errorf("%w: %w", db.ErrFileDelete, err)
	}
	plog.Infof("destroyed %s", ff.filename)
	return nil
}

// --------------------------------------------------------------------------
// Accessors
// --------------------------------------------------------------------------

// ID returns the dictionary id
func (ff *FlatFile) ID() uint64 {
	return ff.id
}

// Path returns the path of the data file
func (ff *FlatFile) Path() string {
	return ff.filename
}

// RowCount returns the number of rows below the end of data
func (ff *FlatFile) RowCount() int64 {
	return ff.rowCount()
}

// SortedMode reports whether the flat file runs in sorted mode
func (ff *FlatFile) SortedMode() bool {
	return ff.sortedMode
}

func (ff *FlatFile) rowCount() int64 {
	return ff.layout.RowIndex(ff.eof)
}

// checkOpen validates the structural preconditions shared by all operations
func (ff *FlatFile) checkOpen() error {
	if ff.file == nil || ff.buffer == nil {
		return db.ErrClosed
	}
	return nil
}

// checkKey validates the width of a key
func (ff *FlatFile) checkKey(key []byte) error {
	if len(key) != ff.layout.KeySize {
		return fmt.Errorf("%w: key must be %d bytes, got %d", db.ErrInvalidArgument, ff.layout.KeySize, len(key))
	}
	return nil
}

// checkRecord validates the width of a key and a value
func (ff *FlatFile) checkRecord(key, value []byte) error {
	if err := ff.checkKey(key); err != nil {
		return err
	}
	if len(value) != ff.layout.ValueSize {
		return fmt.Errorf("%w: value must be %d bytes, got %d", db.ErrInvalidArgument, ff.layout.ValueSize, len(value))
	}
	return nil
}

// --------------------------------------------------------------------------
// Feature Support & Info
// --------------------------------------------------------------------------

// Info is the implementation specific metadata reported by GetInfo
type Info struct {
	ID           uint64 `json:"id"`
	Path         string `json:"path"`
	KeyType      string `json:"key_type"`
	KeySize      int    `json:"key_size"`
	ValueSize    int    `json:"value_size"`
	RowSize      int    `json:"row_size"`
	Rows         int64  `json:"rows"`
	SortedMode   bool   `json:"sorted_mode"`
	BufferedRows int    `json:"buffered_rows"`
	CacheHits    uint64 `json:"cache_hits"`
	CacheMisses  uint64 `json:"cache_misses"`
	ScanFills    uint64 `json:"scan_fills"`
	RowWrites    uint64 `json:"row_writes"`
}

func (ff *FlatFile) SupportsFeature(feature db.Feature) bool {
	supported := db.FeatureInsert | db.FeatureGet | db.FeatureUpdate | db.FeatureFind | db.FeatureDestroy
	if ff.sortedMode {
		supported |= db.FeatureBinarySearch
	} else {
		supported |= db.FeatureDelete
	}
	return feature&supported == feature
}

func (ff *FlatFile) GetInfo() db.DatabaseInfo {
	features := make([]db.Feature, 0, len(db.AllFeatures))
	for _, f := range db.AllFeatures {
		if ff.SupportsFeature(f) {
			features = append(features, f)
		}
	}

	return db.DatabaseInfo{
		SizeBytes:         int(ff.eof),
		DbType:            db.ImplFlatFile,
		SupportedFeatures: features,
		Metadata: Info{
			ID:           ff.id,
			Path:         ff.filename,
			KeyType:      ff.keyType.String(),
			KeySize:      ff.layout.KeySize,
			ValueSize:    ff.layout.ValueSize,
			RowSize:      ff.rowSize,
			Rows:         ff.rowCount(),
			SortedMode:   ff.sortedMode,
			BufferedRows: ff.numBuffered,
			CacheHits:    ff.stats.cacheHits.Get(),
			CacheMisses:  ff.stats.cacheMisses.Get(),
			ScanFills:    ff.stats.scanFills.Get(),
			RowWrites:    ff.stats.rowWrites.Get(),
		},
	}
}

// WriteMetrics writes the counters of this flat file in Prometheus text format
func (ff *FlatFile) WriteMetrics(w io.Writer) {
	ff.stats.set.WritePrometheus(w)
}

// --------------------------------------------------------------------------
// Metrics
// --------------------------------------------------------------------------

// engineMetrics holds per-handle counters. Every handle owns its own metrics.Set,
// nothing is registered globally.
type engineMetrics struct {
	set         *metrics.Set
	cacheHits   *metrics.Counter
	cacheMisses *metrics.Counter
	scanFills   *metrics.Counter
	rowWrites   *metrics.Counter
}

func newEngineMetrics(id uint64) *engineMetrics {
	set := metrics.NewSet()
	label := fmt.Sprintf(`{dictionary="%d"}`, id)
	return &engineMetrics{
		set:         set,
		cacheHits:   set.NewCounter("flatkv_cache_hits_total" + label),
		cacheMisses: set.NewCounter("flatkv_cache_misses_total" + label),
		scanFills:   set.NewCounter("flatkv_scan_fills_total" + label),
		rowWrites:   set.NewCounter("flatkv_row_writes_total" + label),
	}
}
