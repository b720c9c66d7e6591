package common

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ValentinKolb/flatkv/lib/db"
	"github.com/ValentinKolb/flatkv/lib/db/engines/flatfile"
	"github.com/spf13/afero"
)

// --------------------------------------------------------------------------
// Store configuration struct
// --------------------------------------------------------------------------

// StoreConfig holds all parameters needed to open a dictionary.
type StoreConfig struct {
	// location of the data files
	DataDir string
	DictID  uint64

	// record layout
	KeyType   db.KeyType
	KeySize   int
	ValueSize int

	// engine settings
	BufferedRows      int
	SortedMode        bool
	TrackLastInserted bool

	// Logging configuration
	LogLevel string
}

// Validate checks the configuration before any file is touched
func (c *StoreConfig) Validate() error {
	if c.KeySize <= 0 {
		return fmt.Errorf("%w: key size must be positive, got %d", db.ErrInvalidArgument, c.KeySize)
	}
	if c.ValueSize < 0 {
		return fmt.Errorf("%w: value size must not be negative, got %d", db.ErrInvalidArgument, c.ValueSize)
	}
	if c.BufferedRows <= 0 {
		return fmt.Errorf("%w: buffered rows must be positive, got %d", db.ErrInvalidArgument, c.BufferedRows)
	}
	if name := flatfile.Filename(c.DictID); len(name) >= flatfile.MaxFilenameLength {
		return fmt.Errorf("%w: dictionary id %d is too large", db.ErrUninitialized, c.DictID)
	}
	if c.TrackLastInserted && !c.SortedMode {
		return fmt.Errorf("%w: track-last-inserted requires sorted mode", db.ErrInvalidArgument)
	}
	return nil
}

// ToFlatFileOptions converts the StoreConfig to the options of a flat file on fs
func (c *StoreConfig) ToFlatFileOptions(fs afero.Fs) *flatfile.Options {
	return &flatfile.Options{
		Fs:                fs,
		Dir:               c.DataDir,
		KeyType:           c.KeyType,
		KeySize:           c.KeySize,
		ValueSize:         c.ValueSize,
		BufferedRows:      c.BufferedRows,
		SortedMode:        c.SortedMode,
		TrackLastInserted: c.TrackLastInserted,
	}
}

// DataFile returns the path of the data file of the configured dictionary
func (c *StoreConfig) DataFile() string {
	return filepath.Join(c.DataDir, flatfile.Filename(c.DictID))
}

// String returns a formatted string representation of the configuration
func (c *StoreConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// Storage
	addSection("Storage")
	addField("Data Directory", c.DataDir)
	addField("Dictionary", strconv.FormatUint(c.DictID, 10))
	addField("Data File", c.DataFile())

	// Record layout
	addSection("Record Layout")
	addField("Key Type", c.KeyType.String())
	addField("Key Size", fmt.Sprintf("%d bytes", c.KeySize))
	addField("Value Size", fmt.Sprintf("%d bytes", c.ValueSize))
	addField("Row Size", fmt.Sprintf("%d bytes", 1+c.KeySize+c.ValueSize))

	// Engine
	addSection("Engine")
	addField("Buffered Rows", strconv.Itoa(c.BufferedRows))
	addField("Sorted Mode", strconv.FormatBool(c.SortedMode))
	addField("Track Last Inserted", strconv.FormatBool(c.TrackLastInserted))

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}
