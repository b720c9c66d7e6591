package util

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/flatkv/lib/common"
	"github.com/ValentinKolb/flatkv/lib/db"
	"github.com/ValentinKolb/flatkv/lib/db/engines/flatfile"
	"github.com/ValentinKolb/flatkv/lib/store"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupStoreFlags adds the flags describing a dictionary to a command
func SetupStoreFlags(cmd *cobra.Command) {
	key := "data-dir"
	cmd.PersistentFlags().String(key, "data", WrapString("Directory holding the data files of the dictionaries"))

	key = "dict"
	cmd.PersistentFlags().Uint64(key, 1, WrapString("ID of the dictionary to open. The data file is named <dict>.ffs"))

	key = "key-type"
	cmd.PersistentFlags().String(key, "signed", WrapString("How keys are ordered (signed, unsigned, chararray, string)"))

	key = "key-size"
	cmd.PersistentFlags().Int(key, 4, WrapString("Fixed size of a key in bytes"))

	key = "value-size"
	cmd.PersistentFlags().Int(key, 4, WrapString("Fixed size of a value in bytes"))

	key = "buffered-rows"
	cmd.PersistentFlags().Int(key, 8, WrapString("Number of rows read per disk access. This is the only memory the engine needs besides its handle"))

	key = "sorted"
	cmd.PersistentFlags().Bool(key, false, WrapString("Open the dictionary in sorted mode: keys must be inserted in increasing order, lookups use binary search and deletes are not supported"))

	key = "track-last-inserted"
	cmd.PersistentFlags().Bool(key, false, WrapString("(Sorted Mode) Keep the last inserted key in memory instead of re-reading the last row on every insert"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "warn", WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error). Single loggers can be overridden, e.g. warn,flatfile=debug"))
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("flatkv")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// GetStoreConfig reads the store configuration from viper
func GetStoreConfig() (*common.StoreConfig, error) {
	keyType, err := db.ParseKeyType(viper.GetString("key-type"))
	if err != nil {
		return nil, err
	}

	conf := &common.StoreConfig{
		DataDir:           viper.GetString("data-dir"),
		DictID:            viper.GetUint64("dict"),
		KeyType:           keyType,
		KeySize:           viper.GetInt("key-size"),
		ValueSize:         viper.GetInt("value-size"),
		BufferedRows:      viper.GetInt("buffered-rows"),
		SortedMode:        viper.GetBool("sorted"),
		TrackLastInserted: viper.GetBool("track-last-inserted"),
		LogLevel:          viper.GetString("log-level"),
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// FlatFileFactory returns a factory that opens the dictionary id as described by conf on fs
func FlatFileFactory(fs afero.Fs, conf *common.StoreConfig, id uint64) store.DBFactory {
	return func() (db.KVDB, error) {
		return flatfile.Open(id, conf.ToFlatFileOptions(fs))
	}
}

// ParseRecord encodes the textual key and value of a command line record
func ParseRecord(conf *common.StoreConfig, keyText, valueText string) ([]byte, []byte, error) {
	key, err := ParseKey(conf, keyText)
	if err != nil {
		return nil, nil, err
	}
	value, err := ParseValue(conf, valueText)
	if err != nil {
		return nil, nil, err
	}
	return key, value, nil
}

// ParseKey encodes a textual key according to the configured key type and size
func ParseKey(conf *common.StoreConfig, text string) ([]byte, error) {
	key, err := db.EncodeKey(conf.KeyType, conf.KeySize, text)
	if err != nil {
		return nil, fmt.Errorf("invalid key %q: %w", text, err)
	}
	return key, nil
}

// ParseValue zero pads a textual value to the configured value size
func ParseValue(conf *common.StoreConfig, text string) ([]byte, error) {
	if len(text) > conf.ValueSize {
		return nil, fmt.Errorf("%w: value %q is longer than %d bytes", db.ErrInvalidArgument, text, conf.ValueSize)
	}
	value := make([]byte, conf.ValueSize)
	copy(value, text)
	return value, nil
}

// FormatValue renders a stored value, dropping the zero padding
func FormatValue(value []byte) string {
	return strings.TrimRight(string(value), "\x00")
}
