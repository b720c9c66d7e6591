package common

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ValentinKolb/flatkv/lib/db"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/afero"
)

func validConfig() StoreConfig {
	return StoreConfig{
		DataDir:      "/data",
		DictID:       42,
		KeyType:      db.KeyTypeNumericSigned,
		KeySize:      4,
		ValueSize:    4,
		BufferedRows: 8,
		LogLevel:     "info",
	}
}

func TestStoreConfig_Validate(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected a valid configuration, got %v", err)
	}

	cases := map[string]func(c *StoreConfig){
		"KeySize":      func(c *StoreConfig) { c.KeySize = 0 },
		"ValueSize":    func(c *StoreConfig) { c.ValueSize = -1 },
		"BufferedRows": func(c *StoreConfig) { c.BufferedRows = 0 },
		"TrackLast":    func(c *StoreConfig) { c.TrackLastInserted = true },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := validConfig()
			mutate(&c)
			if err := c.Validate(); !errors.Is(err, db.ErrInvalidArgument) {
				t.Errorf("Expected ErrInvalidArgument, got %v", err)
			}
		})
	}

	c := validConfig()
	c.DictID = 1_000_000_000_000_000
	if err := c.Validate(); !errors.Is(err, db.ErrUninitialized) {
		t.Errorf("Expected ErrUninitialized for an oversized dictionary id, got %v", err)
	}
}

func TestStoreConfig_ToFlatFileOptions(t *testing.T) {
	cfg := validConfig()
	cfg.SortedMode = true
	cfg.TrackLastInserted = true
	fs := afero.NewMemMapFs()

	opts := cfg.ToFlatFileOptions(fs)
	if opts.Fs != fs || opts.Dir != "/data" || opts.KeySize != 4 || !opts.SortedMode || !opts.TrackLastInserted {
		t.Errorf("Unexpected options %+v", opts)
	}
	if cfg.DataFile() != "/data/42.ffs" {
		t.Errorf("Expected data file /data/42.ffs, got %s", cfg.DataFile())
	}
}

func TestStoreConfig_String(t *testing.T) {
	cfg := validConfig()
	out := cfg.String()

	for _, expected := range []string{"STORAGE", "RECORD LAYOUT", "ENGINE", "Row Size", "9 bytes", "signed"} {
		if !strings.Contains(out, expected) {
			t.Errorf("Expected %q in:\n%s", expected, out)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	levels := map[string]logger.LogLevel{
		"debug":   logger.DEBUG,
		"INFO":    logger.INFO,
		"warn":    logger.WARNING,
		"warning": logger.WARNING,
		"error":   logger.ERROR,
	}
	for text, expected := range levels {
		lvl, err := ParseLogLevel(text)
		if err != nil || lvl != expected {
			t.Errorf("ParseLogLevel(%q): expected %v, got %v (%v)", text, expected, lvl, err)
		}
	}

	if _, err := ParseLogLevel("verbose"); err == nil {
		t.Errorf("Expected an error for an unknown level")
	}
}

func TestLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	old := logOutput
	logOutput = &buf
	defer func() { logOutput = old }()

	l := CreateLogger("flatfile")
	l.Debugf("hidden")
	l.Infof("opened %d", 1)
	l.SetLevel(logger.ERROR)
	l.Warningf("hidden")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Expected messages below the level to be dropped, got:\n%s", out)
	}
	if !strings.Contains(out, "INFO  | flatfile | opened 1") {
		t.Errorf("Unexpected log line:\n%s", out)
	}
}

func TestParseLogLevels(t *testing.T) {
	def, overrides, err := ParseLogLevels("warn, flatfile=debug,store=error")
	if err != nil {
		t.Fatal(err)
	}
	if def != logger.WARNING {
		t.Errorf("Expected the default level warn, got %v", def)
	}
	if len(overrides) != 2 || overrides["flatfile"] != logger.DEBUG || overrides["store"] != logger.ERROR {
		t.Errorf("Unexpected overrides: %v", overrides)
	}

	for _, text := range []string{"loud", "warn,flatfile", "warn,=debug", "warn,store=loud"} {
		if _, _, err := ParseLogLevels(text); err == nil {
			t.Errorf("Expected an error for %q", text)
		}
	}
}

func TestInitLoggers_Repeated(t *testing.T) {
	if err := InitLoggers("error"); err != nil {
		t.Fatal(err)
	}
	defer InitLoggers("info")

	// the factory is installed only once, later calls just change the levels
	if err := InitLoggers("warn,cmd=debug"); err != nil {
		t.Fatal(err)
	}
	if lvl := levelFor("cmd"); lvl != logger.DEBUG {
		t.Errorf("Expected cmd at debug, got %v", lvl)
	}
	if lvl := levelFor("store"); lvl != logger.WARNING {
		t.Errorf("Expected store at the default level, got %v", lvl)
	}
	if err := InitLoggers("verbose"); err == nil {
		t.Errorf("Expected an error for an unknown level")
	}
}

func TestCreateLogger_UsesConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	old := logOutput
	logOutput = &buf
	defer func() { logOutput = old }()

	if err := InitLoggers("error,custom=debug"); err != nil {
		t.Fatal(err)
	}
	defer InitLoggers("info")

	CreateLogger("custom").Debugf("shown")
	CreateLogger("other").Warningf("hidden")

	out := buf.String()
	if !strings.Contains(out, "DEBUG | custom   | shown") {
		t.Errorf("Expected the override to enable debug logs, got:\n%s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("Expected the default level to drop warnings, got:\n%s", out)
	}
}
