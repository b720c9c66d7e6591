package kv

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	. "github.com/fulldump/biff"
	"github.com/spf13/afero"
)

// run executes a kv subcommand against the in-memory file system.
// Every flag is passed explicitly since cobra keeps flag values between executions,
// the positional args follow "--" so negative keys are not parsed as flags.
func run(sorted bool, sub string, args ...string) (string, error) {
	var out bytes.Buffer
	KeyValueCommands.SetOut(&out)
	KeyValueCommands.SetErr(io.Discard)

	cmdArgs := []string{sub,
		"--data-dir", "/data",
		"--dict", "1",
		"--key-type", "signed",
		"--key-size", "4",
		"--value-size", "4",
		"--log-level", "error",
		fmt.Sprintf("--sorted=%t", sorted),
		"--",
	}
	KeyValueCommands.SetArgs(append(cmdArgs, args...))
	err := KeyValueCommands.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, sorted bool, sub string, args ...string) string {
	t.Helper()
	out, err := run(sorted, sub, args...)
	if err != nil {
		t.Fatalf("%s %s failed: %v", sub, strings.Join(args, " "), err)
	}
	return out
}

func TestCommands(t *testing.T) {
	fs = afero.NewMemMapFs()

	AssertEqual(mustRun(t, false, "insert", "1", "a"), "inserted successfully\n")
	AssertEqual(mustRun(t, false, "insert", "2", "b"), "inserted successfully\n")
	AssertEqual(mustRun(t, false, "insert", "-3", "c"), "inserted successfully\n")

	AssertEqual(mustRun(t, false, "get", "1"), "key=1, found=true, value=a\n")
	AssertEqual(mustRun(t, false, "get", "9"), "key=9, found=false, value=\n")

	AssertEqual(mustRun(t, false, "update", "1", "z"), "updated 1 row(s)\n")
	AssertEqual(mustRun(t, false, "get", "1"), "key=1, found=true, value=z\n")

	out := mustRun(t, false, "find")
	AssertTrue(strings.HasSuffix(out, "3 row(s)\n"))
	AssertTrue(strings.Contains(out, "key=-3, value=c\n"))

	out = mustRun(t, false, "find", "-1", "5")
	AssertEqual(out, "key=1, value=z\nkey=2, value=b\n2 row(s)\n")

	AssertEqual(mustRun(t, false, "del", "2"), "deleted 1 row(s)\n")
	_, err := run(false, "del", "2")
	AssertNotNil(err)

	out = mustRun(t, false, "info")
	AssertTrue(strings.Contains(out, `"rows": 2`))
	AssertTrue(strings.Contains(out, `"key_type": "signed"`))

	out = mustRun(t, false, "metrics")
	AssertTrue(strings.Contains(out, "flatkv_"))

	AssertEqual(mustRun(t, false, "destroy"), "destroyed /data/1.ffs\n")
	exists, err := afero.Exists(fs, "/data/1.ffs")
	AssertNil(err)
	AssertFalse(exists)
}

func TestCommands_InvalidInput(t *testing.T) {
	fs = afero.NewMemMapFs()

	_, err := run(false, "insert", "abc", "a")
	AssertNotNil(err)

	// value longer than 4 bytes
	_, err = run(false, "insert", "1", "too long")
	AssertNotNil(err)

	_, err = run(false, "get")
	AssertNotNil(err)
}

func TestCommands_Sorted(t *testing.T) {
	fs = afero.NewMemMapFs()

	mustRun(t, true, "insert", "1", "a")
	mustRun(t, true, "insert", "5", "b")

	// keys have to be inserted in increasing order
	_, err := run(true, "insert", "3", "c")
	AssertNotNil(err)

	// deleting is not supported in sorted mode
	_, err = run(true, "del", "1")
	AssertNotNil(err)

	AssertEqual(mustRun(t, true, "find", "1", "4"), "key=1, value=a\n1 row(s)\n")
	AssertEqual(mustRun(t, true, "get", "5"), "key=5, found=true, value=b\n")
}
