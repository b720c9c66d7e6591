package flatfile

import (
	"testing"

	"github.com/ValentinKolb/flatkv/lib/db"
	dbtesting "github.com/ValentinKolb/flatkv/lib/db/testing"
	"github.com/spf13/afero"
)

func newTestDB(t testing.TB, sorted bool, bufferedRows int) *FlatFile {
	ff, err := Open(1, &Options{
		Fs:           afero.NewMemMapFs(),
		Dir:          "/data",
		KeyType:      db.KeyTypeNumericUnsigned,
		KeySize:      dbtesting.KeySize,
		ValueSize:    dbtesting.ValueSize,
		BufferedRows: bufferedRows,
		SortedMode:   sorted,
	})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return ff
}

func Test(t *testing.T) {
	dbtesting.RunKVDBTests(t, "FlatFile", func() db.KVDB {
		return newTestDB(t, false, 8)
	})

	// a single buffered row turns every scan step into a disk access
	dbtesting.RunKVDBTests(t, "FlatFile(unbuffered)", func() db.KVDB {
		return newTestDB(t, false, 1)
	})
}

func TestSorted(t *testing.T) {
	dbtesting.RunSortedKVDBTests(t, "FlatFile", func() db.KVDB {
		return newTestDB(t, true, 8)
	})

	dbtesting.RunSortedKVDBTests(t, "FlatFile(tracked)", func() db.KVDB {
		ff, err := Open(1, &Options{
			Fs:                afero.NewMemMapFs(),
			KeyType:           db.KeyTypeNumericUnsigned,
			KeySize:           dbtesting.KeySize,
			ValueSize:         dbtesting.ValueSize,
			BufferedRows:      4,
			SortedMode:        true,
			TrackLastInserted: true,
		})
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		return ff
	})
}

func Benchmark(b *testing.B) {
	dbtesting.RunKVDBBenchmarks(b, "FlatFile", func() db.KVDB {
		return newTestDB(b, false, 64)
	})

	dbtesting.RunKVDBBenchmarks(b, "FlatFile(sorted)", func() db.KVDB {
		return newTestDB(b, true, 64)
	})
}
