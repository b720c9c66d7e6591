package testing

import (
	"math/rand"
	"testing"

	"github.com/ValentinKolb/flatkv/lib/db"
)

// number of rows preloaded by the read benchmarks
const benchmarkRows = 1000

// RunKVDBBenchmarks runs all benchmarks for a key-value database implementation.
// The databases are used from a single goroutine, implementations are not required to be thread-safe.
func RunKVDBBenchmarks(b *testing.B, name string, factory DBFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("Insert", func(b *testing.B) {
			benchmarkInsert(b, factory())
		})

		b.Run("Get", func(b *testing.B) {
			benchmarkGet(b, factory())
		})

		b.Run("Get(not)", func(b *testing.B) {
			benchmarkGetNot(b, factory())
		})

		b.Run("Update", func(b *testing.B) {
			benchmarkUpdate(b, factory())
		})

		b.Run("Delete", func(b *testing.B) {
			benchmarkDelete(b, factory())
		})

		b.Run("FindAll", func(b *testing.B) {
			benchmarkFindAll(b, factory())
		})

		b.Run("MixedUsage", func(b *testing.B) {
			benchmarkMixedUsage(b, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func preload(b *testing.B, database db.KVDB, n int) {
	b.Helper()
	for i := 0; i < n; i++ {
		if _, err := database.Insert(Key(uint64(i)), Value(uint64(i))); err != nil {
			b.Fatalf("preload failed at %d: %v", i, err)
		}
	}
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// Insert appends b.N increasing keys, which also works for sorted databases
func benchmarkInsert(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureInsert)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		database.Insert(Key(uint64(i)), Value(uint64(i)))
	}
}

func benchmarkGet(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureInsert|db.FeatureGet)
	preload(b, database, benchmarkRows)

	r := rand.New(rand.NewSource(42))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		database.Get(Key(uint64(r.Intn(benchmarkRows))))
	}
}

// Get of missing keys forces a full scan on unsorted databases
func benchmarkGetNot(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureInsert|db.FeatureGet)
	preload(b, database, benchmarkRows)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		database.Get(Key(uint64(benchmarkRows + i)))
	}
}

func benchmarkUpdate(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureInsert|db.FeatureUpdate)
	preload(b, database, benchmarkRows)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		database.Update(Key(uint64(i%benchmarkRows)), Value(uint64(i)))
	}
}

func benchmarkDelete(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureInsert|db.FeatureDelete)

	// delete the keys in insert order, every delete swaps the last row forward
	b.StopTimer()
	preload(b, database, b.N)
	b.StartTimer()

	for i := 0; i < b.N; i++ {
		database.Delete(Key(uint64(i)))
	}
}

func benchmarkFindAll(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureInsert|db.FeatureFind)
	preload(b, database, benchmarkRows)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cursor, err := database.Find(db.PredicateAll())
		if err != nil {
			b.Fatal(err)
		}
		for cursor.Next() {
		}
		cursor.Close()
	}
}

// 60% get, 30% update, 10% delete (or insert when deletes are not supported)
func benchmarkMixedUsage(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureInsert|db.FeatureGet|db.FeatureUpdate)
	preload(b, database, benchmarkRows)

	canDelete := database.SupportsFeature(db.FeatureDelete)
	next := uint64(benchmarkRows)
	r := rand.New(rand.NewSource(42))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := Key(uint64(r.Intn(benchmarkRows)))
		switch op := r.Intn(10); {
		case op < 6:
			database.Get(key)
		case op < 9:
			database.Update(key, Value(uint64(i)))
		case canDelete:
			database.Delete(key)
		default:
			database.Insert(Key(next), Value(next))
			next++
		}
	}
}
