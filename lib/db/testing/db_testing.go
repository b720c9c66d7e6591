package testing

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"testing"

	"github.com/ValentinKolb/flatkv/lib/db"
)

// Record widths every database handed to the suite must be created with.
// Keys are encoded as little-endian integers so that signed and unsigned numeric
// key types order them identically.
const (
	KeySize   = 8
	ValueSize = 8
)

// DBFactory is a function that creates a new, empty instance of a KVDB implementation
// with KeySize byte keys and ValueSize byte values
type DBFactory func() db.KVDB

// RunKVDBTests runs a comprehensive test suite for an unsorted KVDB implementation.
func RunKVDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Insert&Get", func(t *testing.T) {
			testInsertGet(t, factory())
		})

		t.Run("Update", func(t *testing.T) {
			testUpdate(t, factory())
		})

		t.Run("Upsert", func(t *testing.T) {
			testUpsert(t, factory())
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory())
		})

		t.Run("DeleteDuplicates", func(t *testing.T) {
			testDeleteDuplicates(t, factory())
		})

		t.Run("SwapCompaction", func(t *testing.T) {
			testSwapCompaction(t, factory())
		})

		t.Run("Find", func(t *testing.T) {
			testFind(t, factory())
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory())
		})

		t.Run("RealisticUsage", func(t *testing.T) {
			testRealisticUsage(t, factory())
		})

		t.Run("Close", func(t *testing.T) {
			testClose(t, factory())
		})
	})
}

// RunSortedKVDBTests runs the test suite for KVDB implementations that enforce
// an increasing insert order (sorted mode).
func RunSortedKVDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Monotonicity", func(t *testing.T) {
			testSortedMonotonicity(t, factory())
		})

		t.Run("BinarySearch", func(t *testing.T) {
			testSortedBinarySearch(t, factory())
		})

		t.Run("Update", func(t *testing.T) {
			testSortedUpdate(t, factory())
		})

		t.Run("DeleteUnsupported", func(t *testing.T) {
			testSortedDelete(t, factory())
		})

		t.Run("Find", func(t *testing.T) {
			testSortedFind(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// Checks if the database supports the specified feature
// Skip the test if it is not supported
func requireFeature(t testing.TB, database db.KVDB, feature db.Feature) {
	if !database.SupportsFeature(feature) {
		t.Skip()
	}
}

// Key encodes n as a KeySize byte key
func Key(n uint64) []byte {
	b := make([]byte, KeySize)
	binary.LittleEndian.PutUint64(b, n)
	return b
}

// Value encodes n as a ValueSize byte value
func Value(n uint64) []byte {
	b := make([]byte, ValueSize)
	binary.LittleEndian.PutUint64(b, n)
	return b
}

func mustInsert(t testing.TB, database db.KVDB, key, value []byte) {
	t.Helper()
	if count, err := database.Insert(key, value); err != nil || count != 1 {
		t.Fatalf("Insert(%x) returned count=%d err=%v", key, count, err)
	}
}

func expectValue(t testing.TB, database db.KVDB, key, expected []byte) {
	t.Helper()
	result, err := database.Get(key)
	if err != nil {
		t.Errorf("Expected key %x to exist, got error %v", key, err)
		return
	}
	if !bytes.Equal(result, expected) {
		t.Errorf("Expected value %x for key %x, got %x", expected, key, result)
	}
}

func expectNotFound(t testing.TB, database db.KVDB, key []byte) {
	t.Helper()
	if _, err := database.Get(key); !errors.Is(err, db.ErrItemNotFound) {
		t.Errorf("Expected ErrItemNotFound for key %x, got %v", key, err)
	}
}

// collect drains a cursor into a list of keys
func collect(t testing.TB, database db.KVDB, predicate db.Predicate) [][]byte {
	t.Helper()
	cursor, err := database.Find(predicate)
	if err != nil {
		t.Fatalf("Find(%s) failed: %v", predicate.Type, err)
	}
	defer cursor.Close()

	var keys [][]byte
	for cursor.Next() {
		keys = append(keys, cursor.Key())
	}
	if err := cursor.Err(); err != nil {
		t.Errorf("Cursor failed: %v", err)
	}
	return keys
}

func keySet(keys [][]byte) map[string]int {
	set := make(map[string]int, len(keys))
	for _, k := range keys {
		set[string(k)]++
	}
	return set
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testInsertGet(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureInsert|db.FeatureGet)

	for i := uint64(0); i < 50; i++ {
		mustInsert(t, database, Key(i), Value(i*10))
	}

	for i := uint64(0); i < 50; i++ {
		expectValue(t, database, Key(i), Value(i*10))
	}

	expectNotFound(t, database, Key(1000))

	retrievedValue, _ := database.Get(Key(1))
	retrievedValue[0] = 'X'

	originalValue, _ := database.Get(Key(1))
	if bytes.Equal(retrievedValue, originalValue) {
		t.Errorf("Get should return a copy, not a reference to the stored value")
	}
}

func testUpdate(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureInsert|db.FeatureGet|db.FeatureUpdate)

	mustInsert(t, database, Key(1), Value(1))
	mustInsert(t, database, Key(2), Value(2))

	count, err := database.Update(Key(1), Value(100))
	if err != nil || count != 1 {
		t.Errorf("Expected Update to report 1 updated row, got count=%d err=%v", count, err)
	}

	expectValue(t, database, Key(1), Value(100))
	expectValue(t, database, Key(2), Value(2))
}

func testUpsert(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureGet|db.FeatureUpdate)

	expectNotFound(t, database, Key(7))

	count, err := database.Update(Key(7), Value(70))
	if err != nil || count != 1 {
		t.Errorf("Expected Update of a missing key to insert it, got count=%d err=%v", count, err)
	}

	expectValue(t, database, Key(7), Value(70))
}

func testDelete(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureInsert|db.FeatureGet|db.FeatureDelete)

	mustInsert(t, database, Key(1), Value(1))
	expectValue(t, database, Key(1), Value(1))

	count, err := database.Delete(Key(1))
	if err != nil || count != 1 {
		t.Errorf("Expected Delete to remove 1 row, got count=%d err=%v", count, err)
	}

	expectNotFound(t, database, Key(1))

	if _, err := database.Delete(Key(1)); !errors.Is(err, db.ErrItemNotFound) {
		t.Errorf("Expected ErrItemNotFound when deleting a missing key, got %v", err)
	}
}

func testDeleteDuplicates(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureInsert|db.FeatureGet|db.FeatureDelete)

	mustInsert(t, database, Key(5), Value(1))
	mustInsert(t, database, Key(6), Value(6))
	mustInsert(t, database, Key(5), Value(2))
	mustInsert(t, database, Key(5), Value(3))

	count, err := database.Delete(Key(5))
	if err != nil {
		t.Fatalf("Unexpected error during Delete: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected all 3 duplicates to be deleted, got %d", count)
	}

	expectNotFound(t, database, Key(5))
	expectValue(t, database, Key(6), Value(6))
}

func testSwapCompaction(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureInsert|db.FeatureGet|db.FeatureDelete)

	for _, k := range []uint64{10, 20, 30} {
		mustInsert(t, database, Key(k), Value(k))
	}
	sizeBefore := database.GetInfo().SizeBytes

	if _, err := database.Delete(Key(20)); err != nil {
		t.Fatalf("Unexpected error during Delete: %v", err)
	}

	expectValue(t, database, Key(10), Value(10))
	expectValue(t, database, Key(30), Value(30))
	expectNotFound(t, database, Key(20))

	rowSize := 1 + KeySize + ValueSize
	if sizeAfter := database.GetInfo().SizeBytes; sizeBefore-sizeAfter != rowSize {
		t.Errorf("Expected the data to shrink by exactly one row (%d bytes), shrunk by %d", rowSize, sizeBefore-sizeAfter)
	}
}

func testFind(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureInsert|db.FeatureFind)

	for _, k := range []uint64{9, 3, 7, 1, 5, 3} {
		mustInsert(t, database, Key(k), Value(k))
	}

	all := keySet(collect(t, database, db.PredicateAll()))
	if len(all) != 5 || all[string(Key(3))] != 2 {
		t.Errorf("Expected 6 rows with key 3 twice, got %v", all)
	}

	equal := collect(t, database, db.PredicateEquality(Key(3)))
	if len(equal) != 2 {
		t.Errorf("Expected equality cursor to visit 2 rows, got %d", len(equal))
	}

	ranged := keySet(collect(t, database, db.PredicateRange(Key(4), Key(8))))
	if len(ranged) != 2 || ranged[string(Key(5))] != 1 || ranged[string(Key(7))] != 1 {
		t.Errorf("Expected range [4,8] to contain 5 and 7, got %v", ranged)
	}

	if none := collect(t, database, db.PredicateEquality(Key(4))); len(none) != 0 {
		t.Errorf("Expected no rows for a missing key, got %d", len(none))
	}
}

func testEdgeCases(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureInsert|db.FeatureGet)

	if _, err := database.Insert([]byte("short"), Value(1)); !errors.Is(err, db.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for a short key, got %v", err)
	}
	if _, err := database.Insert(Key(1), []byte("too long value")); !errors.Is(err, db.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for a long value, got %v", err)
	}
	if _, err := database.Get(nil); !errors.Is(err, db.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for a nil key, got %v", err)
	}

	// empty database
	expectNotFound(t, database, Key(0))

	zeroKey := make([]byte, KeySize)
	mustInsert(t, database, zeroKey, Value(42))
	expectValue(t, database, zeroKey, Value(42))
}

func testRealisticUsage(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureInsert|db.FeatureGet|db.FeatureDelete|db.FeatureUpdate)

	numKeys := uint64(500)
	for i := uint64(0); i < numKeys; i++ {
		mustInsert(t, database, Key(i), Value(i))
	}

	// delete every even key
	for i := uint64(0); i < numKeys; i += 2 {
		if count, err := database.Delete(Key(i)); err != nil || count != 1 {
			t.Fatalf("Delete(%d) returned count=%d err=%v", i, count, err)
		}
	}

	// update every key divisible by 3
	for i := uint64(0); i < numKeys; i += 3 {
		if _, err := database.Update(Key(i), Value(i+numKeys)); err != nil {
			t.Fatalf("Update(%d) failed: %v", i, err)
		}
	}

	for i := uint64(0); i < numKeys; i++ {
		switch {
		case i%3 == 0:
			// updated (and re-inserted if it was deleted before)
			expectValue(t, database, Key(i), Value(i+numKeys))
		case i%2 == 0:
			expectNotFound(t, database, Key(i))
		default:
			expectValue(t, database, Key(i), Value(i))
		}
	}

	if t.Failed() {
		return
	}

	expectedRows := 0
	for i := uint64(0); i < numKeys; i++ {
		if i%3 == 0 || i%2 == 1 {
			expectedRows++
		}
	}
	if rows := len(collect(t, database, db.PredicateAll())); rows != expectedRows {
		t.Errorf("Expected %d rows after the workload, got %d", expectedRows, rows)
	}
}

func testClose(t *testing.T, database db.KVDB) {
	if err := database.Close(); err != nil {
		t.Fatalf("Unexpected error during Close: %v", err)
	}

	if _, err := database.Get(Key(1)); !errors.Is(err, db.ErrClosed) {
		t.Errorf("Expected ErrClosed after Close, got %v", err)
	}
	if _, err := database.Insert(Key(1), Value(1)); !errors.Is(err, db.ErrClosed) {
		t.Errorf("Expected ErrClosed after Close, got %v", err)
	}
	if err := database.Close(); !errors.Is(err, db.ErrClosed) {
		t.Errorf("Expected second Close to fail with ErrClosed, got %v", err)
	}
}

// --------------------------------------------------------------------------
// Sorted mode test functions
// --------------------------------------------------------------------------

func testSortedMonotonicity(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureInsert|db.FeatureBinarySearch)

	for i := uint64(1); i <= 20; i++ {
		mustInsert(t, database, Key(i*2), Value(i))
	}

	for _, k := range []uint64{40, 39, 0} {
		if _, err := database.Insert(Key(k), Value(0)); !errors.Is(err, db.ErrSortedOrderViolation) {
			t.Errorf("Expected ErrSortedOrderViolation when inserting %d, got %v", k, err)
		}
	}

	mustInsert(t, database, Key(41), Value(41))
}

func testSortedBinarySearch(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureInsert|db.FeatureGet|db.FeatureBinarySearch)

	expectNotFound(t, database, Key(5))

	for _, k := range []uint64{1, 3, 5, 7, 9} {
		mustInsert(t, database, Key(k), Value(k*100))
	}

	for _, k := range []uint64{1, 3, 5, 7, 9} {
		expectValue(t, database, Key(k), Value(k*100))
	}
	for _, k := range []uint64{0, 2, 4, 6, 8, 10} {
		expectNotFound(t, database, Key(k))
	}
}

func testSortedUpdate(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureInsert|db.FeatureGet|db.FeatureUpdate|db.FeatureBinarySearch)

	for _, k := range []uint64{10, 20, 30} {
		mustInsert(t, database, Key(k), Value(k))
	}

	if count, err := database.Update(Key(20), Value(21)); err != nil || count != 1 {
		t.Errorf("Expected in place update, got count=%d err=%v", count, err)
	}
	expectValue(t, database, Key(20), Value(21))

	// upsert behind the last key works
	if count, err := database.Update(Key(40), Value(40)); err != nil || count != 1 {
		t.Errorf("Expected upsert of 40, got count=%d err=%v", count, err)
	}
	expectValue(t, database, Key(40), Value(40))

	// upsert in the middle violates the order
	if _, err := database.Update(Key(25), Value(25)); !errors.Is(err, db.ErrSortedOrderViolation) {
		t.Errorf("Expected ErrSortedOrderViolation for upsert of 25, got %v", err)
	}

	keys := collect(t, database, db.PredicateAll())
	if len(keys) != 4 {
		t.Errorf("Expected 4 rows, got %d", len(keys))
	}
}

func testSortedDelete(t *testing.T, database db.KVDB) {
	defer database.Close()

	if database.SupportsFeature(db.FeatureDelete) {
		t.Errorf("Sorted databases must not advertise Delete")
	}

	mustInsert(t, database, Key(1), Value(1))
	if _, err := database.Delete(Key(1)); !errors.Is(err, db.ErrSortedOrderViolation) {
		t.Errorf("Expected ErrSortedOrderViolation for Delete, got %v", err)
	}
	expectValue(t, database, Key(1), Value(1))
}

func testSortedFind(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureInsert|db.FeatureFind)

	for i := uint64(0); i < 100; i++ {
		mustInsert(t, database, Key(i*10), Value(i))
	}

	ranged := collect(t, database, db.PredicateRange(Key(95), Key(305)))
	if len(ranged) != 21 {
		t.Fatalf("Expected 21 keys in [95,305], got %d", len(ranged))
	}
	for i, k := range ranged {
		if expected := Key(uint64(100 + i*10)); !bytes.Equal(k, expected) {
			t.Errorf("Range key %d: expected %x, got %x", i, expected, k)
		}
	}

	if equal := collect(t, database, db.PredicateEquality(Key(500))); len(equal) != 1 {
		t.Errorf("Expected exactly one row for key 500, got %d", len(equal))
	}
	if below := collect(t, database, db.PredicateRange(Key(0), Key(0))); len(below) != 1 {
		t.Errorf("Expected exactly one row for range [0,0], got %d", len(below))
	}
	if all := collect(t, database, db.PredicateAll()); len(all) != 100 {
		t.Errorf("Expected 100 rows, got %d", len(all))
	}
	if none := collect(t, database, db.PredicateRange(Key(2000), Key(3000))); len(none) != 0 {
		t.Errorf("Expected no rows past the last key, got %s", fmt.Sprint(len(none)))
	}
}
