// Package testing provides standardised tests and benchmarks for
// database implementations that satisfy the db.KVDB interface.
//
// The package contains:
//   - testing: Conformance suites for unsorted (RunKVDBTests) and sorted (RunSortedKVDBTests) databases
//   - benchmark: Performance tests for measuring throughput of common database operations
//
// Every database returned by a DBFactory must be empty and use KeySize byte keys and
// ValueSize byte values. Keys are produced with Key and hold little-endian integers, so
// both numeric key types order them the same way.
//
// Example usage:
//
//	// Creating a factory function for your implementation
//	factory := func() db.KVDB {
//		return NewMyDatabase(dbtesting.KeySize, dbtesting.ValueSize)
//	}
//
//	// Running the standard test suite
//	dbtesting.RunKVDBTests(t, "MyDatabase", factory)
//
//	// Running performance benchmarks
//	dbtesting.RunKVDBBenchmarks(b, "MyDatabase", factory)
package testing
