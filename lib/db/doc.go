// Package db provides a standardized interface for fixed-width key-value database implementations.
// It defines the KVDB interface that allows for consistent interaction with database
// backends while abstracting implementation details.
//
// The package focuses on:
//   - A unified interface for key-value operations on fixed-width records
//   - Feature discovery through capability flags
//   - Typed key ordering (signed, unsigned, raw bytes and strings)
//   - Sentinel errors shared by all implementations
//
// Key Components:
//
//   - KVDB Interface: The core interface that all database implementations must satisfy.
//     It provides methods for write operations (Insert, Update, Delete), query operations
//     (Get, Find), metadata retrieval (GetInfo) and lifecycle operations (Close, Destroy).
//
//   - Feature Flags: The Feature type defines capability flags that implementations
//     can advertise through the SupportsFeature method. This allows clients to
//     discover supported operations at runtime (for example, sorted flat files do not
//     support Delete but answer lookups with a binary search).
//
//   - Key Types: KeyType selects how the bytes of a key are ordered. ComparatorFor returns
//     the matching CompareFunc, EncodeKey and FormatKey convert between the textual and the
//     fixed-width byte representation of a key.
//
//   - Cursors: Find takes a Predicate (equality, range or all) and returns a Cursor that
//     yields copies of the matching entries.
//
//   - Errors: All failures are reported through the sentinel errors declared in errors.go,
//     wrapped with their cause. Use errors.Is to inspect them.
//
//   - Database Information: The DatabaseInfo structure provides standardized
//     reporting on database state, including the size of the data, implementation type,
//     and implementation-specific metadata.
//
// Note on Counts:
//   - Insert, Update and Delete return the number of affected rows. The count is only
//     meaningful if the returned error is nil; a failed multi-row operation may report the
//     rows it changed before the error occurred.
//
// Related Packages:
//
// The engines/flatfile package (github.com/ValentinKolb/flatkv/lib/db/engines/flatfile) provides
// a file-backed implementation of the KVDB interface for memory-constrained devices. It stores
// every record in a single flat file, holds only a fixed number of rows in memory and supports
// an append-only sorted mode with binary search.
//
// The testing package (github.com/ValentinKolb/flatkv/lib/db/testing) provides
// standardized tests and benchmarks for database implementations that satisfy the db.KVDB interface.
//   - RunKVDBTests: Runs a standardized test suite to validate implementations
//   - RunSortedKVDBTests: Runs the suite for append-only sorted implementations
//   - RunKVDBBenchmarks: Provides performance benchmarks for comparing implementations
package db
