// Package lstore implements a local, single-node key-value store based on the
// store.IStore interface. It provides a thin, thread-safe wrapper around any db.KVDB
// implementation (usually a flatfile.FlatFile).
//
// Key Features:
//   - Serialised access to engines that are not thread-safe themselves
//   - Mapping of the db sentinel errors to store return codes
//   - Operation counters for every store
//   - Feature detection to handle unsupported operations gracefully
//   - A Registry that keeps one store per dictionary id
//
// Implementation Details:
//
//   - Locking: Every call into the underlying database holds the store mutex. The flat file
//     engine mutates its row buffer on reads too, so there is no separate read lock.
//
//   - Error Mapping: db.ErrItemNotFound becomes RetCNotFound (Get reports it as loaded=false),
//     db.ErrSortedOrderViolation, db.ErrInvalidArgument and db.ErrClosed become
//     RetCInvalidOperation and every other error (I/O failures) becomes RetCInternalError.
//     The original error stays reachable through errors.Is.
//
//   - Feature Detection: Before executing operations, the store checks if the underlying
//     db.KVDB implementation supports the requested feature through the SupportsFeature
//     method. Unsupported operations (for example Delete on a sorted flat file) return
//     RetCUnsupportedOperation.
//
//   - Statistics: Operation and error counts are kept in xsync.Counter values, which can be
//     read without taking the store mutex.
//
// Usage Example:
//
//	factory := func() (db.KVDB, error) { return flatfile.Open(1, opts) }
//	s, err := lstore.NewLocalStore(factory)
//	if err != nil { ... }
//	defer s.Close()
//
//	err = s.Insert(key, value)
//	value, exists, err := s.Get(key)
package lstore
