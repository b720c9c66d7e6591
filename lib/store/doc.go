// Package store provides a high-level interface for fixed-width key-value storage
// operations with unified error handling. It serves as an abstraction layer over the
// lower-level db.KVDB implementations.
//
// The package focuses on:
//   - A unified interface (IStore) for key-value operations across different backends
//   - Pluggable storage backend architecture through the DBFactory pattern
//   - Error codes that let callers react to a failure without inspecting engine errors
//
// Key Components:
//
//   - IStore Interface: The core abstraction defining operations for interacting with
//     a key-value store. The interface methods return custom Error types that provide
//     detailed information about operation results.
//
//   - Error System: A structured error reporting mechanism using typed error codes
//     (RetCode) and descriptive messages. The engine error that caused a store error is
//     kept as its cause, so errors.Is works across the layers.
//
//   - DBFactory: A function type that abstracts the creation of underlying db.KVDB
//     instances, providing dependency injection and flexible configuration of
//     storage backends.
//
// Implementations:
//
//   - Local Store (lstore): A non-distributed implementation that directly
//     utilizes a db.KVDB instance and serialises all calls with a mutex.
//     Available in the "github.com/ValentinKolb/flatkv/lib/store/lstore" package.
package store
