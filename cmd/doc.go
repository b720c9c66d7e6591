// Package cmd implements the command-line interface of flatKV. It opens a
// dictionary stored in a flat file on local disk and runs a single operation
// against it per invocation.
//
// The package is organized into several subpackages:
//
//   - kv: Commands for dictionary operations (insert, get, update, del, find, info, perf, etc.)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See flatkv -help for a list of all commands.
package cmd
