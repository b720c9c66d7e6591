// Package flatfile implements a file-backed key-value database (KVDB) for
// memory-constrained devices. It provides an implementation of the db.KVDB
// interface that keeps all records in a single flat data file and only ever
// holds a small, fixed number of rows in memory.
//
// The package focuses on:
//   - Predictable memory usage: one buffer of BufferedRows rows per open dictionary
//   - Fixed-width records that can be addressed by index without an index structure
//   - Append-only inserts and swap-based deletes that keep the data contiguous
//   - An optional sorted mode that enables binary search in exchange for deletes
//
// Key Components:
//
//   - FlatFile: The central structure implementing db.KVDB. It owns the open data file
//     and the row buffer, and tracks the end of data. FlatFile is not thread-safe,
//     every operation (including reads) mutates the row buffer.
//
//   - Row Layout (internal.Layout): Converts row indices to byte offsets. A row is laid out as
//     | STATUS (1) | KEY (KeySize) | VALUE (ValueSize) |
//     where STATUS is 1 for occupied rows and 0 for empty rows.
//
//   - Region Cache: The row buffer always mirrors a contiguous block of rows of the file
//     (the loaded region). Point reads inside the region are served from memory. Every
//     write invalidates the region, whether or not the written row is part of it.
//
//   - Scan Engine: Scans traverse the rows forwards or backwards, refilling the buffer with up
//     to BufferedRows rows per disk access, and stop at the first row a Predicate matches.
//     Provided predicates are NotEmpty, KeyMatch and WithinBounds. A scan that runs out of rows
//     returns db.ErrHitEOF with the row count as location.
//
//   - Binary Search: In sorted mode lookups use a binary search that resolves to the first row
//     of a run of equal keys, or to the floor (greatest smaller key) if the key does not exist.
//
//   - Cursor: Find returns a db.Cursor for equality, range and full predicates. In sorted mode
//     the cursor starts at the binary search position and stops at the first key past the range.
//
// File Format:
//
//   - The file starts with a HeaderSize byte header that is reserved for future metadata,
//     followed by the rows. The file is named "<id>.ffs".
//   - The end of data is not stored. When a file is opened it is recovered by scanning backwards
//     for the last occupied row. Deleted rows at the end of the file are marked empty instead
//     of truncating the file.
//
// Operations:
//
//   - Insert: Always appends at the end of data. In sorted mode the key must be strictly greater
//     than the last key (db.ErrSortedOrderViolation otherwise). With TrackLastInserted the last
//     key is kept in memory so the check does not need to read the last row.
//   - Get: Unsorted flat files are scanned backwards, sorted ones are binary searched.
//   - Update: Overwrites matching rows in place and inserts the row if none matched (upsert).
//   - Delete: Moves the last row into the hole of every matching row and shrinks the end of
//     data. Not available in sorted mode.
//
// Failure Handling:
//
// All errors are the sentinel errors of the db package wrapped with their cause. I/O errors are
// returned as they happen. There are no transactions: if a multi-step operation such as
// a swap delete fails half way, the file is left as it is and the caller has to recover.
package flatfile
