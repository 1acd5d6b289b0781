// Package store provides SQLite-backed persistence for compilations.
//
// Two kinds of records are kept:
//   - Graphs: snapshots of a built program's triple store, keyed by program hash
//   - Compilations: one row per compile session with its entry inputs,
//     the produced module text or the error code, and the diagnostic trace
//
// A successful compilation doubles as a cache entry: ReadCompilationByProgram
// returns the most recent successful compilation of a program hash.
//
// # Ordering
//
// Compilations carry a seq INTEGER assigned by NextSeq. Listing queries use
// ORDER BY seq ASC, id COLLATE BINARY ASC and never wall-clock time, so the
// history of a database reads the same on every machine.
//
// # Symbols
//
// Symbols are uint64 and stored in INTEGER columns as their int64 bit
// pattern. Namespaces at or above 2^31 therefore read back negative in SQL
// but convert back to the same Symbol.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
