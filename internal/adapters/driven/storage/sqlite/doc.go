// Package sqlite stores conversion documents in SQLite files.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. A document file holds one session header,
// devices, processing modules, chunked int16 time series and interval tables.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Transactions
//
// A Target runs every write of a conversion inside one transaction. Create and
// overwrite build the file at "<path>.tmp" and rename it over the target on
// Finalize; append writes in place and rolls back on Abort.
package sqlite
