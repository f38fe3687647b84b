// Package sqlite provides a SQLite-backed vector index.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements driven.CollectionStore
// through a single database connection:
//
//   - collections: one row per index generation (name, model, dimensions, documents)
//   - chunks: chunk text, JSON metadata and a little-endian float32 vector blob
//
// Search is an exact scan of the collection ordered by insertion sequence, so
// ties in similarity keep insertion order.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.ragdesk/data/index.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
