// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - FindingStore: Published finding persistence and similarity queries
//   - ReactionLedger: Reaction persistence with triple uniqueness
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Similarity Queries
//
// Embeddings are stored as little-endian float32 blobs. Similarity queries
// filter by repository scope in SQL and compute exact cosine similarity in
// Go, so results never cross repository boundaries.
//
// # Data Location
//
// By default, the database is stored at ~/.revloop/data/revloop.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
