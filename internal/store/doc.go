// Package store provides SQLite-backed durable storage for callchain.
//
// The store is an append-only log with:
//   - Rewrites: every processed input line, its canonical output or error kind
//   - Pipelines: compiled catalog entries
//
// # Patterns
//
// Idempotent writes
//   - IDs are content addressed (internal/ir/hash.go)
//   - INSERT ... ON CONFLICT DO NOTHING, so re-running a batch is a no-op
//
// Logical time
//   - Rewrites are ordered by seq (logical clock), never timestamps
//   - All multi-row queries use ORDER BY seq ASC, id COLLATE BINARY ASC
//
// Memoization
//   - input_hash is indexed; LookupOutput returns the earliest rewrite of an
//     identical input so a batch can skip parsing and reordering
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON
package store
