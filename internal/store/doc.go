// Package store provides the SQLite-backed generation cache and history.
//
// Every generate invocation records one run per block:
//   - Runs: source and output paths, content hashes, counts and status
//   - Registrations: the registration calls the generated routine issues
//
// # Ordering
//
// Runs carry a logical seq assigned inside the insert transaction. All
// queries order by seq ASC, id ASC COLLATE BINARY so listings are stable
// regardless of wall time.
//
// # Cache
//
// A block is skipped when its latest successful run has the same source
// hash and options hash and the output on disk still hashes to the
// recorded output hash. Hashes come from internal/ir and use SHA-256 with
// domain separation.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
