// Package store provides the SQLite-backed translation log.
//
// Every translated root field can be recorded with the request that
// produced it, the compiled Cypher and its parameters. The log is
// append-only and content-addressed:
//
//   - Rows are keyed by a UUIDv7 id and carry a logical sequence number.
//   - UNIQUE(request_hash, root_field) makes recording idempotent: the same
//     request against the same schema is stored once.
//   - Reads order by seq, never by wall time, so listings are stable.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Hashes are computed by internal/canonical from canonical JSON with
// SHA-256 and domain separation.
package store
