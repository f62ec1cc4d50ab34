// Package store provides a SQLite-backed catalog of compiled CTF metadata.
//
// The catalog is append-only and content addressed:
//   - Traces: one row per distinct compiled document, keyed by its fingerprint,
//     holding the canonical JSON form
//   - Streams, Events: flattened for lookup by event name
//   - Clocks, Environment: trace-wide attributes
//
// # Invariants
//
// Idempotency
//   - traces.fingerprint is the primary key; WriteTrace uses
//     ON CONFLICT(fingerprint) DO NOTHING and writes child rows only for new
//     traces
//   - writing the same document twice, from any source, is a no-op
//
// Deterministic Query Results
//   - traces carry a logical seq assigned at insert time, never a timestamp
//   - all list queries order by seq, then position, then id COLLATE BINARY
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Fingerprints are computed by ctf.Fingerprint from the RFC 8785 canonical
// JSON of the trace.
package store
