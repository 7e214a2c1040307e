// Package session provides the server-side session storage contract, its Redis,
// weighted-pool and in-memory implementations, and the mutation-tracking [Session]
// model.
//
// # Storage
//
// A [Store] persists session data as signed tokens produced by a [codec.Codec]. The
// token for key K is stored under prefix + ":" + K in whichever [Transport] the
// configured [Server] resolves for K. A [Pool] resolves transports through a
// weighted shard selector so the same key always lands on the same shard.
//
// # Failure semantics
//
// Transport failures (connection refused or reset, timeouts, closed clients) are soft
// for reads: Exists reports false, Read returns empty data and Delete succeeds, so a
// cache outage degrades to "no session" instead of failing the request. Corrupted or
// undecodable stored values are never softened and always reach the caller. Writes
// propagate every error.
//
// # Tracking
//
// [Session] records whether a handler read (accessed) or changed (modified) the data.
// The orchestration layer uses those flags to decide whether to persist and whether
// the response varies by cookie.
//
// # What this package must NOT do
//
//   - Import the root goSession package or middleware (no upward imports).
//   - Log or return secret material.
//   - Lock across keys; concurrent writers to the same key are last-write-wins.
package session
