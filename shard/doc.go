// Package shard deterministically routes keys to one of several weighted backends.
//
// # Algorithm
//
// The fingerprint of a key is its first four characters read as a little-endian base-256
// number (character 0 is the least significant digit). The fingerprint modulo the total
// pool weight selects the entry whose cumulative weight range contains it. For a fixed
// pool ordering the same key always maps to the same backend.
//
// Only four characters are inspected, so keys must be random and at least four
// characters long; generated session keys satisfy both. Changing the pool reshards
// every key: there is no consistent-hashing ring.
//
// # Caching
//
// [Selector] memoizes assignments in a bounded, thread-safe LRU. The cache never changes
// results, only latency.
//
// # What this package must NOT do
//
//   - Open connections or know what a backend is ([Selector] is generic over it).
//   - Mutate the pool after construction.
package shard
