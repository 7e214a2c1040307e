// Package goSession provides server-side HTTP sessions: session data lives in Redis
// (or process memory) as signed tokens, and the client only holds a random key in a
// cookie.
//
// The package is designed for concurrent server workloads: Manager methods are safe to
// call from multiple goroutines after initialization through [Builder.Build]. A single
// [session.Session] belongs to one request and is not shared.
//
// # Architecture boundaries
//
// goSession is the orchestration surface. It exposes [Manager], [Builder], [Config] and
// value types (CookieAction, MetricsSnapshot, AuditEvent). The token format lives in
// codec, shard placement in shard, storage and the tracked session model in session,
// and the net/http adapter in middleware.
//
// # Request lifecycle
//
// [Manager.Load] turns a cookie value into a session. [Manager.Commit] runs after the
// handler and decides, from the session's accessed and modified flags, whether to
// persist, delete or leave the session alone and what to do with the cookie.
//
// # What this package must NOT do
//
//   - Log or audit full session keys or secret material.
//   - Fail a request because the session cache is unreachable; reads degrade to
//     "no session".
//   - Import middleware (no import cycles).
package goSession
