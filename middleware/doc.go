// Package middleware adapts goSession.Manager to net/http.
//
// [Sessions] reads the session cookie, loads the session through Manager.Load and
// attaches it to the request context, where handlers fetch it with [FromContext].
// The session is committed through Manager.Commit at the first WriteHeader, Write
// or Flush (or after the handler returns, if it wrote nothing), so the session
// cookie and the Vary header go out with the response headers.
//
// # What this package must NOT do
//
//   - Touch storage directly; every decision is made by Manager.Commit.
//   - Fail a request because its session could not be loaded.
package middleware
