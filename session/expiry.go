package session

import (
	"encoding/json"
	"math"
	"time"
)

// Expiry returns the per-session expiry override, if any. The value is a number of
// seconds (0 means "expire when the browser closes") or an RFC 3339 timestamp.
func (s *Session) Expiry() (any, bool) {
	v := s.Get(ExpiryKey)
	return v, v != nil
}

// SetExpiry overrides the session lifetime. Zero makes the cookie a browser-session
// cookie.
func (s *Session) SetExpiry(d time.Duration) {
	s.Set(ExpiryKey, int64(d/time.Second))
}

// SetExpiryAt makes the session expire at t.
func (s *Session) SetExpiryAt(t time.Time) {
	s.Set(ExpiryKey, t.UTC().Format(time.RFC3339))
}

// ClearExpiry removes the override so the configured lifetime applies again.
func (s *Session) ClearExpiry() {
	s.Delete(ExpiryKey)
}

// ExpiryAge returns how long the session should live from now: the override when one
// is set and readable, lifetime otherwise. The result may be zero or negative.
func (s *Session) ExpiryAge(now time.Time, lifetime time.Duration) time.Duration {
	v, ok := s.Expiry()
	if !ok {
		return lifetime
	}
	switch x := v.(type) {
	case string:
		at, err := time.Parse(time.RFC3339, x)
		if err != nil {
			return lifetime
		}
		return at.Sub(now).Truncate(time.Second)
	case time.Time:
		return x.Sub(now).Truncate(time.Second)
	case time.Duration:
		return x
	}
	if secs, ok := numericSeconds(v); ok {
		if math.IsNaN(secs) {
			return lifetime
		}
		return secondsToDuration(secs)
	}
	return lifetime
}

// secondsToDuration saturates at the bounds of time.Duration instead of wrapping.
func secondsToDuration(secs float64) time.Duration {
	// float64(math.MaxInt64) rounds up to 2^63, which no Duration can hold.
	const bound = float64(math.MaxInt64)
	ns := secs * float64(time.Second)
	switch {
	case ns >= bound:
		return time.Duration(math.MaxInt64)
	case ns <= -bound:
		return time.Duration(math.MinInt64)
	}
	return time.Duration(ns)
}
