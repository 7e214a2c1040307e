package session

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestExpiryAgeDefaultsToLifetime(t *testing.T) {
	s := New()
	if got := s.ExpiryAge(time.Now(), 14*24*time.Hour); got != 14*24*time.Hour {
		t.Fatalf("expiry age = %v", got)
	}
	if !s.ExpireAtBrowserClose(true) || s.ExpireAtBrowserClose(false) {
		t.Fatalf("without override the default must apply")
	}
}

func TestExpiryOverrideSeconds(t *testing.T) {
	s := New()
	s.SetExpiry(90 * time.Second)
	if !s.Modified() {
		t.Fatalf("set expiry must mark modified")
	}
	if got := s.ExpiryAge(time.Now(), time.Hour); got != 90*time.Second {
		t.Fatalf("expiry age = %v", got)
	}
	if s.ExpireAtBrowserClose(true) {
		t.Fatalf("non-zero override must not expire at browser close")
	}
}

func TestExpiryOverrideSurvivesSerialization(t *testing.T) {
	// After a JSON round trip the override comes back as float64 or json.Number.
	for _, v := range []any{float64(30), json.Number("30"), int64(30), uint64(30)} {
		s := Load("abcd", Data{ExpiryKey: v})
		if got := s.ExpiryAge(time.Now(), time.Hour); got != 30*time.Second {
			t.Fatalf("%T: expiry age = %v", v, got)
		}
	}
}

func TestExpiryZeroMeansBrowserClose(t *testing.T) {
	s := New()
	s.SetExpiry(0)
	if !s.ExpireAtBrowserClose(false) {
		t.Fatalf("zero override must expire at browser close")
	}
	if got := s.ExpiryAge(time.Now(), time.Hour); got != 0 {
		t.Fatalf("expiry age = %v", got)
	}
}

func TestExpiryAt(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := New()
	s.SetExpiryAt(now.Add(2 * time.Hour))
	if got := s.ExpiryAge(now, time.Minute); got != 2*time.Hour {
		t.Fatalf("expiry age = %v", got)
	}
	if s.ExpireAtBrowserClose(true) {
		t.Fatalf("timestamp override must not expire at browser close")
	}

	s.SetExpiryAt(now.Add(-time.Hour))
	if got := s.ExpiryAge(now, time.Minute); got >= 0 {
		t.Fatalf("expected negative age for past expiry, got %v", got)
	}
}

func TestExpiryUnreadableFallsBack(t *testing.T) {
	s := Load("abcd", Data{ExpiryKey: "tomorrow-ish"})
	if got := s.ExpiryAge(time.Now(), time.Hour); got != time.Hour {
		t.Fatalf("expiry age = %v", got)
	}
	if s.ExpireAtBrowserClose(false) {
		t.Fatalf("unreadable override must not be treated as zero")
	}
}

func TestClearExpiry(t *testing.T) {
	s := New()
	s.SetExpiry(time.Minute)
	s.ClearExpiry()
	if _, ok := s.Expiry(); ok {
		t.Fatalf("expected override removed")
	}
	s.ClearExpiry()
}

func TestExpiryHugeOverrideSaturates(t *testing.T) {
	now := time.Now()
	for _, v := range []any{float64(1e12), int64(math.MaxInt64), json.Number("1e300"), math.Inf(1)} {
		s := Load("abcd", Data{ExpiryKey: v})
		if got := s.ExpiryAge(now, time.Hour); got != time.Duration(math.MaxInt64) {
			t.Fatalf("%T(%v): expiry age = %v, want saturation at the maximum", v, v, got)
		}
	}
	for _, v := range []any{float64(-1e12), int64(math.MinInt64), math.Inf(-1)} {
		s := Load("abcd", Data{ExpiryKey: v})
		if got := s.ExpiryAge(now, time.Hour); got != time.Duration(math.MinInt64) {
			t.Fatalf("%T(%v): expiry age = %v, want saturation at the minimum", v, v, got)
		}
	}
}

func TestExpiryNaNFallsBackToLifetime(t *testing.T) {
	s := Load("abcd", Data{ExpiryKey: math.NaN()})
	if got := s.ExpiryAge(time.Now(), time.Hour); got != time.Hour {
		t.Fatalf("expiry age = %v", got)
	}
}
