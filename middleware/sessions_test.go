package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/session"
)

func newMiddlewareTest(t *testing.T, mutate func(*goSession.Config)) (*goSession.Manager, *session.MemoryServer) {
	t.Helper()
	cfg := goSession.DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	srv := session.NewMemoryServer()
	m, err := goSession.New().WithConfig(cfg).WithServer(srv).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m, srv
}

func serve(m *goSession.Manager, h http.HandlerFunc, cookie string) *http.Response {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "session", Value: cookie})
	}
	rec := httptest.NewRecorder()
	Sessions(m)(h).ServeHTTP(rec, req)
	return rec.Result()
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == "session" {
			return c
		}
	}
	return nil
}

func seed(t *testing.T, m *goSession.Manager, data session.Data) string {
	t.Helper()
	key, err := m.Storage().Create(context.Background(), data, 24*time.Hour)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return key
}

func updateSession(w http.ResponseWriter, r *http.Request) {
	sess, _ := FromContext(r.Context())
	sess.Set("test", "data")
}

func noop(http.ResponseWriter, *http.Request) {}

func setExpiry(v any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := FromContext(r.Context())
		sess.Set(session.ExpiryKey, v)
	}
}

func TestCreateSession(t *testing.T) {
	m, srv := newMiddlewareTest(t, nil)

	resp := serve(m, updateSession, "")
	if srv.Len() != 1 {
		t.Fatalf("expected one stored session, got %d", srv.Len())
	}
	c := sessionCookie(resp)
	if c == nil || c.Value == "" {
		t.Fatal("expected session cookie")
	}
	if !c.HttpOnly || c.Path != "/" || c.SameSite != http.SameSiteLaxMode {
		t.Fatalf("unexpected cookie attributes %+v", c)
	}
	if got := resp.Header.Get("Vary"); got != "Cookie" {
		t.Fatalf("expected Vary: Cookie, got %q", got)
	}
}

func TestExistingSessionUntouched(t *testing.T) {
	m, srv := newMiddlewareTest(t, nil)
	key := seed(t, m, session.Data{"test": "data"})

	resp := serve(m, noop, key)
	if srv.Len() != 1 {
		t.Fatalf("expected one stored session, got %d", srv.Len())
	}
	data, err := m.Storage().Read(context.Background(), key)
	if err != nil || data["test"] != "data" {
		t.Fatalf("stored data changed: %v %v", data, err)
	}
	if sessionCookie(resp) != nil {
		t.Fatal("untouched session must not re-issue the cookie")
	}
}

func TestUnknownSessionCookieIsCleared(t *testing.T) {
	m, srv := newMiddlewareTest(t, nil)

	resp := serve(m, noop, session.NewKey())
	if srv.Len() != 0 {
		t.Fatalf("expected nothing stored, got %d", srv.Len())
	}
	c := sessionCookie(resp)
	if c == nil {
		t.Fatal("expected clearing cookie")
	}
	if c.MaxAge >= 0 || !c.Expires.Before(time.Now()) {
		t.Fatalf("expected an expired cookie, got %+v", c)
	}
}

func TestUnknownSessionCookieReplacedOnWrite(t *testing.T) {
	m, srv := newMiddlewareTest(t, nil)
	stale := session.NewKey()

	resp := serve(m, updateSession, stale)
	if srv.Len() != 1 {
		t.Fatalf("expected one stored session, got %d", srv.Len())
	}
	c := sessionCookie(resp)
	if c == nil || c.Value == stale {
		t.Fatalf("expected a fresh key, got %+v", c)
	}
	exists, _ := m.Storage().Exists(context.Background(), stale)
	if exists {
		t.Fatal("stale key must not be revived")
	}
	if got := resp.Header.Get("Vary"); got != "Cookie" {
		t.Fatalf("expected Vary: Cookie, got %q", got)
	}
}

func TestClearSessionUnsetsCookie(t *testing.T) {
	m, srv := newMiddlewareTest(t, nil)
	key := seed(t, m, session.Data{"test": "data"})

	resp := serve(m, func(w http.ResponseWriter, r *http.Request) {
		sess, _ := FromContext(r.Context())
		sess.Clear()
	}, key)
	if srv.Len() != 0 {
		t.Fatalf("expected session deleted, got %d", srv.Len())
	}
	c := sessionCookie(resp)
	if c == nil || c.MaxAge >= 0 || !c.Expires.Before(time.Now()) {
		t.Fatalf("expected expired cookie, got %+v", c)
	}
}

func TestCustomExpiry(t *testing.T) {
	tests := []struct {
		name       string
		expiry     any
		wantMaxAge func(int) bool
	}{
		{
			name:       "duration",
			expiry:     18 * 24 * time.Hour,
			wantMaxAge: func(n int) bool { return n == 18*86400 },
		},
		{
			name:       "seconds",
			expiry:     1555200,
			wantMaxAge: func(n int) bool { return n == 1555200 },
		},
		{
			name:   "absolute time",
			expiry: time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339),
			wantMaxAge: func(n int) bool {
				return n > 23*3600 && n <= 24*3600
			},
		},
		{
			name:       "browser close",
			expiry:     0,
			wantMaxAge: func(n int) bool { return n == 0 },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, srv := newMiddlewareTest(t, nil)

			resp := serve(m, setExpiry(tc.expiry), "")
			if srv.Len() != 1 {
				t.Fatalf("expected one stored session, got %d", srv.Len())
			}
			c := sessionCookie(resp)
			if c == nil {
				t.Fatal("expected session cookie")
			}
			if !tc.wantMaxAge(c.MaxAge) {
				t.Fatalf("unexpected max age %d", c.MaxAge)
			}
			if got := resp.Header.Get("Vary"); got != "Cookie" {
				t.Fatalf("expected Vary: Cookie, got %q", got)
			}
		})
	}
}

func TestExpireAtBrowserClose(t *testing.T) {
	m, srv := newMiddlewareTest(t, func(c *goSession.Config) {
		c.Session.ExpireAtBrowserClose = true
	})

	resp := serve(m, updateSession, "")
	if srv.Len() != 1 {
		t.Fatalf("expected one stored session, got %d", srv.Len())
	}
	c := sessionCookie(resp)
	if c == nil || c.MaxAge != 0 || !c.Expires.IsZero() {
		t.Fatalf("expected browser-session cookie, got %+v", c)
	}
}

func TestServerErrorDoesNotPersist(t *testing.T) {
	m, srv := newMiddlewareTest(t, nil)

	resp := serve(m, func(w http.ResponseWriter, r *http.Request) {
		updateSession(w, r)
		http.Error(w, "boom", http.StatusInternalServerError)
	}, "")
	if srv.Len() != 0 {
		t.Fatal("failed response must not persist the session")
	}
	if sessionCookie(resp) != nil {
		t.Fatal("failed response must not set a cookie")
	}
	if got := resp.Header.Get("Vary"); got != "Cookie" {
		t.Fatalf("expected Vary: Cookie, got %q", got)
	}
}

func TestCookieSetBeforeBodyWrite(t *testing.T) {
	m, _ := newMiddlewareTest(t, nil)

	resp := serve(m, func(w http.ResponseWriter, r *http.Request) {
		updateSession(w, r)
		_, _ = w.Write([]byte("hello"))
		sess, _ := FromContext(r.Context())
		sess.Set("late", true)
	}, "")
	if sessionCookie(resp) == nil {
		t.Fatal("expected cookie committed with the headers")
	}
}

func TestFromContextWithoutMiddleware(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Fatal("expected no session outside the middleware")
	}
}
