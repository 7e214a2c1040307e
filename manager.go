package goSession

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	internalmetrics "github.com/MrEthical07/goSession/internal/metrics"
	"github.com/MrEthical07/goSession/session"
)

// Manager runs the per-request session lifecycle: Load turns a cookie value into a
// tracked session, Commit decides whether to persist or delete it and what to do with
// the cookie. It is safe for concurrent use once built.
type Manager struct {
	config  Config
	storage session.Storage
	metrics *Metrics
	audit   *internalaudit.Dispatcher
	logger  *slog.Logger
	closers []io.Closer
	now     func() time.Time
}

// CookieKind says what a response must do with the session cookie.
type CookieKind uint8

const (
	// CookieNone leaves the cookie alone.
	CookieNone CookieKind = iota
	// CookieSet issues the cookie with Key and MaxAge.
	CookieSet
	// CookieClear expires the cookie.
	CookieClear
)

// CookieAction is the outcome of Manager.Commit.
type CookieAction struct {
	Kind CookieKind
	Key  string
	// MaxAge is zero for a browser-session cookie.
	MaxAge time.Duration
	// VaryCookie is set when the handler read the session, so caches must key on the
	// cookie.
	VaryCookie bool
}

// Load resolves the session for a request cookie value. An empty, unknown or
// malformed key yields a new empty session. When the stored value fails verification
// Load returns a new empty session together with the error so the caller can log it
// and carry on.
func (m *Manager) Load(ctx context.Context, cookieKey string) (*session.Session, error) {
	start := m.now()
	defer func() {
		if m.metrics.LatencyEnabled() {
			m.metrics.Observe(MetricLoadLatency, m.now().Sub(start))
		}
	}()

	if cookieKey == "" {
		m.metrics.Inc(MetricSessionMissing)
		return session.New(), nil
	}

	exists, err := m.storage.Exists(ctx, cookieKey)
	if err != nil {
		m.metrics.Inc(MetricSessionMissing)
		return session.New(), err
	}
	if !exists {
		m.metrics.Inc(MetricSessionMissing)
		return session.New(), nil
	}

	data, err := m.storage.Read(ctx, cookieKey)
	if err != nil {
		if errors.Is(err, ErrCorruptedSessionData) {
			m.metrics.Inc(MetricSessionCorrupted)
			m.emitAudit(ctx, AuditSessionCorrupted, cookieKey, false, err, nil)
			m.logger.WarnContext(ctx, "discarding corrupted session",
				slog.String("key", session.Truncate(cookieKey)),
				slog.Any("error", err),
			)
		} else {
			m.metrics.Inc(MetricSessionMissing)
		}
		return session.New(), err
	}

	m.metrics.Inc(MetricSessionLoaded)
	return session.Load(cookieKey, data), nil
}

// Commit persists sess after a handler ran and reports what to do with the cookie.
// succeeded reports whether the handler produced a non-error response; hadCookie
// whether the request carried the session cookie.
func (m *Manager) Commit(ctx context.Context, sess *session.Session, succeeded, hadCookie bool) (CookieAction, error) {
	if sess == nil {
		return CookieAction{}, nil
	}

	if sess.IsEmpty() {
		if sess.Modified() && sess.Key() != "" {
			if err := m.delete(ctx, sess.Key()); err != nil {
				return CookieAction{}, err
			}
		}
		if hadCookie {
			m.metrics.Inc(MetricCookieCleared)
			return CookieAction{Kind: CookieClear}, nil
		}
		return CookieAction{}, nil
	}

	act := CookieAction{VaryCookie: sess.Accessed()}
	if !succeeded || !(sess.Modified() || m.config.Session.RefreshEachRequest) {
		m.metrics.Inc(MetricCommitSkipped)
		return act, nil
	}

	now := m.now()
	age := sess.ExpiryAge(now, m.config.Session.Lifetime)
	browserClose := sess.ExpireAtBrowserClose(m.config.Session.ExpireAtBrowserClose)
	ttl := age
	if browserClose {
		// Browser-session cookie; the stored entry still expires after Lifetime.
		if ttl <= 0 {
			ttl = m.config.Session.Lifetime
		}
	} else if age <= 0 {
		// The override lies in the past.
		if sess.Key() != "" {
			if err := m.delete(ctx, sess.Key()); err != nil {
				return act, err
			}
		}
		if hadCookie {
			m.metrics.Inc(MetricCookieCleared)
			act.Kind = CookieClear
		}
		return act, nil
	}

	key := sess.Key()
	if key == "" {
		created, err := m.storage.Create(ctx, sess.Data(), ttl)
		if err != nil {
			m.metrics.Inc(MetricCommitFailed)
			m.emitAudit(ctx, AuditSessionCreated, "", false, err, nil)
			return act, err
		}
		key = created
		m.metrics.Inc(MetricSessionCreated)
		m.emitAudit(ctx, AuditSessionCreated, key, true, nil, nil)
	} else {
		if err := m.storage.Update(ctx, key, sess.Data(), ttl); err != nil {
			m.metrics.Inc(MetricCommitFailed)
			return act, err
		}
		m.metrics.Inc(MetricSessionUpdated)
	}

	act.Kind = CookieSet
	act.Key = key
	if !browserClose {
		act.MaxAge = age
	}
	return act, nil
}

func (m *Manager) delete(ctx context.Context, key string) error {
	if err := m.storage.Delete(ctx, key); err != nil {
		m.metrics.Inc(MetricCommitFailed)
		m.emitAudit(ctx, AuditSessionDeleted, key, false, err, nil)
		return err
	}
	m.metrics.Inc(MetricSessionDeleted)
	m.emitAudit(ctx, AuditSessionDeleted, key, true, nil, nil)
	return nil
}

// Cookie renders act as an http.Cookie using the configured attributes. It returns
// nil for CookieNone.
func (m *Manager) Cookie(act CookieAction) *http.Cookie {
	cc := m.config.Cookie
	c := &http.Cookie{
		Name:     cc.Name,
		Domain:   cc.Domain,
		Path:     cc.Path,
		Secure:   cc.Secure,
		HttpOnly: cc.HTTPOnly,
		SameSite: cc.SameSite,
	}
	switch act.Kind {
	case CookieSet:
		c.Value = act.Key
		if act.MaxAge > 0 {
			c.MaxAge = int(act.MaxAge / time.Second)
			if c.MaxAge == 0 {
				c.MaxAge = 1
			}
			c.Expires = m.now().Add(act.MaxAge).UTC()
		}
	case CookieClear:
		c.MaxAge = -1
		c.Expires = m.now().Add(-24 * time.Hour).UTC()
	default:
		return nil
	}
	return c
}

// CookieName returns the configured session cookie name.
func (m *Manager) CookieName() string { return m.config.Cookie.Name }

// Config returns a copy of the active configuration.
func (m *Manager) Config() Config { return cloneConfig(m.config) }

// Storage returns the backend sessions are persisted to.
func (m *Manager) Storage() session.Storage { return m.storage }

// Logger returns the manager's logger.
func (m *Manager) Logger() *slog.Logger { return m.logger }

// MetricsSnapshot returns a copy of the current metric values.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	if m == nil || m.metrics == nil {
		return internalmetrics.EmptySnapshot()
	}
	return m.metrics.Snapshot()
}

// Metrics exposes the live metrics for exporters.
func (m *Manager) Metrics() *Metrics { return m.metrics }

// AuditDropped reports audit events lost to backpressure.
func (m *Manager) AuditDropped() uint64 {
	if m == nil {
		return 0
	}
	return m.audit.Dropped()
}

// Close drains pending audit events and closes the Redis clients the Manager created.
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}
	m.audit.Close()
	var errs []error
	for _, c := range m.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	m.closers = nil
	return errors.Join(errs...)
}

func (m *Manager) emitAudit(ctx context.Context, eventType, key string, success bool, err error, metadata map[string]string) {
	if m.audit == nil {
		return
	}
	ev := AuditEvent{
		Timestamp:  m.now().UTC(),
		EventType:  eventType,
		SessionKey: session.Truncate(key),
		Success:    success,
		Metadata:   metadata,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	m.audit.Emit(ctx, ev)
}
