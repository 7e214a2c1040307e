package middleware

import (
	"context"
	"log/slog"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/session"
)

type sessionContextKey struct{}

// FromContext returns the session Sessions attached to the request context.
func FromContext(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(*session.Session)
	return sess, ok
}

// Sessions loads the request's session before next runs and commits it right before
// the response headers are written. Responses with status 500 and above do not
// persist changes.
func Sessions(m *goSession.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				next.ServeHTTP(w, r)
				return
			}

			var cookieKey string
			c, err := r.Cookie(m.CookieName())
			hadCookie := err == nil
			if hadCookie {
				cookieKey = c.Value
			}

			sess, err := m.Load(r.Context(), cookieKey)
			if err != nil {
				m.Logger().WarnContext(r.Context(), "session load failed, starting a new session",
					slog.String("key", session.Truncate(cookieKey)),
					slog.Any("error", err),
				)
			}

			sw := &sessionWriter{
				ResponseWriter: w,
				manager:        m,
				req:            r,
				sess:           sess,
				hadCookie:      hadCookie,
			}
			ctx := context.WithValue(r.Context(), sessionContextKey{}, sess)
			next.ServeHTTP(sw, r.WithContext(ctx))
			sw.commit(http.StatusOK)
		})
	}
}

// sessionWriter commits the session when the handler first writes.
type sessionWriter struct {
	http.ResponseWriter
	manager   *goSession.Manager
	req       *http.Request
	sess      *session.Session
	hadCookie bool
	committed bool
}

func (w *sessionWriter) WriteHeader(status int) {
	w.commit(status)
	w.ResponseWriter.WriteHeader(status)
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	w.commit(http.StatusOK)
	return w.ResponseWriter.Write(b)
}

func (w *sessionWriter) Flush() {
	w.commit(http.StatusOK)
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *sessionWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *sessionWriter) commit(status int) {
	if w.committed {
		return
	}
	w.committed = true

	ctx := w.req.Context()
	act, err := w.manager.Commit(ctx, w.sess, status < http.StatusInternalServerError, w.hadCookie)
	if err != nil {
		w.manager.Logger().ErrorContext(ctx, "session commit failed",
			slog.String("key", session.Truncate(w.sess.Key())),
			slog.Any("error", err),
		)
	}
	if act.VaryCookie {
		w.Header().Add("Vary", "Cookie")
	}
	if c := w.manager.Cookie(act); c != nil {
		http.SetCookie(w.ResponseWriter, c)
	}
}
