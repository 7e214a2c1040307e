package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
)

// Transport is a key-value connection holding encoded session tokens.
type Transport interface {
	// Get returns the stored value, or ErrNotFound when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	// SetWithTTL stores value for ttl. A ttl <= 0 removes the key.
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Server resolves the transport responsible for a session key.
type Server interface {
	Connect(sessionKey string) (Transport, error)
}

// IsTransportFailure reports whether err is a connection-level failure that reads may
// treat as "no session". Server replies, context cancellation and data errors are not.
func IsTransportFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, redis.ErrClosed) ||
		errors.Is(err, redis.ErrPoolTimeout) ||
		errors.Is(err, redis.ErrPoolExhausted) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// classify wraps transport failures in ErrStoreUnavailable and leaves other errors
// recognisable by their own type.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsTransportFailure(err) {
		return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
	}
	return fmt.Errorf("session %s: %w", op, err)
}
