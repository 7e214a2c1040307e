package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/goSession/codec"
	"github.com/MrEthical07/goSession/shard"
)

const defaultKeyAttempts = 32

// Storage is the contract between session orchestration and a persistence backend.
type Storage interface {
	// Exists reports whether a live entry exists for key.
	Exists(ctx context.Context, key string) (bool, error)
	// Create stores data under a fresh key and returns the key.
	Create(ctx context.Context, data Data, expiryAge time.Duration) (string, error)
	// Read returns the data for key, or empty data when there is none.
	Read(ctx context.Context, key string) (Data, error)
	// Update stores data under key for expiryAge.
	Update(ctx context.Context, key string, data Data, expiryAge time.Duration) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Observer is told about every transport failure a Store absorbed.
type Observer interface {
	TransportFailure(ctx context.Context, op, key string, err error)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, op, key string, err error)

// TransportFailure implements Observer.
func (f ObserverFunc) TransportFailure(ctx context.Context, op, key string, err error) {
	f(ctx, op, key, err)
}

// Option configures a Store.
type Option func(*Store)

// WithCodec sets the token codec. The default is codec.Default().
func WithCodec(c *codec.Codec) Option {
	return func(s *Store) {
		if c != nil {
			s.codec = c
		}
	}
}

// WithPrefix namespaces stored keys as prefix + ":" + key.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// WithObserver registers o for absorbed transport failures.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

// WithLogger sets the logger for absorbed failures. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithKeyAttempts bounds how many generated keys Create tries before giving up.
func WithKeyAttempts(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.keyAttempts = n
		}
	}
}

// Store implements Storage over a Server, persisting codec tokens.
type Store struct {
	server      Server
	codec       *codec.Codec
	prefix      string
	observer    Observer
	logger      *slog.Logger
	keyAttempts int
}

var _ Storage = (*Store)(nil)

// NewStore creates a store over server.
func NewStore(server Server, opts ...Option) *Store {
	s := &Store{
		server:      server,
		codec:       codec.Default(),
		logger:      slog.New(slog.DiscardHandler),
		keyAttempts: defaultKeyAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Codec returns the codec used for stored values.
func (s *Store) Codec() *codec.Codec { return s.codec }

// StoredKey returns the name key is stored under.
func (s *Store) StoredKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

// Encode encodes data as a token.
func (s *Store) Encode(data Data) (string, error) { return s.codec.Encode(data) }

// Decode decodes and verifies a token.
func (s *Store) Decode(token string) (Data, error) { return s.codec.Decode(token) }

// NewKey returns a key that is not currently in use.
func (s *Store) NewKey(ctx context.Context) (string, error) {
	for i := 0; i < s.keyAttempts; i++ {
		key := NewKey()
		exists, err := s.Exists(ctx, key)
		if err != nil {
			return "", err
		}
		if !exists {
			return key, nil
		}
	}
	return "", ErrKeyExhausted
}

// Exists reports whether key has a live entry. Malformed keys and transport failures
// report false.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	if !ValidKey(key) {
		return false, nil
	}
	tr, err := s.server.Connect(key)
	if err != nil {
		return false, err
	}
	ok, err := tr.Exists(ctx, s.StoredKey(key))
	if err != nil {
		if IsTransportFailure(err) {
			s.absorb(ctx, "exists", key, err)
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

// Create stores data under a fresh key.
func (s *Store) Create(ctx context.Context, data Data, expiryAge time.Duration) (string, error) {
	key, err := s.NewKey(ctx)
	if err != nil {
		return "", err
	}
	if err := s.Update(ctx, key, data, expiryAge); err != nil {
		return "", err
	}
	return key, nil
}

// Read returns the data stored under key. Absent keys, malformed keys and transport
// failures yield empty data; corrupted or undecodable values are returned as errors.
func (s *Store) Read(ctx context.Context, key string) (Data, error) {
	if !ValidKey(key) {
		return Data{}, nil
	}
	tr, err := s.server.Connect(key)
	if err != nil {
		return nil, err
	}
	raw, err := tr.Get(ctx, s.StoredKey(key))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Data{}, nil
		}
		if IsTransportFailure(err) {
			s.absorb(ctx, "read", key, err)
			return Data{}, nil
		}
		return nil, err
	}
	return s.codec.Decode(string(raw))
}

// Update stores data under key for expiryAge. A non-positive age removes the entry.
func (s *Store) Update(ctx context.Context, key string, data Data, expiryAge time.Duration) error {
	if !ValidKey(key) {
		return fmt.Errorf("%w: %q", shard.ErrInvalidKey, Truncate(key))
	}
	token, err := s.codec.Encode(data)
	if err != nil {
		return err
	}
	tr, err := s.server.Connect(key)
	if err != nil {
		return err
	}
	return tr.SetWithTTL(ctx, s.StoredKey(key), []byte(token), expiryAge)
}

// Delete removes key. Absent keys and transport failures are not errors.
func (s *Store) Delete(ctx context.Context, key string) error {
	if !ValidKey(key) {
		return nil
	}
	tr, err := s.server.Connect(key)
	if err != nil {
		return err
	}
	if err := tr.Delete(ctx, s.StoredKey(key)); err != nil {
		if IsTransportFailure(err) {
			s.absorb(ctx, "delete", key, err)
			return nil
		}
		return err
	}
	return nil
}

func (s *Store) absorb(ctx context.Context, op, key string, err error) {
	s.logger.WarnContext(ctx, "session store transport failure",
		slog.String("op", op),
		slog.String("key", Truncate(key)),
		slog.Any("error", err),
	)
	if s.observer != nil {
		s.observer.TransportFailure(ctx, op, key, err)
	}
}
