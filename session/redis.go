package session

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultSocketTimeout bounds dial, read and write on Redis connections.
const DefaultSocketTimeout = 100 * time.Millisecond

// RedisOptions describes a single Redis server. URL takes precedence over
// UnixSocket, which takes precedence over Addr.
type RedisOptions struct {
	Addr       string
	URL        string
	UnixSocket string
	DB         int
	Username   string
	Password   string
	// Timeout defaults to DefaultSocketTimeout.
	Timeout time.Duration
	// RetryOnTimeout enables the client's command retries. Off by default so a slow
	// shard fails fast.
	RetryOnTimeout bool
	TLS            *tls.Config
}

// SentinelOptions describes a Sentinel-managed Redis master.
type SentinelOptions struct {
	Sentinels        []string
	MasterName       string
	DB               int
	Username         string
	Password         string
	SentinelPassword string
	Timeout          time.Duration
	RetryOnTimeout   bool
	TLS              *tls.Config
}

// ClientServer is a Server backed by one go-redis client shared by all keys.
type ClientServer struct {
	client redis.UniversalClient
	owned  bool
}

// NewClientServer wraps an existing client. Close does not close it.
func NewClientServer(client redis.UniversalClient) *ClientServer {
	return &ClientServer{client: client}
}

// NewRedisServer creates the client for opts once; every Connect reuses it.
func NewRedisServer(opts RedisOptions) (*ClientServer, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultSocketTimeout
	}

	var ro *redis.Options
	switch {
	case opts.URL != "":
		parsed, err := redis.ParseURL(opts.URL)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidServer, err)
		}
		ro = parsed
	case opts.UnixSocket != "":
		ro = &redis.Options{Network: "unix", Addr: opts.UnixSocket}
	default:
		addr := opts.Addr
		if addr == "" {
			addr = "localhost:6379"
		}
		ro = &redis.Options{Addr: addr}
	}
	if opts.URL == "" {
		ro.DB = opts.DB
		ro.Username = opts.Username
		ro.Password = opts.Password
	}
	if opts.TLS != nil {
		ro.TLSConfig = opts.TLS
	}
	ro.DialTimeout = timeout
	ro.ReadTimeout = timeout
	ro.WriteTimeout = timeout
	ro.MaxRetries = maxRetries(opts.RetryOnTimeout)

	return &ClientServer{client: redis.NewClient(ro), owned: true}, nil
}

// NewRedisSentinel creates a failover client that follows the current master.
func NewRedisSentinel(opts SentinelOptions) (*ClientServer, error) {
	if len(opts.Sentinels) == 0 || opts.MasterName == "" {
		return nil, fmt.Errorf("%w: sentinel addresses and master name are required", ErrInvalidServer)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultSocketTimeout
	}
	client := redis.NewFailoverClient(&redis.FailoverOptions{
		MasterName:       opts.MasterName,
		SentinelAddrs:    opts.Sentinels,
		SentinelPassword: opts.SentinelPassword,
		DB:               opts.DB,
		Username:         opts.Username,
		Password:         opts.Password,
		DialTimeout:      timeout,
		ReadTimeout:      timeout,
		WriteTimeout:     timeout,
		MaxRetries:       maxRetries(opts.RetryOnTimeout),
		TLSConfig:        opts.TLS,
	})
	return &ClientServer{client: client, owned: true}, nil
}

func maxRetries(retry bool) int {
	if retry {
		return 0
	}
	return -1
}

// Connect implements Server.
func (s *ClientServer) Connect(string) (Transport, error) {
	return redisTransport{client: s.client}, nil
}

// Client returns the underlying client.
func (s *ClientServer) Client() redis.UniversalClient { return s.client }

// Close closes the client if this server created it.
func (s *ClientServer) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}

type redisTransport struct {
	client redis.UniversalClient
}

func (t redisTransport) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := t.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, classify("get", err)
	}
	return b, nil
}

func (t redisTransport) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return t.Delete(ctx, key)
	}
	return classify("set", t.client.Set(ctx, key, value, ttl).Err())
}

func (t redisTransport) Delete(ctx context.Context, key string) error {
	return classify("delete", t.client.Del(ctx, key).Err())
}

func (t redisTransport) Exists(ctx context.Context, key string) (bool, error) {
	n, err := t.client.Exists(ctx, key).Result()
	if err != nil {
		return false, classify("exists", err)
	}
	return n > 0, nil
}
