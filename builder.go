package goSession

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/MrEthical07/goSession/codec"
	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles a Manager from a Config plus optional overrides for the Redis
// client, storage, logger and audit sink. Configure it, call Build once, discard it.
type Builder struct {
	config  Config
	server  session.Server
	storage session.Storage
	logger  *slog.Logger

	auditSink AuditSink

	built bool
}

// New returns a Builder starting from DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the configuration. The config is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithServer uses srv instead of the configured shards. The Manager does not close it.
func (b *Builder) WithServer(srv session.Server) *Builder {
	b.server = srv
	return b
}

// WithRedisClient stores sessions in an existing client. The Manager does not close it.
func (b *Builder) WithRedisClient(client redis.UniversalClient) *Builder {
	if client == nil {
		b.server = nil
		return b
	}
	b.server = session.NewClientServer(client)
	return b
}

// WithStorage bypasses the built-in store entirely. Codec, key prefix and transport
// failure reporting are then the storage's own business.
func (b *Builder) WithStorage(s session.Storage) *Builder {
	b.storage = s
	return b
}

// WithLogger sets the logger. Without one, nothing is logged.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithAuditSink sets the destination for audit events. It has no effect unless
// Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles in-process metrics.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the load latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and assembles a Manager. A Builder can be built
// once.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	m := &Manager{
		config:  cfg,
		metrics: NewMetrics(cfg.Metrics),
		logger:  logger,
		now:     time.Now,
	}
	m.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	storage, err := b.buildStorage(cfg, m)
	if err != nil {
		m.Close()
		return nil, err
	}
	m.storage = storage

	b.built = true
	logger.Debug("session manager built", slog.Any("config", cfg))
	for _, w := range cfg.Lint() {
		logger.Warn("session config lint", slog.String("code", w.Code), slog.String("detail", w.Message))
	}
	return m, nil
}

func (b *Builder) buildStorage(cfg Config, m *Manager) (session.Storage, error) {
	if b.storage != nil {
		return b.storage, nil
	}

	c, err := buildCodec(cfg.Codec)
	if err != nil {
		return nil, err
	}

	server := b.server
	if server == nil {
		server, err = buildServer(cfg.Storage, m)
		if err != nil {
			return nil, err
		}
	}

	return session.NewStore(server,
		session.WithCodec(c),
		session.WithPrefix(cfg.Session.KeyPrefix),
		session.WithLogger(m.logger),
		session.WithObserver(session.ObserverFunc(m.transportFailure)),
	), nil
}

func buildCodec(cfg CodecConfig) (*codec.Codec, error) {
	ser, err := codec.SerializerByName(cfg.Serializer)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	sig, err := codec.SignerByName(cfg.Signer, codec.SignerOptions{
		Secret:             cloneBytes(cfg.SecretKey),
		LegacySessionClass: cfg.LegacySessionClass,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return codec.New(ser, sig), nil
}

// buildServer turns the shard list into a Server. Servers it creates are registered
// with m so Close releases them.
func buildServer(cfg StorageConfig, m *Manager) (session.Server, error) {
	switch len(cfg.Shards) {
	case 0:
		if cfg.Memory {
			return session.NewMemoryServer(), nil
		}
		return nil, ErrNoStorage
	case 1:
		srv, err := shardServer(cfg.Shards[0])
		if err != nil {
			return nil, err
		}
		m.closers = append(m.closers, srv)
		return srv, nil
	}

	members := make([]session.WeightedServer, 0, len(cfg.Shards))
	for i, sh := range cfg.Shards {
		srv, err := shardServer(sh)
		if err != nil {
			closeAll(members)
			return nil, fmt.Errorf("shard %d: %w", i, err)
		}
		members = append(members, session.WeightedServer{Weight: sh.Weight, Server: srv})
	}
	pool, err := session.NewPool(cfg.CacheSize, members...)
	if err != nil {
		closeAll(members)
		return nil, err
	}
	m.closers = append(m.closers, pool)
	return pool, nil
}

func shardServer(sh ShardConfig) (*session.ClientServer, error) {
	if len(sh.Sentinels) > 0 {
		return session.NewRedisSentinel(session.SentinelOptions{
			Sentinels:      sh.Sentinels,
			MasterName:     sh.MasterName,
			DB:             sh.DB,
			Username:       sh.Username,
			Password:       sh.Password,
			Timeout:        sh.Timeout,
			RetryOnTimeout: sh.RetryOnTimeout,
			TLS:            tlsConfig(sh.TLS, ""),
		})
	}
	return session.NewRedisServer(session.RedisOptions{
		Addr:           sh.Addr,
		URL:            sh.URL,
		UnixSocket:     sh.UnixSocket,
		DB:             sh.DB,
		Username:       sh.Username,
		Password:       sh.Password,
		Timeout:        sh.Timeout,
		RetryOnTimeout: sh.RetryOnTimeout,
		TLS:            tlsConfig(sh.TLS && sh.URL == "", sh.Addr),
	})
}

// tlsConfig returns nil when enabled is false. rediss:// URLs configure TLS themselves.
func tlsConfig(enabled bool, addr string) *tls.Config {
	if !enabled {
		return nil
	}
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		cfg.ServerName = host
	}
	return cfg
}

func closeAll(members []session.WeightedServer) {
	for _, ws := range members {
		if c, ok := ws.Server.(io.Closer); ok {
			_ = c.Close()
		}
	}
}

// transportFailure is the store observer: one metric and one audit event per
// absorbed failure.
func (m *Manager) transportFailure(ctx context.Context, op, key string, err error) {
	m.metrics.Inc(MetricTransportFailure)
	m.emitAudit(ctx, AuditTransportFailure, key, false, err, map[string]string{"op": op})
}
