package goSession

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/codec"
	"github.com/MrEthical07/goSession/shard"
)

// Config is the complete goSession configuration. Start from DefaultConfig or
// LoadConfigFile; Builder.Build validates it and keeps a private copy.
type Config struct {
	Session SessionConfig
	Cookie  CookieConfig
	Codec   CodecConfig
	Storage StorageConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls session lifetime and persistence policy.
type SessionConfig struct {
	// Lifetime applies when a session carries no expiry override.
	Lifetime time.Duration
	// ExpireAtBrowserClose issues cookies without Max-Age.
	ExpireAtBrowserClose bool
	// RefreshEachRequest saves the session (and renews its TTL) on every successful
	// request, not only when the data changed.
	RefreshEachRequest bool
	// KeyPrefix namespaces stored keys as KeyPrefix + ":" + key.
	KeyPrefix string
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig holds the attributes of the cookie that carries the session key.
// SameSite=None requires Secure.
type CookieConfig struct {
	Name     string
	Domain   string
	Path     string
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
}

/*
====================================
CODEC CONFIG
====================================
*/

// CodecConfig selects the token serializer and signer.
type CodecConfig struct {
	Serializer string // "json" (default) or "msgpack"
	Signer     string // "sha1" (default), "sha256", "hs256", "hs384", "hs512", "django14"
	// SecretKey keys the hs* and django14 signers. Never logged.
	SecretKey []byte
	// LegacySessionClass is mixed into the django14 signing key.
	LegacySessionClass string
}

/*
====================================
STORAGE CONFIG
====================================
*/

// StorageConfig describes the shards sessions are spread across.
type StorageConfig struct {
	Shards []ShardConfig
	// CacheSize bounds the shard selection cache. Zero or less disables it.
	CacheSize int
	// Memory keeps sessions in process memory when no shards are configured.
	Memory bool
}

// ShardConfig describes one Redis server or Sentinel-managed master. Exactly one of
// Addr, URL, UnixSocket or Sentinels must be set.
type ShardConfig struct {
	Weight         int
	Addr           string
	URL            string
	UnixSocket     string
	DB             int
	Username       string
	Password       string
	Timeout        time.Duration
	RetryOnTimeout bool
	TLS            bool
	Sentinels      []string
	MasterName     string
}

/*
====================================
OBSERVABILITY CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher. With DropIfFull set, events
// that do not fit in BufferSize are counted and discarded instead of blocking requests.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles the in-process counters and the load latency histogram read
// by the exporters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the configuration New starts from.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			Lifetime: 14 * 24 * time.Hour,
		},
		Cookie: CookieConfig{
			Name:     "session",
			Path:     "/",
			HTTPOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
		Codec: CodecConfig{
			Serializer: codec.SerializerJSON,
			Signer:     codec.SignerSHA1,
		},
		Storage: StorageConfig{
			CacheSize: shard.DefaultCacheSize,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Codec.SecretKey = cloneBytes(cfg.Codec.SecretKey)
	if cfg.Storage.Shards != nil {
		out.Storage.Shards = make([]ShardConfig, len(cfg.Storage.Shards))
		for i, sh := range cfg.Storage.Shards {
			sh.Sentinels = append([]string(nil), sh.Sentinels...)
			out.Storage.Shards[i] = sh
		}
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first problem found, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.Session.Lifetime <= 0 {
		return invalid("Session Lifetime must be > 0")
	}

	if c.Cookie.Name == "" || strings.ContainsAny(c.Cookie.Name, " \t\r\n;,=\"") {
		return invalid("Cookie Name must be a non-empty cookie token")
	}
	if c.Cookie.Path != "" && !strings.HasPrefix(c.Cookie.Path, "/") {
		return invalid("Cookie Path must start with '/'")
	}
	if c.Cookie.SameSite == http.SameSiteNoneMode && !c.Cookie.Secure {
		return invalid("Cookie SameSite=None requires Secure")
	}

	if _, err := codec.SerializerByName(c.Codec.Serializer); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := codec.SignerByName(c.Codec.Signer, codec.SignerOptions{
		Secret:             c.Codec.SecretKey,
		LegacySessionClass: c.Codec.LegacySessionClass,
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	total := 0
	for i, sh := range c.Storage.Shards {
		if sh.Weight < 0 {
			return invalid(fmt.Sprintf("Storage Shards[%d] Weight must be >= 0", i))
		}
		total += sh.Weight
		set := 0
		for _, s := range []string{sh.Addr, sh.URL, sh.UnixSocket} {
			if s != "" {
				set++
			}
		}
		if len(sh.Sentinels) > 0 {
			set++
			if sh.MasterName == "" {
				return invalid(fmt.Sprintf("Storage Shards[%d] Sentinels require MasterName", i))
			}
		}
		if set != 1 {
			return invalid(fmt.Sprintf("Storage Shards[%d] must set exactly one of Addr, URL, UnixSocket, Sentinels", i))
		}
		if sh.Timeout < 0 {
			return invalid(fmt.Sprintf("Storage Shards[%d] Timeout must be >= 0", i))
		}
	}
	if len(c.Storage.Shards) > 1 && total == 0 {
		return invalid("Storage Shards total weight must be > 0")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return invalid("Audit BufferSize must be > 0 when Audit is enabled")
	}

	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, msg)
}

/*
====================================
REDACTION
====================================
*/

const redacted = "[REDACTED]"

// LogValue renders the config for structured logs with secrets removed.
func (c Config) LogValue() slog.Value {
	shards := make([]any, 0, len(c.Storage.Shards))
	for _, sh := range c.Storage.Shards {
		shards = append(shards, map[string]any{
			"weight":      sh.Weight,
			"addr":        sh.Addr,
			"url":         redactURL(sh.URL),
			"unix_socket": sh.UnixSocket,
			"db":          sh.DB,
			"password":    redactIfSet(sh.Password),
			"sentinels":   sh.Sentinels,
			"master_name": sh.MasterName,
		})
	}
	return slog.GroupValue(
		slog.Duration("lifetime", c.Session.Lifetime),
		slog.Bool("expire_at_browser_close", c.Session.ExpireAtBrowserClose),
		slog.Bool("refresh_each_request", c.Session.RefreshEachRequest),
		slog.String("key_prefix", c.Session.KeyPrefix),
		slog.String("cookie_name", c.Cookie.Name),
		slog.String("serializer", c.Codec.Serializer),
		slog.String("signer", c.Codec.Signer),
		slog.String("secret_key", redactIfSet(string(c.Codec.SecretKey))),
		slog.Any("shards", shards),
		slog.Bool("memory", c.Storage.Memory),
	)
}

// String implements fmt.Stringer with secrets removed.
func (c Config) String() string {
	return fmt.Sprintf("Config{Lifetime:%s Cookie:%q Serializer:%s Signer:%s SecretKey:%s Shards:%d Memory:%t}",
		c.Session.Lifetime, c.Cookie.Name, c.Codec.Serializer, c.Codec.Signer,
		redactIfSet(string(c.Codec.SecretKey)), len(c.Storage.Shards), c.Storage.Memory)
}

func redactIfSet(s string) string {
	if s == "" {
		return ""
	}
	return redacted
}

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}
	at := strings.LastIndex(raw, "@")
	scheme := strings.Index(raw, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return raw
	}
	return raw[:scheme+3] + redacted + raw[at:]
}
