package goSession

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config for YAML. Pointer fields distinguish "absent" from the
// zero value so absent keys keep their defaults.
type fileConfig struct {
	Session struct {
		Lifetime             *time.Duration `yaml:"lifetime"`
		ExpireAtBrowserClose *bool          `yaml:"expire_at_browser_close"`
		RefreshEachRequest   *bool          `yaml:"refresh_each_request"`
		KeyPrefix            *string        `yaml:"key_prefix"`
	} `yaml:"session"`
	Cookie struct {
		Name     *string `yaml:"name"`
		Domain   *string `yaml:"domain"`
		Path     *string `yaml:"path"`
		Secure   *bool   `yaml:"secure"`
		HTTPOnly *bool   `yaml:"http_only"`
		SameSite *string `yaml:"same_site"`
	} `yaml:"cookie"`
	Codec struct {
		Serializer         *string `yaml:"serializer"`
		Signer             *string `yaml:"signer"`
		SecretKeyEnv       string  `yaml:"secret_key_env"`
		LegacySessionClass *string `yaml:"legacy_session_class"`
	} `yaml:"codec"`
	Storage struct {
		Shards    []fileShard `yaml:"shards"`
		CacheSize *int        `yaml:"cache_size"`
		Memory    *bool       `yaml:"memory"`
	} `yaml:"storage"`
	Audit struct {
		Enabled    *bool `yaml:"enabled"`
		BufferSize *int  `yaml:"buffer_size"`
		DropIfFull *bool `yaml:"drop_if_full"`
	} `yaml:"audit"`
	Metrics struct {
		Enabled                 *bool `yaml:"enabled"`
		EnableLatencyHistograms *bool `yaml:"latency_histograms"`
	} `yaml:"metrics"`
}

type fileShard struct {
	Weight         *int          `yaml:"weight"`
	Addr           string        `yaml:"addr"`
	URL            string        `yaml:"url"`
	UnixSocket     string        `yaml:"unix_socket"`
	DB             int           `yaml:"db"`
	Username       string        `yaml:"username"`
	PasswordEnv    string        `yaml:"password_env"`
	Timeout        time.Duration `yaml:"timeout"`
	RetryOnTimeout bool          `yaml:"retry_on_timeout"`
	TLS            bool          `yaml:"tls"`
	Sentinels      []string      `yaml:"sentinels"`
	MasterName     string        `yaml:"master_name"`
}

// LoadConfigFile reads a YAML config file on top of DefaultConfig and validates it.
// Secrets never live in the file: codec.secret_key_env and shards[].password_env
// name environment variables holding them.
func LoadConfigFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return ParseConfig(raw, os.LookupEnv)
}

// ParseConfig decodes YAML config bytes. lookupEnv resolves the *_env indirections.
func ParseConfig(raw []byte, lookupEnv func(string) (string, bool)) (Config, error) {
	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	cfg := defaultConfig()

	setDuration(&cfg.Session.Lifetime, fc.Session.Lifetime)
	setBool(&cfg.Session.ExpireAtBrowserClose, fc.Session.ExpireAtBrowserClose)
	setBool(&cfg.Session.RefreshEachRequest, fc.Session.RefreshEachRequest)
	setString(&cfg.Session.KeyPrefix, fc.Session.KeyPrefix)

	setString(&cfg.Cookie.Name, fc.Cookie.Name)
	setString(&cfg.Cookie.Domain, fc.Cookie.Domain)
	setString(&cfg.Cookie.Path, fc.Cookie.Path)
	setBool(&cfg.Cookie.Secure, fc.Cookie.Secure)
	setBool(&cfg.Cookie.HTTPOnly, fc.Cookie.HTTPOnly)
	if fc.Cookie.SameSite != nil {
		mode, err := parseSameSite(*fc.Cookie.SameSite)
		if err != nil {
			return Config{}, err
		}
		cfg.Cookie.SameSite = mode
	}

	setString(&cfg.Codec.Serializer, fc.Codec.Serializer)
	setString(&cfg.Codec.Signer, fc.Codec.Signer)
	setString(&cfg.Codec.LegacySessionClass, fc.Codec.LegacySessionClass)
	if name := fc.Codec.SecretKeyEnv; name != "" {
		secret, ok := lookupEnv(name)
		if !ok || secret == "" {
			return Config{}, fmt.Errorf("%w: %s", ErrSecretEnvUnset, name)
		}
		cfg.Codec.SecretKey = []byte(secret)
	}

	for i, fs := range fc.Storage.Shards {
		sh := ShardConfig{
			Weight:         1,
			Addr:           fs.Addr,
			URL:            fs.URL,
			UnixSocket:     fs.UnixSocket,
			DB:             fs.DB,
			Username:       fs.Username,
			Timeout:        fs.Timeout,
			RetryOnTimeout: fs.RetryOnTimeout,
			TLS:            fs.TLS,
			Sentinels:      fs.Sentinels,
			MasterName:     fs.MasterName,
		}
		if fs.Weight != nil {
			sh.Weight = *fs.Weight
		}
		if fs.PasswordEnv != "" {
			pw, ok := lookupEnv(fs.PasswordEnv)
			if !ok {
				return Config{}, fmt.Errorf("%w: shards[%d]: %s", ErrSecretEnvUnset, i, fs.PasswordEnv)
			}
			sh.Password = pw
		}
		cfg.Storage.Shards = append(cfg.Storage.Shards, sh)
	}
	setInt(&cfg.Storage.CacheSize, fc.Storage.CacheSize)
	setBool(&cfg.Storage.Memory, fc.Storage.Memory)

	setBool(&cfg.Audit.Enabled, fc.Audit.Enabled)
	setInt(&cfg.Audit.BufferSize, fc.Audit.BufferSize)
	setBool(&cfg.Audit.DropIfFull, fc.Audit.DropIfFull)

	setBool(&cfg.Metrics.Enabled, fc.Metrics.Enabled)
	setBool(&cfg.Metrics.EnableLatencyHistograms, fc.Metrics.EnableLatencyHistograms)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return http.SameSiteDefaultMode, nil
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("%w: unknown cookie same_site %q", ErrInvalidConfig, s)
	}
}

func setDuration(dst *time.Duration, v *time.Duration) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
