package goSession

import (
	"fmt"
	"time"

	"github.com/MrEthical07/goSession/codec"
)

// LintWarning is a configuration choice that is valid but risky in production.
type LintWarning struct {
	Code    string
	Message string
}

// LintResult lists the warnings produced by Config.Lint.
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	out := make([]string, len(r))
	for i, w := range r {
		out[i] = w.Code
	}
	return out
}

const lintLongLifetime = 90 * 24 * time.Hour

// Lint reports settings that pass Validate but weaken the deployment. It never fails.
func (c *Config) Lint() LintResult {
	var ws LintResult
	add := func(code, format string, args ...any) {
		ws = append(ws, LintWarning{Code: code, Message: fmt.Sprintf(format, args...)})
	}

	if !c.Cookie.Secure {
		add("cookie_not_secure", "session cookie %q is sent over plain HTTP", c.Cookie.Name)
	}
	if !c.Cookie.HTTPOnly {
		add("cookie_not_http_only", "session cookie %q is readable from scripts", c.Cookie.Name)
	}
	switch c.Codec.Signer {
	case "", codec.SignerSHA1, codec.SignerSHA256:
		add("unkeyed_signer", "signer %q detects corruption but not forgery by a store writer", c.Codec.Signer)
	}
	if c.Session.Lifetime > lintLongLifetime {
		add("lifetime_long", "session lifetime %s exceeds %s", c.Session.Lifetime, lintLongLifetime)
	}
	if len(c.Storage.Shards) == 0 && c.Storage.Memory {
		add("memory_storage", "sessions are kept in process memory and lost on restart")
	}
	if len(c.Storage.Shards) > 1 && c.Storage.CacheSize <= 0 {
		add("shard_cache_disabled", "shard selection is recomputed for every request")
	}
	if !c.Audit.Enabled {
		add("audit_disabled", "session lifecycle events are not audited")
	}
	return ws
}
