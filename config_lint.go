package hsgate

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// LintSeverity ranks a configuration warning.
type LintSeverity int

const (
	LintInfo LintSeverity = iota
	LintWarn
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return fmt.Sprintf("LintSeverity(%d)", int(s))
	}
}

// LintWarning is one finding from [Config.Lint]. Messages never include
// secret or password values.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult is the ordered list of findings.
type LintResult []LintWarning

func (r LintResult) Codes() []string {
	out := make([]string, 0, len(r))
	for _, w := range r {
		out = append(out, w.Code)
	}
	return out
}

// AsError joins every warning at or above min into one error, or returns nil.
func (r LintResult) AsError(min LintSeverity) error {
	var errs []error
	for _, w := range r {
		if w.Severity >= min {
			errs = append(errs, fmt.Errorf("%s [%s]: %s", w.Code, w.Severity, w.Message))
		}
	}
	return errors.Join(errs...)
}

const (
	lintMaxTokenTTL      = 24 * time.Hour
	lintMinArgon2Memory  = 19 * 1024
	lintMinPasswordBytes = 8
)

// Lint reports settings that are valid but risky. Unlike Validate it never
// blocks Build; callers decide what to do with the result.
func (c *Config) Lint() LintResult {
	var ws LintResult
	add := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	if n := len(c.JWT.Secret); n > 0 && n < minRecommendedSecretLen {
		add("secret_short", LintHigh, fmt.Sprintf("JWT secret is %d bytes; use at least %d random bytes", n, minRecommendedSecretLen))
	}
	if c.JWT.TokenTTL > lintMaxTokenTTL {
		add("token_ttl_long", LintWarn, fmt.Sprintf("TokenTTL %s exceeds %s and tokens cannot be revoked", c.JWT.TokenTTL, lintMaxTokenTTL))
	}
	if c.Password.Memory < lintMinArgon2Memory {
		add("argon2_memory_low", LintWarn, fmt.Sprintf("argon2 memory %d KB is below %d KB", c.Password.Memory, lintMinArgon2Memory))
	}
	usernames := make([]string, 0, len(c.Credentials))
	for username := range c.Credentials {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)
	for _, username := range usernames {
		if len(c.Credentials[username].Password) < lintMinPasswordBytes {
			add("password_short", LintWarn, fmt.Sprintf("credential %q has a password shorter than %d bytes", username, lintMinPasswordBytes))
		}
	}
	for _, origin := range c.CORS.AllowedOrigins {
		if origin == "*" {
			add("cors_wildcard", LintWarn, "CORS allows any origin")
			break
		}
		if strings.HasPrefix(origin, "http://") && !strings.Contains(origin, "localhost") && !strings.Contains(origin, "127.0.0.1") {
			add("cors_insecure_origin", LintInfo, fmt.Sprintf("CORS origin %q is not https", origin))
		}
	}
	if !c.Security.EnableIPThrottle {
		add("ip_throttle_disabled", LintInfo, "per-IP login throttle is disabled")
	}
	if !c.Audit.Enabled {
		add("audit_disabled", LintInfo, "audit events are disabled")
	}

	return ws
}
