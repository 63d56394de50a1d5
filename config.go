package hsgate

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config holds everything the Engine needs. It is injected once at build time;
// the Engine never reads the environment itself.
type Config struct {
	JWT         JWTConfig
	Password    PasswordConfig
	Security    SecurityConfig
	CORS        CORSConfig
	Audit       AuditConfig
	Metrics     MetricsConfig
	Credentials map[string]Credential
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig carries the HMAC secret and token lifetime.
type JWTConfig struct {
	Secret   []byte
	TokenTTL time.Duration
}

// TTLSeconds returns TokenTTL in whole seconds.
func (c JWTConfig) TTLSeconds() int64 {
	return int64(c.TokenTTL / time.Second)
}

/*
====================================
CREDENTIALS
====================================
*/

// Credential is one entry of the fixed username → credential map.
type Credential struct {
	Password string
	Role     string
}

// PasswordConfig tunes the argon2id hashing applied to configured credentials.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig controls the Redis-backed login throttle. The throttle is
// only active when the Engine is built with a Redis client.
type SecurityConfig struct {
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
	EnableIPThrottle      bool
	RedisPrefix           string
}

/*
====================================
CORS CONFIG
====================================
*/

// CORSConfig lists the origins allowed to call the HTTP surface.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters and the validate latency histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns production defaults. Secret and Credentials must
// still be supplied by the caller.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			TokenTTL: 15 * time.Minute,
		},
		Password: PasswordConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Security: SecurityConfig{
			MaxLoginAttempts:      5,
			LoginCooldownDuration: 15 * time.Minute,
			EnableIPThrottle:      false,
			RedisPrefix:           "hl",
		},
		CORS: CORSConfig{
			MaxAge: 10 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	if cfg.CORS.AllowedOrigins != nil {
		out.CORS.AllowedOrigins = append([]string(nil), cfg.CORS.AllowedOrigins...)
	}
	if cfg.Credentials != nil {
		out.Credentials = make(map[string]Credential, len(cfg.Credentials))
		for k, v := range cfg.Credentials {
			out.Credentials[k] = v
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

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if len(c.JWT.Secret) == 0 {
		return errors.New("JWT Secret must not be empty")
	}
	if c.JWT.TokenTTL < time.Second {
		return errors.New("JWT TokenTTL must be >= 1s")
	}

	if len(c.Credentials) == 0 {
		return errors.New("at least one credential must be configured")
	}
	for username, cred := range c.Credentials {
		if strings.TrimSpace(username) == "" {
			return errors.New("credential map contains empty username")
		}
		if cred.Password == "" {
			return fmt.Errorf("credential %q has empty password", username)
		}
		if strings.TrimSpace(cred.Role) == "" {
			return fmt.Errorf("credential %q has empty role", username)
		}
	}

	if c.Security.MaxLoginAttempts <= 0 {
		return errors.New("Security MaxLoginAttempts must be > 0")
	}
	if c.Security.LoginCooldownDuration <= 0 {
		return errors.New("Security LoginCooldownDuration must be > 0")
	}
	if strings.TrimSpace(c.Security.RedisPrefix) == "" {
		return errors.New("Security RedisPrefix must not be empty")
	}

	for _, origin := range c.CORS.AllowedOrigins {
		if origin == "*" && c.CORS.AllowCredentials {
			return errors.New("CORS wildcard origin cannot be combined with AllowCredentials")
		}
	}
	if c.CORS.MaxAge < 0 {
		return errors.New("CORS MaxAge must be >= 0")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
