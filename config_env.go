package hsgate

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvConfig is the environment representation of [Config]. HSGATE_SECRET is
// removed from the process environment once read.
type EnvConfig struct {
	Secret           string        `env:"HSGATE_SECRET,required,notEmpty,unset"`
	TokenTTLSeconds  int64         `env:"HSGATE_TOKEN_TTL" envDefault:"900"`
	Users            []string      `env:"HSGATE_USERS" envSeparator:","`
	AllowedOrigins   []string      `env:"HSGATE_ALLOWED_ORIGINS" envSeparator:","`
	AllowCredentials bool          `env:"HSGATE_CORS_ALLOW_CREDENTIALS"`
	CORSMaxAge       time.Duration `env:"HSGATE_CORS_MAX_AGE" envDefault:"10m"`

	MaxLoginAttempts int           `env:"HSGATE_MAX_LOGIN_ATTEMPTS" envDefault:"5"`
	LoginCooldown    time.Duration `env:"HSGATE_LOGIN_COOLDOWN" envDefault:"15m"`
	IPThrottle       bool          `env:"HSGATE_IP_THROTTLE" envDefault:"false"`
	RedisPrefix      string        `env:"HSGATE_REDIS_PREFIX" envDefault:"hl"`

	AuditEnabled      bool `env:"HSGATE_AUDIT_ENABLED" envDefault:"false"`
	AuditBufferSize   int  `env:"HSGATE_AUDIT_BUFFER" envDefault:"1024"`
	MetricsEnabled    bool `env:"HSGATE_METRICS_ENABLED" envDefault:"true"`
	LatencyHistograms bool `env:"HSGATE_LATENCY_HISTOGRAMS" envDefault:"false"`
}

// LoadEnvFiles loads dotenv files into the process environment without
// overriding variables that are already set. Missing files are ignored.
// With no arguments ".env" is tried.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ConfigFromEnv builds a Config from the process environment, starting
// from [DefaultConfig]. The result still has to pass [Config.Validate],
// which Build runs.
func ConfigFromEnv() (Config, error) {
	return parseConfigEnv(env.Options{})
}

func parseConfigEnv(opts env.Options) (Config, error) {
	var ec EnvConfig
	if err := env.ParseWithOptions(&ec, opts); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return ec.Config()
}

// Config converts the parsed environment into a Config.
func (ec EnvConfig) Config() (Config, error) {
	cfg := defaultConfig()

	cfg.JWT.Secret = []byte(ec.Secret)
	cfg.JWT.TokenTTL = time.Duration(ec.TokenTTLSeconds) * time.Second

	creds, err := ParseUsers(ec.Users)
	if err != nil {
		return Config{}, err
	}
	cfg.Credentials = creds

	cfg.CORS.AllowedOrigins = trimNonEmpty(ec.AllowedOrigins)
	cfg.CORS.AllowCredentials = ec.AllowCredentials
	cfg.CORS.MaxAge = ec.CORSMaxAge

	cfg.Security.MaxLoginAttempts = ec.MaxLoginAttempts
	cfg.Security.LoginCooldownDuration = ec.LoginCooldown
	cfg.Security.EnableIPThrottle = ec.IPThrottle
	cfg.Security.RedisPrefix = ec.RedisPrefix

	cfg.Audit.Enabled = ec.AuditEnabled
	cfg.Audit.BufferSize = ec.AuditBufferSize
	cfg.Metrics.Enabled = ec.MetricsEnabled
	cfg.Metrics.EnableLatencyHistograms = ec.LatencyHistograms

	return cfg, nil
}

// ParseUsers parses "username:password:role" entries. The username ends at
// the first colon and the role starts after the last one, so passwords may
// contain colons.
func ParseUsers(entries []string) (map[string]Credential, error) {
	out := make(map[string]Credential, len(entries))
	for _, raw := range entries {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}

		first := strings.IndexByte(entry, ':')
		last := strings.LastIndexByte(entry, ':')
		if first <= 0 || last == first || last == len(entry)-1 {
			return nil, fmt.Errorf("malformed user entry %q: want username:password:role", redactEntry(entry))
		}

		username := entry[:first]
		if _, dup := out[username]; dup {
			return nil, fmt.Errorf("duplicate user %q", username)
		}
		out[username] = Credential{
			Password: entry[first+1 : last],
			Role:     entry[last+1:],
		}
	}
	return out, nil
}

// redactEntry keeps only the username part of a user entry for messages.
func redactEntry(entry string) string {
	if i := strings.IndexByte(entry, ':'); i >= 0 {
		return entry[:i] + ":***"
	}
	return entry
}

func trimNonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
