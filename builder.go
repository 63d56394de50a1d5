package hsgate

import (
	"errors"
	"io"
	"time"

	"github.com/hsgate/hsgate/internal/rate"
	"github.com/hsgate/hsgate/password"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// minRecommendedSecretLen is the HMAC-SHA256 block-equivalent key size.
// Shorter secrets are accepted but logged.
const minRecommendedSecretLen = 32

// Builder assembles an [Engine]. A Builder may be used for one Build call.
type Builder struct {
	config    Config
	redis     redis.UniversalClient
	auditSink AuditSink
	logger    logrus.FieldLogger
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration. cfg is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis enables the login throttle backed by client. Without it the
// Engine runs with no throttle.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the operational logger. The default discards everything.
func (b *Builder) WithLogger(logger logrus.FieldLogger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// withClock overrides the time source used for issuing and verifying.
func (b *Builder) withClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration, hashes the configured credentials,
// and returns a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}
	logger = logger.WithField("component", "hsgate")

	if len(cfg.JWT.Secret) < minRecommendedSecretLen {
		logger.WithField("secret_len", len(cfg.JWT.Secret)).
			Warn("JWT secret is shorter than 32 bytes")
	}

	hasher, err := password.NewHasher(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	creds, err := newCredentialStore(hasher, cfg.Credentials)
	if err != nil {
		return nil, err
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	engine := &Engine{
		secret:      cloneBytes(cfg.JWT.Secret),
		ttlSeconds:  cfg.JWT.TTLSeconds(),
		credentials: creds,
		logger:      logger,
		now:         now,
	}

	// Plaintext passwords are not kept past this point.
	cfg.Credentials = nil
	engine.config = cfg

	if b.redis != nil {
		engine.limiter = rate.New(b.redis, rate.Config{
			Prefix:           cfg.Security.RedisPrefix,
			EnableIPThrottle: cfg.Security.EnableIPThrottle,
			MaxAttempts:      cfg.Security.MaxLoginAttempts,
			Cooldown:         cfg.Security.LoginCooldownDuration,
		})
	}
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	logger.WithFields(logrus.Fields{
		"credentials": creds.size(),
		"ttl_seconds": engine.ttlSeconds,
		"throttle":    engine.limiter != nil,
		"audit":       cfg.Audit.Enabled,
		"metrics":     cfg.Metrics.Enabled,
	}).Info("engine built")

	b.built = true

	return engine, nil
}
