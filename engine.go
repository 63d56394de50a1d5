package hsgate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hsgate/hsgate/internal/rate"
	"github.com/hsgate/hsgate/jwt"
	"github.com/sirupsen/logrus"
)

// Engine is the auth endpoint logic: it checks credentials, issues tokens,
// and validates bearer tokens presented by clients.
//
// An Engine is immutable after [Builder.Build] and safe for concurrent use.
// Token work is delegated to package jwt, which keeps no state; the Engine
// only holds its own copy of the configured secret.
type Engine struct {
	config      Config
	secret      []byte
	ttlSeconds  int64
	credentials *credentialStore
	limiter     *rate.Limiter
	audit       *auditDispatcher
	metrics     *Metrics
	logger      logrus.FieldLogger
	now         func() time.Time
}

// Close flushes pending audit events. The Engine must not be used afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Metrics exposes the live counters for exporters.
func (e *Engine) Metrics() *Metrics {
	if e == nil {
		return nil
	}
	return e.metrics
}

// TokenTTL is the lifetime given to tokens issued by Login.
func (e *Engine) TokenTTL() time.Duration {
	if e == nil {
		return 0
	}
	return e.config.JWT.TokenTTL
}

// LoginCooldown is how long a throttled username stays blocked.
func (e *Engine) LoginCooldown() time.Duration {
	if e == nil {
		return 0
	}
	return e.config.Security.LoginCooldownDuration
}

// LimiterEnabled reports whether the Redis login throttle is active.
func (e *Engine) LimiterEnabled() bool {
	return e != nil && e.limiter != nil
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Login checks username and password against the configured credential set
// and, on success, issues a token carrying sub and role claims.
//
// Wrong passwords and unknown usernames both return ErrInvalidCredentials.
// When the login throttle is active, ErrLoginRateLimited or
// ErrLimiterUnavailable may be returned before credentials are checked.
func (e *Engine) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if e == nil || e.credentials == nil || len(e.secret) == 0 {
		return nil, ErrEngineNotReady
	}

	ip := clientIPFromContext(ctx)
	log := e.logger.WithField("subject", username)

	if e.limiter != nil {
		if err := e.limiter.Check(ctx, username, ip); err != nil {
			return nil, e.loginLimited(ctx, username, err)
		}
	}

	if password == "" {
		return nil, e.loginFailed(ctx, username, ip)
	}

	role, ok, err := e.credentials.verify(username, password)
	if err != nil {
		log.WithError(err).Error("credential verification failed")
		e.emitAudit(ctx, auditEventLoginFailure, false, username, err, nil)
		return nil, fmt.Errorf("verify credentials: %w", err)
	}
	if !ok {
		return nil, e.loginFailed(ctx, username, ip)
	}

	issued, err := jwt.IssueAt(e.secret, jwt.Claims{
		jwt.ClaimSubject: username,
		jwt.ClaimRole:    role,
	}, e.ttlSeconds, e.now())
	if err != nil {
		log.WithError(err).Error("token issuance failed")
		e.emitAudit(ctx, auditEventLoginFailure, false, username, err, nil)
		return nil, fmt.Errorf("issue token: %w", err)
	}

	if e.limiter != nil {
		if err := e.limiter.Reset(ctx, username); err != nil {
			log.WithError(err).Warn("login throttle reset failed")
		}
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, username, nil, func() map[string]string {
		return map[string]string{"role": role}
	})
	log.WithField("role", role).Info("login succeeded")

	exp, _ := issued.Claims.ExpiresAt()
	return &LoginResult{
		Token:     issued.Token,
		ExpiresAt: time.Unix(exp, 0).UTC(),
		Claims:    issued.Claims,
	}, nil
}

func (e *Engine) loginFailed(ctx context.Context, username, ip string) error {
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, username, ErrInvalidCredentials, nil)
	e.logger.WithField("subject", username).Info("login failed")

	if e.limiter != nil {
		if err := e.limiter.RecordFailure(ctx, username, ip); err != nil {
			return e.loginLimited(ctx, username, err)
		}
	}
	return ErrInvalidCredentials
}

// loginLimited maps a limiter error to the public error. A throttle backend
// that cannot be reached fails closed.
func (e *Engine) loginLimited(ctx context.Context, username string, err error) error {
	if errors.Is(err, rate.ErrRedisUnavailable) {
		e.logger.WithError(err).Error("login throttle unavailable")
		e.emitAudit(ctx, auditEventLoginRateLimited, false, username, ErrLimiterUnavailable, nil)
		return ErrLimiterUnavailable
	}

	e.metricInc(MetricLoginRateLimited)
	e.emitAudit(ctx, auditEventLoginRateLimited, false, username, ErrLoginRateLimited, nil)
	e.emitRateLimit(ctx, "login", username)
	e.logger.WithField("subject", username).Warn("login rate limited")
	return ErrLoginRateLimited
}

// Validate verifies a bearer token and returns the authenticated identity.
//
// Every rejection is returned as ErrUnauthorized wrapping the underlying
// jwt error kind, so callers may match either. HTTP handlers should not
// expose the kind to clients.
func (e *Engine) Validate(ctx context.Context, token string) (*AuthResult, error) {
	if e == nil || len(e.secret) == 0 {
		return nil, ErrEngineNotReady
	}

	if e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			e.metrics.Observe(MetricValidateLatency, time.Since(start))
		}()
	}

	claims, err := jwt.VerifyAt(e.secret, token, e.now())
	if err != nil {
		e.metricInc(rejectionMetric(err))
		e.emitAudit(ctx, auditEventTokenRejected, false, "", err, nil)
		e.logger.WithField("reason", string(auditErrorCode(err))).Debug("token rejected")
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	e.metricInc(MetricValidateSuccess)

	return &AuthResult{
		Subject:   claims.Subject(),
		Role:      claims.Role(),
		IssuedAt:  claimTime(claims, jwt.ClaimIssuedAt),
		ExpiresAt: claimTime(claims, jwt.ClaimExpiresAt),
		Claims:    claims,
	}, nil
}

// Authorize returns ErrForbidden unless result carries one of roles.
// With no roles given, any authenticated result is allowed.
func (e *Engine) Authorize(ctx context.Context, result *AuthResult, roles ...string) error {
	if result == nil {
		return ErrUnauthorized
	}
	if len(roles) == 0 || result.HasRole(roles...) {
		return nil
	}

	e.metricInc(MetricAuthorizeDenied)
	e.emitAudit(ctx, auditEventAuthorizeDenied, false, result.Subject, ErrForbidden, func() map[string]string {
		return map[string]string{"role": result.Role}
	})
	return ErrForbidden
}

func rejectionMetric(err error) MetricID {
	switch {
	case errors.Is(err, jwt.ErrBadSignature):
		return MetricValidateBadSignature
	case errors.Is(err, jwt.ErrExpiredToken):
		return MetricValidateExpired
	default:
		return MetricValidateMalformed
	}
}

func claimTime(claims jwt.Claims, key string) time.Time {
	sec, ok := claims.Int64(key)
	if !ok {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
