package hsgate

import (
	"context"
	"errors"

	"github.com/hsgate/hsgate/jwt"
)

const (
	auditEventLoginSuccess       = "login_success"
	auditEventLoginFailure       = "login_failure"
	auditEventLoginRateLimited   = "login_rate_limited"
	auditEventTokenRejected      = "token_rejected"
	auditEventAuthorizeDenied    = "authorize_denied"
	auditEventRateLimitTriggered = "rate_limit_triggered"
)

// AuditErrorCode is the stable, non-sensitive reason attached to a failed
// audit event.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrMalformedToken     AuditErrorCode = "malformed_token"
	auditErrBadSignature       AuditErrorCode = "bad_signature"
	auditErrExpiredToken       AuditErrorCode = "expired_token"
	auditErrForbidden          AuditErrorCode = "forbidden"
	auditErrUnauthorized       AuditErrorCode = "unauthorized"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	subject string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		EventType: eventType,
		Subject:   subject,
		RequestID: RequestIDFromContext(ctx),
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func (e *Engine) emitRateLimit(ctx context.Context, scope string, subject string) {
	e.metricInc(MetricRateLimitHit)
	e.emitAudit(ctx, auditEventRateLimitTriggered, false, subject, ErrLoginRateLimited, func() map[string]string {
		return map[string]string{"scope": scope}
	})
}

// The order matters: Validate errors wrap both ErrUnauthorized and the
// core kind, and the core kind is the more useful code.
func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrLoginRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrLimiterUnavailable):
		return auditErrUnavailable
	case errors.Is(err, jwt.ErrExpiredToken):
		return auditErrExpiredToken
	case errors.Is(err, jwt.ErrBadSignature):
		return auditErrBadSignature
	case errors.Is(err, jwt.ErrMalformedToken), errors.Is(err, jwt.ErrDecode):
		return auditErrMalformedToken
	case errors.Is(err, ErrForbidden):
		return auditErrForbidden
	case errors.Is(err, ErrUnauthorized):
		return auditErrUnauthorized
	default:
		return auditErrInternal
	}
}
