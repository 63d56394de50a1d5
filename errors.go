package hsgate

import "errors"

var (
	// ErrUnauthorized wraps every token rejection returned by Engine.Validate.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned by Engine.Authorize when the role is not allowed.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials is returned for an unknown username or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLoginRateLimited is returned when the login throttle denies the attempt.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrLimiterUnavailable is returned when the login throttle backend cannot be reached.
	ErrLimiterUnavailable = errors.New("login limiter unavailable")
	// ErrEngineNotReady is returned when a nil or partially built Engine is used.
	ErrEngineNotReady = errors.New("engine not initialized")
)
