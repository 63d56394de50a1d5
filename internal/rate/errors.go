package rate

import "errors"

var (
	// ErrRateLimited is returned when a counter is over budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps any Redis transport or command failure.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
