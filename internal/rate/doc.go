// Package rate implements the Redis-backed failed-login throttle.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key layout,
// with the configured prefix (default "hl"):
//   - <prefix>:<username>   failed logins per username
//   - <prefix>i:<ip>        failed logins per client IP
//
// A counter that has reached MaxAttempts blocks further attempts until its
// window expires.
package rate
