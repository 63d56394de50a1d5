// Package middleware adapts [hsgate.Engine] to net/http.
//
// # Handlers
//
//   - [Guard] validates the bearer token and stores the [hsgate.AuthResult].
//   - [RequireRole] gates a route on the authenticated role.
//   - [CORS] applies the configured allowed-origin set.
//   - [RequestID] and [ClientIP] populate the request context for audit
//     events and the login throttle.
//
// # What this package must NOT do
//
//   - Parse or create tokens directly (delegates to Engine).
//   - Tell clients why a token was rejected. Every failure is the same 401.
//   - Access Redis (Engine handles I/O).
package middleware
