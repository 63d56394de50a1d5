// Package hsgate provides stateless bearer-token authentication: a fixed
// credential set is exchanged for a signed, time-bounded HS256 token, and the
// token is later verified on every request without any server-side lookup.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// hsgate is the endpoint-logic surface. It exposes [Engine], [Builder],
// [Config], and value types ([LoginResult], [AuthResult], [MetricsSnapshot]).
// Token encoding and signing live in package jwt, credential hashing in
// package password, and the Redis login throttle under internal/.
//
// # What this package must NOT do
//
//   - Log, audit, or return the signing secret, tokens, or passwords.
//   - Read the environment outside [ConfigFromEnv] and [LoadEnvFiles].
//   - Keep issued tokens. Tokens cannot be revoked before they expire.
//
// # Performance contract
//
// Validate is the hot path: one HMAC computation and one small JSON decode,
// with no Redis round-trips. Login pays for one argon2id verification and,
// when the throttle is enabled, up to three Redis commands.
package hsgate
