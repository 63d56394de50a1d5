// Package httpapi is the HTTP surface of hsgate: POST /login exchanges
// credentials for a bearer token, GET /me and GET /secret require one.
//
// Token rejections are always answered with the same 401 body. Login
// failures distinguish only bad credentials (401), throttling (429) and an
// unreachable throttle backend (503).
package httpapi
