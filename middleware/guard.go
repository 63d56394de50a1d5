package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/hsgate/hsgate"
)

type authResultContextKey struct{}

// AuthResultFromContext returns the identity stored by [Guard].
func AuthResultFromContext(ctx context.Context) (*hsgate.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*hsgate.AuthResult)
	return res, ok && res != nil
}

// WithAuthResult stores res in ctx the way Guard does.
func WithAuthResult(ctx context.Context, res *hsgate.AuthResult) context.Context {
	return context.WithValue(ctx, authResultContextKey{}, res)
}

// Guard rejects requests without a valid bearer token. Every failure gets
// the same 401 body so clients cannot tell a bad signature from an expired
// or malformed token.
func Guard(engine *hsgate.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				Unauthorized(w)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				Unauthorized(w)
				return
			}

			res, err := engine.Validate(r.Context(), token)
			if err != nil {
				Unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAuthResult(r.Context(), res)))
		})
	}
}

// RequireRole must run after Guard. It responds 403 when the authenticated
// role is not one of roles.
func RequireRole(engine *hsgate.Engine, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, ok := AuthResultFromContext(r.Context())
			if !ok {
				Unauthorized(w)
				return
			}
			if err := engine.Authorize(r.Context(), res, roles...); err != nil {
				Forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
