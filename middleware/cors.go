package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/hsgate/hsgate"
)

var (
	corsAllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	corsAllowHeaders = []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"}
)

// CORS applies the allowed-origin set from cfg. Requests from origins not in
// the set get no CORS headers, and their preflights are refused with 403.
// An empty set allows no cross-origin callers; "*" allows any.
func CORS(cfg hsgate.CORSConfig) func(http.Handler) http.Handler {
	allowMethods := strings.Join(corsAllowMethods, ",")
	allowHeaders := strings.Join(corsAllowHeaders, ",")
	maxAge := int(cfg.MaxAge.Seconds())

	allowOrigins := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		allowOrigins[strings.TrimRight(origin, "/")] = true
	}
	wildcard := allowOrigins["*"]

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			headers := w.Header()
			headers.Add("Vary", "Origin")

			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			var allowedOrigin string
			switch {
			case allowOrigins[origin]:
				allowedOrigin = origin
			case wildcard:
				allowedOrigin = "*"
			}

			isPreflight := r.Method == http.MethodOptions &&
				r.Header.Get("Access-Control-Request-Method") != ""

			if isPreflight {
				headers.Add("Vary", "Access-Control-Request-Method")
				headers.Add("Vary", "Access-Control-Request-Headers")

				requestMethod := r.Header.Get("Access-Control-Request-Method")
				if allowedOrigin == "" || !slices.Contains(corsAllowMethods, requestMethod) {
					w.WriteHeader(http.StatusForbidden)
					return
				}

				headers.Set("Access-Control-Allow-Origin", allowedOrigin)
				headers.Set("Access-Control-Allow-Methods", allowMethods)
				if r.Header.Get("Access-Control-Request-Headers") != "" {
					headers.Set("Access-Control-Allow-Headers", allowHeaders)
				}
				if cfg.AllowCredentials && allowedOrigin != "*" {
					headers.Set("Access-Control-Allow-Credentials", "true")
				}
				if maxAge > 0 {
					headers.Set("Access-Control-Max-Age", strconv.Itoa(maxAge))
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if allowedOrigin != "" {
				headers.Set("Access-Control-Allow-Origin", allowedOrigin)
				headers.Set("Access-Control-Expose-Headers", "X-Request-ID")
				if cfg.AllowCredentials && allowedOrigin != "*" {
					headers.Set("Access-Control-Allow-Credentials", "true")
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
