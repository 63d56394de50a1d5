package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/hsgate/hsgate"
	"github.com/hsgate/hsgate/middleware"
	"github.com/sirupsen/logrus"
)

const maxLoginBody = 4 << 10

// Options configures the HTTP surface.
type Options struct {
	CORS hsgate.CORSConfig
	// TrustProxy makes X-Forwarded-For the source of the client IP.
	TrustProxy bool
	// SecretRoles restricts GET /secret. Empty means any authenticated caller.
	SecretRoles []string
	// Metrics is mounted at GET /metrics when non-nil.
	Metrics http.Handler
	Logger  logrus.FieldLogger
}

// LoginRequest is the POST /login body.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned by a successful POST /login.
type LoginResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresAt int64  `json:"exp"`
	ExpiresIn int64  `json:"expires_in"`
}

// IdentityResponse is returned by GET /me.
type IdentityResponse struct {
	Subject   string `json:"sub"`
	Role      string `json:"role"`
	IssuedAt  int64  `json:"iat,omitempty"`
	ExpiresAt int64  `json:"exp"`
}

// SecretResponse is returned by GET /secret.
type SecretResponse struct {
	Message string `json:"message"`
	Subject string `json:"sub"`
}

// NewHandler wires the routes around engine. RequestID is the outermost
// middleware so access logs and audit events share one ID; CORS is innermost.
func NewHandler(engine *hsgate.Engine, opts Options) http.Handler {
	guard := middleware.Guard(engine)
	secret := guard(middleware.RequireRole(engine, opts.SecretRoles...)(http.HandlerFunc(secretHandler)))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", loginHandler(engine))
	mux.Handle("GET /me", guard(http.HandlerFunc(meHandler)))
	mux.Handle("GET /secret", secret)
	mux.HandleFunc("GET /healthz", healthHandler)
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}

	var h http.Handler = mux
	h = middleware.CORS(opts.CORS)(h)
	h = middleware.Logging(opts.Logger)(h)
	h = middleware.ClientIP(opts.TrustProxy)(h)
	h = middleware.RequestID(h)
	return h
}

func loginHandler(engine *hsgate.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body LoginRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBody))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&body); err != nil || body.Username == "" {
			middleware.WriteError(w, http.StatusBadRequest, "bad request")
			return
		}

		res, err := engine.Login(r.Context(), body.Username, body.Password)
		if err != nil {
			writeLoginError(w, engine, err)
			return
		}

		middleware.WriteJSON(w, http.StatusOK, LoginResponse{
			Token:     res.Token,
			TokenType: "Bearer",
			ExpiresAt: res.ExpiresAt.Unix(),
			ExpiresIn: int64(engine.TokenTTL().Seconds()),
		})
	}
}

func writeLoginError(w http.ResponseWriter, engine *hsgate.Engine, err error) {
	switch {
	case errors.Is(err, hsgate.ErrInvalidCredentials):
		middleware.WriteError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, hsgate.ErrLoginRateLimited):
		w.Header().Set("Retry-After", strconv.Itoa(int(engine.LoginCooldown().Seconds())))
		middleware.WriteError(w, http.StatusTooManyRequests, "too many attempts")
	case errors.Is(err, hsgate.ErrLimiterUnavailable):
		middleware.WriteError(w, http.StatusServiceUnavailable, "temporarily unavailable")
	default:
		middleware.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

func meHandler(w http.ResponseWriter, r *http.Request) {
	res, ok := middleware.AuthResultFromContext(r.Context())
	if !ok {
		middleware.Unauthorized(w)
		return
	}

	out := IdentityResponse{
		Subject:   res.Subject,
		Role:      res.Role,
		ExpiresAt: res.ExpiresAt.Unix(),
	}
	if !res.IssuedAt.IsZero() {
		out.IssuedAt = res.IssuedAt.Unix()
	}
	middleware.WriteJSON(w, http.StatusOK, out)
}

func secretHandler(w http.ResponseWriter, r *http.Request) {
	res, ok := middleware.AuthResultFromContext(r.Context())
	if !ok {
		middleware.Unauthorized(w)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, SecretResponse{
		Message: "this is protected data",
		Subject: res.Subject,
	})
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
