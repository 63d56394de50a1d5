package middleware_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/hsgate/hsgate"
	"github.com/hsgate/hsgate/middleware"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-test-secret-0123456789"

func newTestEngine(t *testing.T) *hsgate.Engine {
	t.Helper()

	cfg := hsgate.DefaultConfig()
	cfg.JWT.Secret = []byte(testSecret)
	cfg.Password = hsgate.PasswordConfig{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
	cfg.Credentials = map[string]hsgate.Credential{
		"alice": {Password: "alice-password", Role: "demo-user"},
		"root":  {Password: "root-password", Role: "admin"},
	}

	engine, err := hsgate.New().WithConfig(cfg).Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)
	return engine
}

func loginToken(t *testing.T, engine *hsgate.Engine, user, pass string) string {
	t.Helper()

	res, err := engine.Login(context.Background(), user, pass)
	require.NoError(t, err)
	return res.Token
}

// subjectHandler echoes the authenticated subject.
func subjectHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, ok := middleware.AuthResultFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(res.Subject))
	})
}
