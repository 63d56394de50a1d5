package hsgate

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const (
	testSecret   = "0123456789abcdef0123456789abcdef"
	testPassword = "correct-password-123"
)

// testConfig returns a valid Config with argon2 parameters at the floor so
// credential hashing stays fast in tests.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.Secret = []byte(testSecret)
	cfg.JWT.TokenTTL = 900 * time.Second
	cfg.Password = PasswordConfig{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
	cfg.Credentials = map[string]Credential{
		"alice": {Password: testPassword, Role: "demo-user"},
		"bob":   {Password: "bob-password-456", Role: "admin"},
	}
	return cfg
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func buildTestEngine(t *testing.T, cfg Config, opts ...func(*Builder)) *Engine {
	t.Helper()

	b := New().WithConfig(cfg)
	for _, opt := range opts {
		opt(b)
	}
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func fixedClock(ts time.Time) func(*Builder) {
	return func(b *Builder) { b.withClock(func() time.Time { return ts }) }
}
