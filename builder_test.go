package hsgate

import (
	"context"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.JWT.Secret = nil

	_, err := New().WithConfig(cfg).Build()
	require.Error(t, err)
}

func TestBuildRejectsWeakArgon2(t *testing.T) {
	cfg := testConfig()
	cfg.Password.Memory = 1024

	_, err := New().WithConfig(cfg).Build()
	require.Error(t, err)
}

func TestBuilderSingleUse(t *testing.T) {
	b := New().WithConfig(testConfig())
	engine, err := b.Build()
	require.NoError(t, err)
	defer engine.Close()

	_, err = b.Build()
	require.Error(t, err)
}

func TestBuildWithoutRedisDisablesThrottle(t *testing.T) {
	engine := buildTestEngine(t, testConfig())
	assert.False(t, engine.LimiterEnabled())
}

func TestBuildDropsPlaintextPasswords(t *testing.T) {
	engine := buildTestEngine(t, testConfig())

	assert.Nil(t, engine.config.Credentials)
	for _, entry := range engine.credentials.entries {
		assert.NotContains(t, entry.hash, testPassword)
		assert.Contains(t, entry.hash, "$argon2id$")
	}
	assert.Equal(t, 2, engine.credentials.size())
}

func TestBuildCopiesSecret(t *testing.T) {
	cfg := testConfig()
	secret := []byte(testSecret)
	cfg.JWT.Secret = secret

	engine := buildTestEngine(t, cfg)
	secret[0] = 'X'

	res, err := engine.Login(context.Background(), "alice", testPassword)
	require.NoError(t, err)
	_, err = engine.Validate(context.Background(), res.Token)
	require.NoError(t, err)
}

func TestBuildWarnsOnShortSecretWithoutLoggingIt(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	cfg := testConfig()
	cfg.JWT.Secret = []byte("short-secret")

	buildTestEngine(t, cfg, func(b *Builder) { b.WithLogger(logger) })

	var warned bool
	for _, entry := range hook.AllEntries() {
		if entry.Message == "JWT secret is shorter than 32 bytes" {
			warned = true
		}
		line, err := entry.String()
		require.NoError(t, err)
		assert.NotContains(t, line, "short-secret")
	}
	assert.True(t, warned, "expected short secret warning")
}

func TestLoginNeverLogsPasswordOrToken(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	engine := buildTestEngine(t, testConfig(), func(b *Builder) { b.WithLogger(logger) })

	res, err := engine.Login(context.Background(), "alice", testPassword)
	require.NoError(t, err)
	_, _ = engine.Login(context.Background(), "alice", "wrong-password")
	_, _ = engine.Validate(context.Background(), res.Token+"A")

	for _, entry := range hook.AllEntries() {
		line, err := entry.String()
		require.NoError(t, err)
		assert.NotContains(t, line, testPassword)
		assert.NotContains(t, line, "wrong-password")
		assert.NotContains(t, line, res.Token)
		assert.NotContains(t, line, testSecret)
	}
}
