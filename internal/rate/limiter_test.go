package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, cfg), mr
}

func TestLimiterBlocksAfterBudget(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLimiter(t, Config{MaxAttempts: 3, Cooldown: time.Minute})

	require.NoError(t, l.Check(ctx, "alice", ""))
	require.NoError(t, l.RecordFailure(ctx, "alice", ""))
	require.NoError(t, l.RecordFailure(ctx, "alice", ""))
	require.NoError(t, l.Check(ctx, "alice", ""))
	require.NoError(t, l.RecordFailure(ctx, "alice", ""))

	require.ErrorIs(t, l.Check(ctx, "alice", ""), ErrRateLimited)
	require.ErrorIs(t, l.RecordFailure(ctx, "alice", ""), ErrRateLimited)
	require.NoError(t, l.Check(ctx, "bob", ""), "budgets are per username")

	n, err := l.Attempts(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestLimiterWindowExpires(t *testing.T) {
	ctx := context.Background()
	l, mr := newTestLimiter(t, Config{MaxAttempts: 1, Cooldown: time.Minute})

	require.NoError(t, l.RecordFailure(ctx, "alice", ""))
	require.ErrorIs(t, l.Check(ctx, "alice", ""), ErrRateLimited)
	assert.Equal(t, time.Minute, mr.TTL("hl:alice"))

	mr.FastForward(time.Minute + time.Second)
	require.NoError(t, l.Check(ctx, "alice", ""))
}

func TestLimiterResetClearsUsernameOnly(t *testing.T) {
	ctx := context.Background()
	l, mr := newTestLimiter(t, Config{Prefix: "t", MaxAttempts: 1, Cooldown: time.Minute, EnableIPThrottle: true})

	require.NoError(t, l.RecordFailure(ctx, "alice", "10.0.0.1"))
	require.ErrorIs(t, l.Check(ctx, "alice", "10.0.0.1"), ErrRateLimited)

	require.NoError(t, l.Reset(ctx, "alice"))
	assert.False(t, mr.Exists("t:alice"))
	assert.True(t, mr.Exists("ti:10.0.0.1"))
	require.ErrorIs(t, l.Check(ctx, "alice", "10.0.0.1"), ErrRateLimited, "IP budget still spent")
	require.NoError(t, l.Check(ctx, "alice", "10.0.0.2"))
}

func TestLimiterRedisDown(t *testing.T) {
	ctx := context.Background()
	l, mr := newTestLimiter(t, Config{MaxAttempts: 1, Cooldown: time.Minute})
	mr.Close()

	require.ErrorIs(t, l.Check(ctx, "alice", ""), ErrRedisUnavailable)
	require.ErrorIs(t, l.RecordFailure(ctx, "alice", ""), ErrRedisUnavailable)
	require.ErrorIs(t, l.Reset(ctx, "alice"), ErrRedisUnavailable)
}
