package services

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lac-hong-legacy/pairup_api/model"
	"github.com/lac-hong-legacy/pairup_api/shared"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRedis connects to PAIRUP_TEST_REDIS_ADDR. The test is skipped when
// the variable is unset.
func newTestRedis(t *testing.T) *RedisService {
	t.Helper()
	addr := os.Getenv("PAIRUP_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PAIRUP_TEST_REDIS_ADDR not set")
	}

	svc := NewRedisServiceWithClient(redis.NewClient(&redis.Options{Addr: addr}), RedisConfig{
		SessionTTL:     time.Minute,
		LeaderboardTTL: time.Minute,
		UserStatsTTL:   time.Minute,
	})
	require.NoError(t, svc.Ping(context.Background()))
	t.Cleanup(svc.Shutdown)
	return svc
}

func TestRedis_UpdateSessionRevisions(t *testing.T) {
	svc := newTestRedis(t)
	ctx := context.Background()

	session := &model.GameSession{SessionID: uuid.NewString(), Username: "alice", Difficulty: "easy"}
	require.NoError(t, svc.SaveSession(ctx, session, time.Minute))
	t.Cleanup(func() { _ = svc.DeleteSession(ctx, session.SessionID) })

	stale := *session

	session.Moves = 1
	require.NoError(t, svc.UpdateSession(ctx, session, 0))
	assert.Equal(t, int64(1), session.Revision)

	stale.Moves = 5
	assert.ErrorIs(t, svc.UpdateSession(ctx, &stale, 0), ErrRevisionConflict)

	stored, err := svc.GetSession(ctx, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Moves)
	assert.Equal(t, int64(1), stored.Revision)

	require.NoError(t, svc.DeleteSession(ctx, session.SessionID))
	_, err = svc.GetSession(ctx, session.SessionID)
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.ErrorIs(t, svc.UpdateSession(ctx, session, 0), ErrCacheMiss)
}

func TestRedis_IncrementWindow(t *testing.T) {
	svc := newTestRedis(t)
	ctx := context.Background()
	key := shared.RateLimitKey("test:" + uuid.NewString())
	t.Cleanup(func() { _ = svc.Delete(ctx, key) })

	count, ttl, err := svc.IncrementWindow(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Greater(t, ttl, time.Duration(0))

	count, _, err = svc.IncrementWindow(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
