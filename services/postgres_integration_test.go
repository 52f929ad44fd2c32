package services

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lac-hong-legacy/pairup_api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestPostgres connects to PAIRUP_TEST_DATABASE_URL and starts from empty
// tables. The test is skipped when the variable is unset.
func newTestPostgres(t *testing.T) *PostgresService {
	t.Helper()
	dsn := os.Getenv("PAIRUP_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("PAIRUP_TEST_DATABASE_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	ds, err := NewPostgresServiceWithDB(db, PostgresConfig{RetryAttempts: 1, RetryBackoff: 10 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, ds.Db().Exec("TRUNCATE game_matches, games, users CASCADE").Error)
	t.Cleanup(ds.Shutdown)
	return ds
}

func newTestGame(userID string) *model.Game {
	return &model.Game{
		ID:         uuid.NewString(),
		UserID:     userID,
		Difficulty: "easy",
		Categories: datatypes.JSON("[]"),
		Cards:      datatypes.JSON("[]"),
		TotalPairs: 8,
		StartedAt:  time.Now().UTC(),
	}
}

func TestPostgres_GameLifecycle(t *testing.T) {
	ds := newTestPostgres(t)
	ctx := context.Background()

	user, err := ds.FindOrCreateUser(ctx, "alice")
	require.NoError(t, err)
	again, err := ds.FindOrCreateUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)

	game := newTestGame(user.ID)
	require.NoError(t, ds.CreateGame(ctx, game))
	require.NoError(t, ds.AppendMatch(ctx, &model.GameMatch{
		ID:         uuid.NewString(),
		GameID:     game.ID,
		Card1ID:    "a",
		Card2ID:    "b",
		PairID:     "p1",
		ElapsedMs:  1200,
		BasePoints: 10,
		CreatedAt:  time.Now().UTC(),
	}))

	result := model.GameResult{
		GameID:         game.ID,
		UserID:         user.ID,
		Score:          120,
		Moves:          9,
		MatchedPairs:   8,
		WrongMoves:     1,
		LongestStreak:  5,
		TimeElapsedMs:  30_000,
		ScoreBreakdown: datatypes.JSON(`{"base":80}`),
		Rating:         "great",
		CompletedAt:    time.Now().UTC(),
	}
	require.NoError(t, ds.CompleteGame(ctx, result))
	assert.ErrorIs(t, ds.CompleteGame(ctx, result), ErrGameAlreadyCompleted)

	stored, err := ds.GetGame(ctx, game.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsCompleted)
	assert.Len(t, stored.Matches, 1)

	user, err = ds.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, user.TotalGames, "a repeated completion must not count twice")
	assert.Equal(t, 120, user.BestScore)

	completed, err := ds.ListCompletedGames(ctx, user.ID, 10)
	require.NoError(t, err)
	assert.Len(t, completed, 1)

	top, err := ds.TopPlayers(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "alice", top[0].Username)
}

func TestPostgres_UnknownRows(t *testing.T) {
	ds := newTestPostgres(t)
	ctx := context.Background()

	_, err := ds.GetGame(ctx, uuid.NewString())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = ds.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPostgres_RetriedCompletionAfterLostAck(t *testing.T) {
	ds := newTestPostgres(t)
	ctx := context.Background()

	user, err := ds.FindOrCreateUser(ctx, "bob")
	require.NoError(t, err)
	game := newTestGame(user.ID)
	require.NoError(t, ds.CreateGame(ctx, game))

	result := model.GameResult{
		GameID:         game.ID,
		UserID:         user.ID,
		Score:          150,
		Moves:          8,
		MatchedPairs:   8,
		LongestStreak:  8,
		TimeElapsedMs:  12_000,
		ScoreBreakdown: datatypes.JSON(`{"base":80}`),
		Rating:         "excellent",
		CompletedAt:    time.Now().UTC(),
	}
	require.NoError(t, ds.completeAttempt(ctx, result, false))

	// The first attempt committed; a retry of the same result succeeds.
	assert.NoError(t, ds.completeAttempt(ctx, result, true))
	assert.ErrorIs(t, ds.completeAttempt(ctx, result, false), ErrGameAlreadyCompleted)

	other := result
	other.Score = 90
	assert.ErrorIs(t, ds.completeAttempt(ctx, other, true), ErrGameAlreadyCompleted)

	user, err = ds.GetUserByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, user.TotalGames)
	assert.Equal(t, 150, user.BestScore)
}
