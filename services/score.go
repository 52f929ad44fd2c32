package services

import (
	"context"
	"errors"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/pairup_api/dto"
	"github.com/lac-hong-legacy/pairup_api/gameplay"
	"github.com/lac-hong-legacy/pairup_api/model"
	"github.com/lac-hong-legacy/pairup_api/shared"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const SCORE_SVC = "score_svc"

const maxLeaderboardLimit = shared.LeaderboardSnapshotSize

// SnapshotCache holds the derived score views.
type SnapshotCache interface {
	GetLeaderboard(ctx context.Context) (*dto.LeaderboardResponse, error)
	SetLeaderboard(ctx context.Context, board *dto.LeaderboardResponse) error
	GetUserStats(ctx context.Context, username string) (*dto.UserStatsResponse, error)
	SetUserStats(ctx context.Context, stats *dto.UserStatsResponse) error
}

type ScoreStore interface {
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	ListCompletedGames(ctx context.Context, userID string, limit int) ([]model.Game, error)
	TopPlayers(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
}

type ScoreService struct {
	appContext.DefaultService

	cache   SnapshotCache
	store   ScoreStore
	metrics *Metrics
	now     func() time.Time
}

func (svc ScoreService) Id() string {
	return SCORE_SVC
}

func NewScoreService(cache SnapshotCache, store ScoreStore, metrics *Metrics) *ScoreService {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &ScoreService{cache: cache, store: store, metrics: metrics, now: time.Now}
}

func (svc *ScoreService) Configure(ctx *appContext.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *ScoreService) Start() error {
	svc.cache = svc.Service(REDIS_SVC).(*RedisService)
	svc.store = svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.metrics = svc.Service(MONITORING_SVC).(*MonitoringService).Metrics()
	svc.now = time.Now
	return nil
}

// GetUserStats returns the player's aggregates, recent games and badges.
func (svc *ScoreService) GetUserStats(ctx context.Context, username string) (*dto.UserStatsResponse, error) {
	if cached, err := svc.cache.GetUserStats(ctx, username); err == nil {
		return cached, nil
	} else if !errors.Is(err, ErrCacheMiss) {
		log.WithError(err).WithField("username", username).Warn("User stats cache unavailable")
	}

	user, err := svc.store.GetUserByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.NewNotFoundError("User not found")
	}
	if err != nil {
		return nil, err
	}

	games, err := svc.store.ListCompletedGames(ctx, user.ID, 0)
	if err != nil {
		return nil, err
	}

	stats := newUserStats(user, games)
	if err := svc.cache.SetUserStats(ctx, stats); err != nil {
		svc.metrics.CacheFailure("set_user_stats")
		log.WithError(err).WithField("username", username).Warn("Failed to cache user stats")
	}
	return stats, nil
}

func newUserStats(user *model.User, games []model.Game) *dto.UserStatsResponse {
	stats := &dto.UserStatsResponse{
		Username:     user.Username,
		TotalGames:   user.TotalGames,
		TotalScore:   user.TotalScore,
		BestScore:    user.BestScore,
		BestTimeMs:   user.BestTimeMs,
		LastPlayedAt: user.LastPlayedAt,
		RecentGames:  make([]dto.GameSummary, 0, min(len(games), shared.RecentGamesLimit)),
	}
	if user.TotalGames > 0 {
		stats.AverageScore = float64(user.TotalScore) / float64(user.TotalGames)
	}

	for i, g := range games {
		if i == shared.RecentGamesLimit {
			break
		}
		stats.RecentGames = append(stats.RecentGames, dto.GameSummary{
			SessionID:     g.ID,
			Difficulty:    g.Difficulty,
			Score:         g.Score,
			Rating:        g.Rating,
			Moves:         g.Moves,
			WrongMoves:    g.WrongMoves,
			LongestStreak: g.LongestStreak,
			TimeElapsedMs: g.TimeElapsedMs,
			CompletedAt:   g.CompletedAt,
		})
	}

	played := completedGames(games)
	totals := gameplay.PlayerTotals{
		TotalGames: user.TotalGames,
		TotalScore: int(user.TotalScore),
		BestScore:  user.BestScore,
		BestTime:   time.Duration(user.BestTimeMs) * time.Millisecond,
	}
	stats.Achievements = gameplay.Achievements(totals, played)
	return stats
}

// GetLeaderboard serves the top players from the cached snapshot.
func (svc *ScoreService) GetLeaderboard(ctx context.Context, limit int) (*dto.LeaderboardResponse, error) {
	limit = clampLimit(limit)

	board, err := svc.cache.GetLeaderboard(ctx)
	if err == nil {
		board.Cached = true
		return board.Slice(limit), nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		log.WithError(err).Warn("Leaderboard cache unavailable")
	}

	board, err = svc.refreshLeaderboard(ctx)
	if err != nil {
		return nil, err
	}
	return board.Slice(limit), nil
}

// GetFreshLeaderboard reads the store directly and replaces the snapshot.
func (svc *ScoreService) GetFreshLeaderboard(ctx context.Context, limit int) (*dto.LeaderboardResponse, error) {
	board, err := svc.refreshLeaderboard(ctx)
	if err != nil {
		return nil, err
	}
	return board.Slice(clampLimit(limit)), nil
}

func (svc *ScoreService) refreshLeaderboard(ctx context.Context) (*dto.LeaderboardResponse, error) {
	rows, err := svc.store.TopPlayers(ctx, shared.LeaderboardSnapshotSize)
	if err != nil {
		return nil, err
	}

	board := &dto.LeaderboardResponse{
		Entries:     make([]dto.LeaderboardEntryResponse, len(rows)),
		GeneratedAt: svc.now().UTC(),
	}
	for i, row := range rows {
		board.Entries[i] = dto.LeaderboardEntryResponse{
			Rank:       i + 1,
			Username:   row.Username,
			BestScore:  row.BestScore,
			BestTimeMs: row.BestTimeMs,
			TotalGames: row.TotalGames,
			TotalScore: row.TotalScore,
		}
	}

	if err := svc.cache.SetLeaderboard(ctx, board); err != nil {
		svc.metrics.CacheFailure("set_leaderboard")
		log.WithError(err).Warn("Failed to cache leaderboard")
	}
	return board, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return shared.DefaultLeaderboardLimit
	}
	return min(limit, maxLeaderboardLimit)
}
