package handlers

import (
	"context"

	"github.com/lac-hong-legacy/pairup_api/dto"
)

type GameServiceInterface interface {
	StartGame(ctx context.Context, req dto.StartGameRequest) (*dto.StartGameResponse, error)
	SubmitMatch(ctx context.Context, req dto.MatchRequest) (*dto.MatchResponse, error)
	CompleteGame(ctx context.Context, req dto.CompleteGameRequest) (*dto.CompleteGameResponse, error)
	GetGame(ctx context.Context, sessionID string) (*dto.GameSnapshotResponse, error)
}

type ScoreServiceInterface interface {
	GetUserStats(ctx context.Context, username string) (*dto.UserStatsResponse, error)
	GetLeaderboard(ctx context.Context, limit int) (*dto.LeaderboardResponse, error)
	GetFreshLeaderboard(ctx context.Context, limit int) (*dto.LeaderboardResponse, error)
}

// Pinger is a dependency whose liveness is reported by the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}
