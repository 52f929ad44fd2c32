package dto

import (
	"time"

	"github.com/lac-hong-legacy/pairup_api/gameplay"
)

type GameSummary struct {
	SessionID     string     `json:"session_id"`
	Difficulty    string     `json:"difficulty"`
	Score         int        `json:"score"`
	Rating        string     `json:"rating"`
	Moves         int        `json:"moves"`
	WrongMoves    int        `json:"wrong_moves"`
	LongestStreak int        `json:"longest_streak"`
	TimeElapsedMs int64      `json:"time_elapsed_ms"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

type UserStatsResponse struct {
	Username     string                 `json:"username"`
	TotalGames   int                    `json:"total_games"`
	TotalScore   int64                  `json:"total_score"`
	BestScore    int                    `json:"best_score"`
	BestTimeMs   int64                  `json:"best_time_ms"`
	AverageScore float64                `json:"average_score"`
	LastPlayedAt *time.Time             `json:"last_played_at,omitempty"`
	RecentGames  []GameSummary          `json:"recent_games"`
	Achievements []gameplay.Achievement `json:"achievements"`
}

type LeaderboardEntryResponse struct {
	Rank       int    `json:"rank"`
	Username   string `json:"username"`
	BestScore  int    `json:"best_score"`
	BestTimeMs int64  `json:"best_time_ms"`
	TotalGames int    `json:"total_games"`
	TotalScore int64  `json:"total_score"`
}

type LeaderboardResponse struct {
	Entries     []LeaderboardEntryResponse `json:"entries"`
	GeneratedAt time.Time                  `json:"generated_at"`
	Cached      bool                       `json:"cached"`
}

// Slice returns a copy limited to the first limit entries.
func (r *LeaderboardResponse) Slice(limit int) *LeaderboardResponse {
	out := *r
	if limit < len(r.Entries) {
		out.Entries = r.Entries[:limit]
	}
	return &out
}

type HealthResponse struct {
	Status        string            `json:"status"`
	Checks        map[string]string `json:"checks"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Timestamp     int64             `json:"timestamp"`
}
