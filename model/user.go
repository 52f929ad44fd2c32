package model

import "time"

type User struct {
	ID           string     `json:"id" gorm:"primaryKey;type:text"`
	Username     string     `json:"username" gorm:"uniqueIndex;not null;size:30"`
	TotalGames   int        `json:"total_games" gorm:"default:0;not null"`
	TotalScore   int64      `json:"total_score" gorm:"default:0;not null"`
	BestScore    int        `json:"best_score" gorm:"default:0;not null"`
	BestTimeMs   int64      `json:"best_time_ms" gorm:"default:0;not null"` // 0 until a game is completed
	LastPlayedAt *time.Time `json:"last_played_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at" gorm:"not null"`
	UpdatedAt    time.Time  `json:"updated_at" gorm:"not null"`
}

// LeaderboardEntry is a row of the leaderboard view.
type LeaderboardEntry struct {
	UserID       string     `json:"user_id"`
	Username     string     `json:"username"`
	BestScore    int        `json:"best_score"`
	BestTimeMs   int64      `json:"best_time_ms"`
	TotalGames   int        `json:"total_games"`
	TotalScore   int64      `json:"total_score"`
	LastPlayedAt *time.Time `json:"last_played_at,omitempty"`
}

func (LeaderboardEntry) TableName() string {
	return "leaderboard"
}
