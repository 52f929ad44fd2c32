package model

import (
	"time"

	"gorm.io/datatypes"
)

// Game is the durable row of one session. Its ID is the session id.
type Game struct {
	ID             string         `json:"id" gorm:"primaryKey;type:text"`
	UserID         string         `json:"user_id" gorm:"not null;index;type:text"`
	Difficulty     string         `json:"difficulty" gorm:"not null;size:20"`
	Categories     datatypes.JSON `json:"categories" gorm:"type:jsonb"`
	Cards          datatypes.JSON `json:"cards" gorm:"type:jsonb;not null"`
	Score          int            `json:"score" gorm:"default:0;not null"`
	Moves          int            `json:"moves" gorm:"default:0;not null"`
	MatchedPairs   int            `json:"matched_pairs" gorm:"default:0;not null"`
	TotalPairs     int            `json:"total_pairs" gorm:"not null"`
	WrongMoves     int            `json:"wrong_moves" gorm:"default:0;not null"`
	LongestStreak  int            `json:"longest_streak" gorm:"default:0;not null"`
	TimeElapsedMs  int64          `json:"time_elapsed_ms" gorm:"default:0;not null"`
	ScoreBreakdown datatypes.JSON `json:"score_breakdown,omitempty" gorm:"type:jsonb"`
	Rating         string         `json:"rating,omitempty" gorm:"size:20"`
	IsCompleted    bool           `json:"is_completed" gorm:"default:false;not null;index"`
	StartedAt      time.Time      `json:"started_at" gorm:"not null"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at" gorm:"not null"`
	UpdatedAt      time.Time      `json:"updated_at" gorm:"not null"`

	User    User        `json:"-" gorm:"foreignKey:UserID"`
	Matches []GameMatch `json:"matches,omitempty" gorm:"foreignKey:GameID"`
}

// GameMatch is an append-only record of one successful pairing.
type GameMatch struct {
	ID          string    `json:"id" gorm:"primaryKey;type:text"`
	GameID      string    `json:"game_id" gorm:"not null;index;type:text"`
	Card1ID     string    `json:"card1_id" gorm:"not null"`
	Card2ID     string    `json:"card2_id" gorm:"not null"`
	PairID      string    `json:"pair_id" gorm:"not null"`
	ElapsedMs   int64     `json:"elapsed_ms" gorm:"not null"`
	BasePoints  int       `json:"base_points" gorm:"not null"`
	BonusPoints int       `json:"bonus_points" gorm:"default:0;not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"not null"`
}

// GameResult carries the fields written when a game is completed.
type GameResult struct {
	GameID         string
	UserID         string
	Score          int
	Moves          int
	MatchedPairs   int
	WrongMoves     int
	LongestStreak  int
	TimeElapsedMs  int64
	ScoreBreakdown datatypes.JSON
	Rating         string
	CompletedAt    time.Time
}
