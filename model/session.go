package model

import (
	"time"

	"github.com/lac-hong-legacy/pairup_api/gameplay"
)

// MatchEvent is one successful pairing inside a live session.
type MatchEvent struct {
	Card1ID     string    `json:"card1_id"`
	Card2ID     string    `json:"card2_id"`
	PairID      string    `json:"pair_id"`
	ElapsedMs   int64     `json:"elapsed_ms"`
	BasePoints  int       `json:"base_points"`
	BonusPoints int       `json:"bonus_points"`
	MatchedAt   time.Time `json:"matched_at"`
}

// GameSession is the live state held in the session cache while a game is
// being played. Revision increases on every accepted write.
type GameSession struct {
	SessionID   string          `json:"session_id"`
	UserID      string          `json:"user_id"`
	Username    string          `json:"username"`
	Difficulty  string          `json:"difficulty"`
	Categories  []string        `json:"categories,omitempty"`
	Cards       []gameplay.Card `json:"cards"`
	Score       int             `json:"score"`
	Moves       int             `json:"moves"`
	Matches     []MatchEvent    `json:"matches"`
	IsCompleted bool            `json:"is_completed"`
	StartedAt   time.Time       `json:"started_at"`
	LastMatchAt *time.Time      `json:"last_match_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Revision    int64           `json:"revision"`

	// Recovered is set when the session was rebuilt from the store after the
	// cache entry expired; flipped state of unmatched cards is lost.
	Recovered bool `json:"recovered,omitempty"`
}

// CardIndex returns the index of the card with id, or -1.
func (s *GameSession) CardIndex(id string) int {
	for i := range s.Cards {
		if s.Cards[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *GameSession) TotalPairs() int {
	return len(s.Cards) / 2
}

func (s *GameSession) MatchedPairs() int {
	return len(s.Matches)
}

func (s *GameSession) AllMatched() bool {
	return s.MatchedPairs() == s.TotalPairs()
}

// MatchOffsets returns the elapsed time of every match, in order.
func (s *GameSession) MatchOffsets() []time.Duration {
	offsets := make([]time.Duration, len(s.Matches))
	for i, m := range s.Matches {
		offsets[i] = time.Duration(m.ElapsedMs) * time.Millisecond
	}
	return offsets
}
