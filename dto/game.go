package dto

import (
	"time"

	"github.com/lac-hong-legacy/pairup_api/gameplay"
	"github.com/lac-hong-legacy/pairup_api/model"
)

const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

type StartGameRequest struct {
	Username   string   `json:"username" validate:"required,username" example:"memory_master"`
	Difficulty string   `json:"difficulty" validate:"required,difficulty" example:"easy"`
	Categories []string `json:"categories,omitempty" validate:"omitempty,max=6,unique,dive,category"`
}

func (r StartGameRequest) Validate() error {
	return GetValidator().Struct(r)
}

type MatchRequest struct {
	SessionID string `json:"session_id" validate:"required,uuid"`
	Card1ID   string `json:"card1_id" validate:"required,max=64"`
	Card2ID   string `json:"card2_id" validate:"required,max=64,nefield=Card1ID"`
}

func (r MatchRequest) Validate() error {
	return GetValidator().Struct(r)
}

type CompleteGameRequest struct {
	SessionID string `json:"session_id" validate:"required,uuid"`
}

func (r CompleteGameRequest) Validate() error {
	return GetValidator().Struct(r)
}

// CardView is a card as shown to the client. Glyph and category are only
// filled once the card has been revealed.
type CardView struct {
	ID        string `json:"id"`
	Position  int    `json:"position"`
	IsFlipped bool   `json:"is_flipped"`
	IsMatched bool   `json:"is_matched"`
	Glyph     string `json:"glyph,omitempty"`
	Category  string `json:"category,omitempty"`
}

func NewCardView(card gameplay.Card, reveal bool) CardView {
	view := CardView{
		ID:        card.ID,
		Position:  card.Position,
		IsFlipped: card.IsFlipped,
		IsMatched: card.IsMatched,
	}
	if reveal {
		view.Glyph = card.Glyph
		view.Category = card.Category
	}
	return view
}

// NewDeckView hides every card that is not matched yet.
func NewDeckView(cards []gameplay.Card) []CardView {
	views := make([]CardView, len(cards))
	for i, c := range cards {
		views[i] = NewCardView(c, c.IsMatched)
	}
	return views
}

type TierResponse struct {
	Name                  string `json:"name"`
	CardCount             int    `json:"card_count"`
	TimeLimitMs           int64  `json:"time_limit_ms"`
	PointsPerMatch        int    `json:"points_per_match"`
	SpeedBonusThresholdMs int64  `json:"speed_bonus_threshold_ms"`
	SpeedBonusPoints      int    `json:"speed_bonus_points"`
	FlipBackDelayMs       int64  `json:"flip_back_delay_ms"`
}

func NewTierResponse(tier gameplay.Tier) TierResponse {
	return TierResponse{
		Name:                  tier.Name,
		CardCount:             tier.CardCount,
		TimeLimitMs:           tier.TimeLimit.Milliseconds(),
		PointsPerMatch:        tier.PointsPerMatch,
		SpeedBonusThresholdMs: tier.SpeedBonusThreshold.Milliseconds(),
		SpeedBonusPoints:      tier.SpeedBonusPoints,
		FlipBackDelayMs:       tier.FlipBackDelay.Milliseconds(),
	}
}

type StartGameResponse struct {
	SessionID  string       `json:"session_id"`
	Username   string       `json:"username"`
	Difficulty string       `json:"difficulty"`
	Cards      []CardView   `json:"cards"`
	Config     TierResponse `json:"config"`
	StartedAt  time.Time    `json:"started_at"`
}

type MatchResponse struct {
	SessionID       string   `json:"session_id"`
	IsMatch         bool     `json:"is_match"`
	PointsEarned    int      `json:"points_earned"`
	BonusPoints     int      `json:"bonus_points"`
	Card1           CardView `json:"card1"`
	Card2           CardView `json:"card2"`
	Score           int      `json:"score"`
	MovesCount      int      `json:"moves_count"`
	MatchedPairs    int      `json:"matched_pairs"`
	TotalPairs      int      `json:"total_pairs"`
	AllMatched      bool     `json:"all_matched"`
	FlipBackDelayMs int64    `json:"flip_back_delay_ms,omitempty"`
}

// MatchProgress accompanies a completion refused because pairs remain.
type MatchProgress struct {
	MatchedPairs int `json:"matched_pairs"`
	TotalPairs   int `json:"total_pairs"`
}

type CompleteGameResponse struct {
	SessionID       string                  `json:"session_id"`
	FinalScore      int                     `json:"final_score"`
	Breakdown       gameplay.ScoreBreakdown `json:"breakdown"`
	Rating          string                  `json:"rating"`
	Moves           int                     `json:"moves"`
	MatchedPairs    int                     `json:"matched_pairs"`
	WrongMoves      int                     `json:"wrong_moves"`
	LongestStreak   int                     `json:"longest_streak"`
	TimeElapsedMs   int64                   `json:"time_elapsed_ms"`
	NewAchievements []gameplay.Achievement  `json:"new_achievements"`
}

type GameSnapshotResponse struct {
	SessionID    string       `json:"session_id"`
	Username     string       `json:"username"`
	Difficulty   string       `json:"difficulty"`
	Status       string       `json:"status"`
	Cards        []CardView   `json:"cards"`
	Score        int          `json:"score"`
	Moves        int          `json:"moves"`
	MatchedPairs int          `json:"matched_pairs"`
	TotalPairs   int          `json:"total_pairs"`
	IsCompleted  bool         `json:"is_completed"`
	StartedAt    time.Time    `json:"started_at"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
	Config       TierResponse `json:"config"`
	Recovered    bool         `json:"recovered"`
}

func NewGameSnapshotResponse(session *model.GameSession, tier gameplay.Tier) *GameSnapshotResponse {
	status := StatusInProgress
	if session.IsCompleted {
		status = StatusCompleted
	}
	return &GameSnapshotResponse{
		SessionID:    session.SessionID,
		Username:     session.Username,
		Difficulty:   session.Difficulty,
		Status:       status,
		Cards:        NewDeckView(session.Cards),
		Score:        session.Score,
		Moves:        session.Moves,
		MatchedPairs: session.MatchedPairs(),
		TotalPairs:   session.TotalPairs(),
		IsCompleted:  session.IsCompleted,
		StartedAt:    session.StartedAt,
		CompletedAt:  session.CompletedAt,
		Config:       NewTierResponse(tier),
		Recovered:    session.Recovered,
	}
}
