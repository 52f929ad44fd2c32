package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lac-hong-legacy/pairup_api/gameplay"
	"github.com/lac-hong-legacy/pairup_api/model"
	"github.com/lac-hong-legacy/pairup_api/shared"
)

func newSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// sessionFromGame rebuilds a session from its durable row and match log.
// Only matched cards are known to be face up.
func sessionFromGame(game *model.Game) (*model.GameSession, error) {
	var cards []gameplay.Card
	if err := shared.JSON.Unmarshal(game.Cards, &cards); err != nil {
		return nil, fmt.Errorf("failed to decode stored deck: %w", err)
	}

	var categories []string
	if len(game.Categories) > 0 {
		if err := shared.JSON.Unmarshal(game.Categories, &categories); err != nil {
			return nil, fmt.Errorf("failed to decode stored categories: %w", err)
		}
	}

	matched := make(map[string]bool, len(game.Matches)*2)
	events := make([]model.MatchEvent, 0, len(game.Matches))
	score := 0
	for _, m := range game.Matches {
		matched[m.Card1ID] = true
		matched[m.Card2ID] = true
		score += m.BasePoints + m.BonusPoints
		events = append(events, model.MatchEvent{
			Card1ID:     m.Card1ID,
			Card2ID:     m.Card2ID,
			PairID:      m.PairID,
			ElapsedMs:   m.ElapsedMs,
			BasePoints:  m.BasePoints,
			BonusPoints: m.BonusPoints,
			MatchedAt:   m.CreatedAt,
		})
	}

	for i := range cards {
		cards[i].IsFlipped = matched[cards[i].ID]
		cards[i].IsMatched = matched[cards[i].ID]
	}

	session := &model.GameSession{
		SessionID:   game.ID,
		UserID:      game.UserID,
		Username:    game.User.Username,
		Difficulty:  game.Difficulty,
		Categories:  categories,
		Cards:       cards,
		Score:       score,
		Moves:       max(game.Moves, len(events)),
		Matches:     events,
		IsCompleted: game.IsCompleted,
		StartedAt:   game.StartedAt,
		CompletedAt: game.CompletedAt,
		Recovered:   true,
	}
	if game.IsCompleted {
		session.Score = game.Score
	}
	if n := len(events); n > 0 {
		last := events[n-1].MatchedAt
		session.LastMatchAt = &last
	}
	return session, nil
}

// completedGames projects stored rows onto what achievements need.
func completedGames(games []model.Game) []gameplay.CompletedGame {
	out := make([]gameplay.CompletedGame, 0, len(games))
	for _, g := range games {
		out = append(out, gameplay.CompletedGame{
			Difficulty: g.Difficulty,
			Score:      g.Score,
			WrongMoves: g.WrongMoves,
			Elapsed:    time.Duration(g.TimeElapsedMs) * time.Millisecond,
			Streak:     g.LongestStreak,
		})
	}
	return out
}
