package gameplay

import "time"

// PlayerTotals are the aggregate stats kept on a user.
type PlayerTotals struct {
	TotalGames int
	TotalScore int
	BestScore  int
	BestTime   time.Duration
}

// CompletedGame is the slice of a finished game that achievements look at.
type CompletedGame struct {
	Difficulty string
	Score      int
	WrongMoves int
	Elapsed    time.Duration
	Streak     int
}

type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type achievementRule struct {
	Achievement
	met func(totals PlayerTotals, games []CompletedGame) bool
}

var achievementRules = []achievementRule{
	{
		Achievement: Achievement{ID: "first_game", Name: "First Flip", Description: "Complete your first game"},
		met: func(t PlayerTotals, _ []CompletedGame) bool {
			return t.TotalGames >= 1
		},
	},
	{
		Achievement: Achievement{ID: "veteran", Name: "Veteran", Description: "Complete 10 games"},
		met: func(t PlayerTotals, _ []CompletedGame) bool {
			return t.TotalGames >= 10
		},
	},
	{
		Achievement: Achievement{ID: "high_scorer", Name: "High Scorer", Description: "Reach a best score of 200"},
		met: func(t PlayerTotals, _ []CompletedGame) bool {
			return t.BestScore >= 200
		},
	},
	{
		Achievement: Achievement{ID: "perfect_memory", Name: "Perfect Memory", Description: "Finish a game without a wrong move"},
		met: anyGame(func(g CompletedGame) bool {
			return g.WrongMoves == 0
		}),
	},
	{
		Achievement: Achievement{ID: "speed_demon", Name: "Speed Demon", Description: "Finish a game in under 30 seconds"},
		met: anyGame(func(g CompletedGame) bool {
			return g.Elapsed > 0 && g.Elapsed < 30*time.Second
		}),
	},
	{
		Achievement: Achievement{ID: "on_fire", Name: "On Fire", Description: "Reach a streak of 5 matches"},
		met: anyGame(func(g CompletedGame) bool {
			return g.Streak >= 5
		}),
	},
	{
		Achievement: Achievement{ID: "mastermind", Name: "Mastermind", Description: "Complete a hard game"},
		met: anyGame(func(g CompletedGame) bool {
			return g.Difficulty == DifficultyHard
		}),
	},
}

func anyGame(pred func(CompletedGame) bool) func(PlayerTotals, []CompletedGame) bool {
	return func(_ PlayerTotals, games []CompletedGame) bool {
		for _, g := range games {
			if pred(g) {
				return true
			}
		}
		return false
	}
}

// Achievements derives the unlocked badges from completed-game data. It holds
// no state; calling it twice with the same input yields the same list.
func Achievements(totals PlayerTotals, games []CompletedGame) []Achievement {
	unlocked := make([]Achievement, 0, len(achievementRules))
	for _, rule := range achievementRules {
		if rule.met(totals, games) {
			unlocked = append(unlocked, rule.Achievement)
		}
	}
	return unlocked
}

// NewlyUnlocked returns the achievements present in after but not in before.
func NewlyUnlocked(before, after []Achievement) []Achievement {
	seen := make(map[string]bool, len(before))
	for _, a := range before {
		seen[a.ID] = true
	}

	var fresh []Achievement
	for _, a := range after {
		if !seen[a.ID] {
			fresh = append(fresh, a)
		}
	}
	return fresh
}

// Totals folds completed games into the aggregates kept on a user.
func Totals(games []CompletedGame) PlayerTotals {
	var t PlayerTotals
	for _, g := range games {
		t.TotalGames++
		t.TotalScore += g.Score
		t.BestScore = max(t.BestScore, g.Score)
		if g.Elapsed > 0 && (t.BestTime == 0 || g.Elapsed < t.BestTime) {
			t.BestTime = g.Elapsed
		}
	}
	return t
}
