package gameplay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ids(list []Achievement) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.ID)
	}
	return out
}

func TestAchievements_NoGames(t *testing.T) {
	assert.Empty(t, Achievements(PlayerTotals{}, nil))
}

func TestAchievements_Projection(t *testing.T) {
	totals := PlayerTotals{TotalGames: 1, TotalScore: 210, BestScore: 210, BestTime: 25 * time.Second}
	games := []CompletedGame{
		{Difficulty: DifficultyEasy, Score: 210, WrongMoves: 0, Elapsed: 25 * time.Second, Streak: 8},
	}

	got := ids(Achievements(totals, games))
	assert.Equal(t, []string{"first_game", "high_scorer", "perfect_memory", "speed_demon", "on_fire"}, got)
}

func TestAchievements_HardModeAndVeteran(t *testing.T) {
	totals := PlayerTotals{TotalGames: 12, TotalScore: 900, BestScore: 150}
	games := []CompletedGame{
		{Difficulty: DifficultyHard, Score: 150, WrongMoves: 4, Elapsed: 3 * time.Minute, Streak: 2},
	}

	got := ids(Achievements(totals, games))
	assert.Equal(t, []string{"first_game", "veteran", "mastermind"}, got)
}

func TestNewlyUnlocked(t *testing.T) {
	before := []Achievement{{ID: "first_game"}}
	after := []Achievement{{ID: "first_game"}, {ID: "on_fire"}}

	assert.Equal(t, []string{"on_fire"}, ids(NewlyUnlocked(before, after)))
	assert.Empty(t, NewlyUnlocked(after, after))
}
