package gameplay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func easyTier(t *testing.T) Tier {
	t.Helper()
	tier, err := LookupTier(DifficultyEasy)
	require.NoError(t, err)
	return tier
}

func TestCalculateScore_PerfectFastGame(t *testing.T) {
	tier := easyTier(t)

	res := CalculateScore(ScoreInput{Matches: 8, WrongMoves: 0, Elapsed: 30 * time.Second, Streak: 2}, tier)

	assert.Equal(t, ScoreBreakdown{Base: 80, SpeedBonus: 40, PerfectBonus: 50}, res.Breakdown)
	assert.Equal(t, 170, res.Total)
}

func TestCalculateScore_SpeedBonusOnlyUnderHalfTimeLimit(t *testing.T) {
	tier := easyTier(t)

	atHalf := CalculateScore(ScoreInput{Matches: 8, WrongMoves: 1, Elapsed: tier.TimeLimit / 2}, tier)
	assert.Zero(t, atHalf.Breakdown.SpeedBonus)

	under := CalculateScore(ScoreInput{Matches: 8, WrongMoves: 1, Elapsed: tier.TimeLimit/2 - time.Millisecond}, tier)
	assert.Equal(t, 40, under.Breakdown.SpeedBonus)
}

func TestCalculateScore_StreakBonus(t *testing.T) {
	tier := easyTier(t)
	slow := 10 * time.Minute

	cases := []struct {
		streak int
		want   int
	}{
		{0, 0},
		{1, 0},
		{2, 0},
		{3, 15},
		{8, 40},
		{10, 50},
		{40, 50},
	}
	for _, tc := range cases {
		res := CalculateScore(ScoreInput{Matches: 8, WrongMoves: 1, Elapsed: slow, Streak: tc.streak}, tier)
		assert.Equal(t, tc.want, res.Breakdown.StreakBonus, "streak %d", tc.streak)
	}
}

func TestCalculateScore_Penalty(t *testing.T) {
	tier := easyTier(t)
	slow := 10 * time.Minute

	for wrong, want := range map[int]int{1: 0, 2: 0, 3: 2, 5: 6, 12: 20} {
		res := CalculateScore(ScoreInput{Matches: 8, WrongMoves: wrong, Elapsed: slow}, tier)
		assert.Equal(t, want, res.Breakdown.Penalty, "wrong moves %d", wrong)
		assert.Equal(t, 80-want, res.Total)
	}
}

func TestCalculateScore_NeverNegative(t *testing.T) {
	tier := easyTier(t)

	for wrong := 0; wrong < 500; wrong += 7 {
		for matches := 0; matches <= 8; matches++ {
			res := CalculateScore(ScoreInput{Matches: matches, WrongMoves: wrong, Elapsed: time.Hour}, tier)
			assert.GreaterOrEqual(t, res.Total, 0)
			if wrong == 0 {
				assert.Equal(t, PerfectGameBonus, res.Breakdown.PerfectBonus)
			}
		}
	}
}

func TestCalculateScore_Deterministic(t *testing.T) {
	tier := easyTier(t)
	in := ScoreInput{Matches: 6, WrongMoves: 4, Elapsed: 45 * time.Second, Streak: 4}

	assert.Equal(t, CalculateScore(in, tier), CalculateScore(in, tier))
}

func TestRate(t *testing.T) {
	tier := easyTier(t)
	require.Equal(t, 210, MaxScore(tier))

	assert.Equal(t, RatingLegendary, Rate(210, tier))
	assert.Equal(t, RatingLegendary, Rate(200, tier))
	assert.Equal(t, RatingExcellent, Rate(160, tier))
	assert.Equal(t, RatingGreat, Rate(120, tier))
	assert.Equal(t, RatingGood, Rate(53, tier))
	assert.Equal(t, RatingNovice, Rate(52, tier))
	assert.Equal(t, RatingNovice, Rate(0, tier))
}

func TestLongestStreak(t *testing.T) {
	s := time.Second

	assert.Equal(t, 0, LongestStreak(nil))
	assert.Equal(t, 1, LongestStreak([]time.Duration{5 * s}))
	assert.Equal(t, 3, LongestStreak([]time.Duration{5 * s, 20 * s, 50 * s}))
	assert.Equal(t, 2, LongestStreak([]time.Duration{5 * s, 36 * s, 67 * s, 100 * s, 110 * s}))
	assert.Equal(t, 1, LongestStreak([]time.Duration{0, 31 * s, 62 * s}))
}
