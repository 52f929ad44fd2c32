package gameplay

import (
	"math"
	"time"
)

const (
	SpeedBonusMultiplier = 0.5
	PerfectGameBonus     = 50
	StreakMinimum        = 3
	PointsPerStreak      = 5
	StreakBonusCap       = 50
	FreeWrongMoves       = 2
	PenaltyPerWrongMove  = 2
)

const (
	RatingLegendary = "legendary"
	RatingExcellent = "excellent"
	RatingGreat     = "great"
	RatingGood      = "good"
	RatingNovice    = "novice"
)

// ScoreInput is the raw play statistics of a finished session.
type ScoreInput struct {
	Matches    int
	WrongMoves int
	Elapsed    time.Duration
	Streak     int
}

type ScoreBreakdown struct {
	Base         int `json:"base"`
	SpeedBonus   int `json:"speed_bonus"`
	PerfectBonus int `json:"perfect_bonus"`
	StreakBonus  int `json:"streak_bonus"`
	Penalty      int `json:"penalty"`
}

type ScoreResult struct {
	Total     int            `json:"total"`
	Breakdown ScoreBreakdown `json:"breakdown"`
}

// CalculateScore applies the fixed scoring formula for tier.
func CalculateScore(in ScoreInput, tier Tier) ScoreResult {
	var b ScoreBreakdown

	b.Base = in.Matches * tier.PointsPerMatch

	if in.Elapsed < tier.TimeLimit/2 {
		b.SpeedBonus = int(math.Floor(float64(b.Base) * SpeedBonusMultiplier))
	}

	if in.WrongMoves == 0 {
		b.PerfectBonus = PerfectGameBonus
	}

	if in.Streak >= StreakMinimum {
		b.StreakBonus = min(in.Streak*PointsPerStreak, StreakBonusCap)
	}

	b.Penalty = max(0, in.WrongMoves-FreeWrongMoves) * PenaltyPerWrongMove

	total := b.Base + b.SpeedBonus + b.PerfectBonus + b.StreakBonus - b.Penalty
	return ScoreResult{
		Total:     max(0, total),
		Breakdown: b,
	}
}

// MaxScore is the theoretical best total for tier: every pair matched quickly,
// no mistakes and the longest possible streak.
func MaxScore(tier Tier) int {
	best := CalculateScore(ScoreInput{
		Matches: tier.Pairs(),
		Streak:  tier.Pairs(),
	}, tier)
	return best.Total
}

type ratingBucket struct {
	minPercent float64
	rating     string
}

var ratingBuckets = []ratingBucket{
	{90, RatingLegendary},
	{75, RatingExcellent},
	{50, RatingGreat},
	{25, RatingGood},
	{0, RatingNovice},
}

// Rate maps total to a rating bucket by its share of the tier maximum.
func Rate(total int, tier Tier) string {
	maxScore := MaxScore(tier)
	if maxScore <= 0 {
		return RatingNovice
	}

	percent := float64(total) / float64(maxScore) * 100
	for _, bucket := range ratingBuckets {
		if percent >= bucket.minPercent {
			return bucket.rating
		}
	}
	return RatingNovice
}
