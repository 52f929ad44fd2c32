package gameplay

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

var ErrUnknownTier = errors.New("unknown difficulty tier")

// Tier is the static configuration for one difficulty level.
type Tier struct {
	Name                string        `json:"name"`
	CardCount           int           `json:"card_count"`
	TimeLimit           time.Duration `json:"-"`
	PointsPerMatch      int           `json:"points_per_match"`
	SpeedBonusThreshold time.Duration `json:"-"`
	SpeedBonusPoints    int           `json:"speed_bonus_points"`
	FlipBackDelay       time.Duration `json:"-"`
}

func (t Tier) Pairs() int {
	return t.CardCount / 2
}

// MatchBonus is the speed bonus for a match found sinceLast after the
// previous match, or after the game started for the first one.
func (t Tier) MatchBonus(sinceLast time.Duration) int {
	if sinceLast < t.SpeedBonusThreshold {
		return t.SpeedBonusPoints
	}
	return 0
}

var tiers = map[string]Tier{
	DifficultyEasy: {
		Name:                DifficultyEasy,
		CardCount:           16,
		TimeLimit:           120 * time.Second,
		PointsPerMatch:      10,
		SpeedBonusThreshold: 5 * time.Second,
		SpeedBonusPoints:    5,
		FlipBackDelay:       1000 * time.Millisecond,
	},
	DifficultyMedium: {
		Name:                DifficultyMedium,
		CardCount:           24,
		TimeLimit:           180 * time.Second,
		PointsPerMatch:      15,
		SpeedBonusThreshold: 4 * time.Second,
		SpeedBonusPoints:    8,
		FlipBackDelay:       800 * time.Millisecond,
	},
	DifficultyHard: {
		Name:                DifficultyHard,
		CardCount:           36,
		TimeLimit:           240 * time.Second,
		PointsPerMatch:      20,
		SpeedBonusThreshold: 3 * time.Second,
		SpeedBonusPoints:    10,
		FlipBackDelay:       600 * time.Millisecond,
	},
}

// LookupTier returns the tier configuration for name, or ErrUnknownTier.
func LookupTier(name string) (Tier, error) {
	tier, ok := tiers[name]
	if !ok {
		return Tier{}, fmt.Errorf("%w: %q", ErrUnknownTier, name)
	}
	return tier, nil
}

// TierNames lists the configured tiers in ascending card count.
func TierNames() []string {
	names := make([]string, 0, len(tiers))
	for name := range tiers {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return tiers[names[i]].CardCount < tiers[names[j]].CardCount
	})
	return names
}
