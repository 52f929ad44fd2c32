package seeders

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/lac-hong-legacy/pairup_api/gameplay"
	"github.com/lac-hong-legacy/pairup_api/model"
	"github.com/lac-hong-legacy/pairup_api/shared"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

var demoNames = []string{
	"recall_rita", "flip_master", "pair_pilot", "glyph_hunter", "deja_vu",
	"match_maker", "card_shark", "memo_mike", "twin_finder", "quick_quinn",
}

// PlayerSeeder plays simulated games for demo players and records them the
// same way a real session would be recorded.
type PlayerSeeder struct {
	store     Store
	rng       *rand.Rand
	generator *gameplay.Generator
}

func NewPlayerSeeder(store Store, rng *rand.Rand) *PlayerSeeder {
	return &PlayerSeeder{
		store:     store,
		rng:       rng,
		generator: gameplay.NewGenerator(rand.New(rand.NewPCG(rng.Uint64(), rng.Uint64()))),
	}
}

func DemoUsername(i int) string {
	name := demoNames[i%len(demoNames)]
	if i >= len(demoNames) {
		name = fmt.Sprintf("%s_%d", name, i/len(demoNames))
	}
	return name
}

// SeedPlayers returns the number of games recorded.
func (s *PlayerSeeder) SeedPlayers(ctx context.Context, players, gamesPerPlayer int) (int, error) {
	recorded := 0
	for i := 0; i < players; i++ {
		user, err := s.store.FindOrCreateUser(ctx, DemoUsername(i))
		if err != nil {
			return recorded, err
		}

		// Lower skill means more wrong flips and slower matches.
		skill := 0.3 + 0.7*s.rng.Float64()
		for g := 0; g < gamesPerPlayer; g++ {
			tiers := gameplay.TierNames()
			tier, _ := gameplay.LookupTier(tiers[s.rng.IntN(len(tiers))])
			if err := s.playGame(ctx, user, tier, skill); err != nil {
				return recorded, err
			}
			recorded++
		}

		log.WithFields(log.Fields{
			"username": user.Username,
			"games":    gamesPerPlayer,
		}).Debug("Seeded player")
	}
	return recorded, nil
}

func (s *PlayerSeeder) playGame(ctx context.Context, user *model.User, tier gameplay.Tier, skill float64) error {
	cards, err := s.generator.Generate(tier.Name, nil)
	if err != nil {
		return err
	}
	deck, err := shared.JSON.Marshal(cards)
	if err != nil {
		return err
	}

	startedAt := time.Now().Add(-time.Duration(s.rng.IntN(72)) * time.Hour)
	game := &model.Game{
		ID:         uuid.NewString(),
		UserID:     user.ID,
		Difficulty: tier.Name,
		Categories: datatypes.JSON("[]"),
		Cards:      datatypes.JSON(deck),
		TotalPairs: tier.Pairs(),
		StartedAt:  startedAt,
	}
	if err := s.store.CreateGame(ctx, game); err != nil {
		return err
	}

	pairs := pairCards(cards)

	var (
		elapsed   time.Duration
		lastMatch time.Duration
		moves     int
		offsets   []time.Duration
	)
	for _, pair := range pairs {
		for s.rng.Float64() > skill {
			moves++
			elapsed += time.Duration(1+s.rng.IntN(3)) * time.Second
		}
		moves++
		elapsed += time.Duration(float64(2+s.rng.IntN(6))/skill) * time.Second

		bonus := tier.MatchBonus(elapsed - lastMatch)
		lastMatch = elapsed
		offsets = append(offsets, elapsed)

		err := s.store.AppendMatch(ctx, &model.GameMatch{
			ID:          uuid.NewString(),
			GameID:      game.ID,
			Card1ID:     pair[0].ID,
			Card2ID:     pair[1].ID,
			PairID:      pair[0].PairID,
			ElapsedMs:   elapsed.Milliseconds(),
			BasePoints:  tier.PointsPerMatch,
			BonusPoints: bonus,
			CreatedAt:   startedAt.Add(elapsed),
		})
		if err != nil {
			return err
		}
	}

	wrong := moves - len(pairs)
	streak := gameplay.LongestStreak(offsets)
	result := gameplay.CalculateScore(gameplay.ScoreInput{
		Matches:    len(pairs),
		WrongMoves: wrong,
		Elapsed:    elapsed,
		Streak:     streak,
	}, tier)
	breakdown, err := shared.JSON.Marshal(result.Breakdown)
	if err != nil {
		return err
	}

	return s.store.CompleteGame(ctx, model.GameResult{
		GameID:         game.ID,
		UserID:         user.ID,
		Score:          result.Total,
		Moves:          moves,
		MatchedPairs:   len(pairs),
		WrongMoves:     wrong,
		LongestStreak:  streak,
		TimeElapsedMs:  elapsed.Milliseconds(),
		ScoreBreakdown: datatypes.JSON(breakdown),
		Rating:         gameplay.Rate(result.Total, tier),
		CompletedAt:    startedAt.Add(elapsed),
	})
}

// pairCards groups the deck by pair id in order of first appearance.
func pairCards(cards []gameplay.Card) [][2]gameplay.Card {
	index := make(map[string]int, len(cards)/2)
	pairs := make([][2]gameplay.Card, 0, len(cards)/2)
	for _, card := range cards {
		i, seen := index[card.PairID]
		if !seen {
			index[card.PairID] = len(pairs)
			pairs = append(pairs, [2]gameplay.Card{card})
			continue
		}
		pairs[i][1] = card
	}
	return pairs
}
