package seeders

import (
	"context"
	"math/rand/v2"

	"github.com/lac-hong-legacy/pairup_api/model"
	log "github.com/sirupsen/logrus"
)

// Store is the subset of the database service the seeders write through.
type Store interface {
	FindOrCreateUser(ctx context.Context, username string) (*model.User, error)
	CreateGame(ctx context.Context, game *model.Game) error
	AppendMatch(ctx context.Context, match *model.GameMatch) error
	CompleteGame(ctx context.Context, result model.GameResult) error
}

// MainSeeder coordinates all seeding operations
type MainSeeder struct {
	store Store
	rng   *rand.Rand
}

// NewMainSeeder creates a new main seeder
func NewMainSeeder(store Store, seed uint64) *MainSeeder {
	return &MainSeeder{
		store: store,
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// SeedAll creates the demo players and plays games for each of them.
func (s *MainSeeder) SeedAll(ctx context.Context, players, gamesPerPlayer int) error {
	log.WithFields(log.Fields{
		"players":          players,
		"games_per_player": gamesPerPlayer,
	}).Info("Starting database seeding")

	playerSeeder := NewPlayerSeeder(s.store, s.rng)
	seeded, err := playerSeeder.SeedPlayers(ctx, players, gamesPerPlayer)
	if err != nil {
		log.WithError(err).Error("Player seeding failed")
		return err
	}

	log.WithField("games", seeded).Info("Database seeding completed successfully")
	return nil
}
