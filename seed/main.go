package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/lac-hong-legacy/pairup_api/seed/seeders"
	"github.com/lac-hong-legacy/pairup_api/services"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using system environment variables")
	}

	var (
		seedType = flag.String("type", "all", "Type of seeding: all, players")
		players  = flag.Int("players", 10, "Number of demo players to create")
		games    = flag.Int("games", 5, "Completed games per demo player")
		seed     = flag.Uint64("seed", uint64(time.Now().UnixNano()), "Random seed for reproducible data")
		verbose  = flag.Bool("verbose", false, "Log every SQL statement")
		help     = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		showHelp()
		return
	}
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	var cfg services.PostgresConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process database environment: %v", err)
	}

	logLevel := logger.Warn
	if *verbose {
		logLevel = logger.Info
	}
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	store, err := services.NewPostgresServiceWithDB(db, cfg)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.WithField("database", cfg.Name).Info("Connected to database")

	mainSeeder := seeders.NewMainSeeder(store, *seed)
	ctx := context.Background()

	switch *seedType {
	case "all", "players":
		if err := mainSeeder.SeedAll(ctx, *players, *games); err != nil {
			log.Fatalf("Failed to seed database: %v", err)
		}
	default:
		log.Fatalf("Unknown seed type: %s. Use 'all' or 'players'", *seedType)
	}

	log.WithField("seed", *seed).Info("Seeding operation completed successfully!")
}

func showHelp() {
	fmt.Println(`
Demo data seeder for the PairUp API

Usage: go run ./seed [flags]

Flags:
  -type string      Type of seeding to perform: all, players (default "all")
  -players int      Number of demo players (default 10)
  -games int        Completed games per player (default 5)
  -seed uint        Random seed; reuse it to reproduce a data set
  -verbose          Log every SQL statement
  -help             Show this help message

Environment Variables:
  DATABASE_URL, or DB_HOST / DB_PORT / DB_USER / DB_PASSWORD / DB_NAME`)
}
