package main

import (
	"os"
	"strings"

	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/lac-hong-legacy/pairup_api/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("No .env file loaded, using process environment")
	}

	configureLogging()

	ctx, err := context.NewCtx(
		&services.MonitoringService{},
		&services.RedisService{},
		&services.PostgresService{},

		&services.RateLimitService{},
		&services.GameService{},
		&services.ScoreService{},

		&services.HttpService{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure services")
		return
	}

	err = ctx.Run()
	if err != nil {
		log.Fatal().Err(err).Msg("Service exited")
		return
	}
}

func configureLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(strings.ToLower(os.Getenv("LOG_LEVEL")))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Services and the store log through logrus; keep both at the same level.
	if lvl, err := logrus.ParseLevel(level.String()); err == nil {
		logrus.SetLevel(lvl)
	}

	if strings.EqualFold(os.Getenv("APP_ENV"), "production") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}
