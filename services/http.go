package services

import (
	"fmt"
	"strings"

	appContext "github.com/alphabatem/common/context"
	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/kelseyhightower/envconfig"
	"github.com/lac-hong-legacy/pairup_api/docs"
	"github.com/lac-hong-legacy/pairup_api/middleware"
	"github.com/lac-hong-legacy/pairup_api/services/handlers"
	"github.com/lac-hong-legacy/pairup_api/shared"
	"github.com/rs/zerolog/log"
)

type HttpConfig struct {
	Port           int    `envconfig:"HTTP_PORT" default:"8000"`
	AppEnv         string `envconfig:"APP_ENV" default:"development"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"*"`
}

func (c HttpConfig) Production() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

type HttpService struct {
	appContext.DefaultService

	cfg HttpConfig
	app *fiber.App

	gameSvc       *GameService
	scoreSvc      *ScoreService
	rateLimitSvc  *RateLimitService
	monitoringSvc *MonitoringService
	redisSvc      *RedisService
	postgresSvc   *PostgresService
}

const HTTP_SVC = "http_svc"

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *appContext.Context) error {
	if err := envconfig.Process("", &svc.cfg); err != nil {
		return fmt.Errorf("failed to process http environment: %w", err)
	}
	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	svc.gameSvc = svc.Service(GAME_SVC).(*GameService)
	svc.scoreSvc = svc.Service(SCORE_SVC).(*ScoreService)
	svc.rateLimitSvc = svc.Service(RATE_LIMIT_SVC).(*RateLimitService)
	svc.monitoringSvc = svc.Service(MONITORING_SVC).(*MonitoringService)
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)
	svc.postgresSvc = svc.Service(POSTGRES_SVC).(*PostgresService)

	svc.app = NewApp(svc.cfg, Routes{
		Games:     svc.gameSvc,
		Scores:    svc.scoreSvc,
		Limiter:   svc.rateLimitSvc,
		Metrics:   svc.monitoringSvc.Metrics(),
		MetricsUI: svc.monitoringSvc.MetricsHandler(),
		Deps: map[string]handlers.Pinger{
			"redis":    svc.redisSvc,
			"postgres": svc.postgresSvc,
		},
	})

	log.Info().Int("port", svc.cfg.Port).Str("env", svc.cfg.AppEnv).Msg("HTTP server listening")
	return svc.app.Listen(fmt.Sprintf(":%d", svc.cfg.Port))
}

func (svc *HttpService) Shutdown() {
	if svc.app == nil {
		return
	}
	if err := svc.app.Shutdown(); err != nil {
		log.Warn().Err(err).Msg("HTTP server shutdown failed")
	}
}

// Routes are the collaborators the HTTP surface is built from.
type Routes struct {
	Games     handlers.GameServiceInterface
	Scores    handlers.ScoreServiceInterface
	Limiter   middleware.Limiter
	Metrics   *Metrics
	MetricsUI fiber.Handler
	Deps      map[string]handlers.Pinger
}

// NewApp builds the Fiber application with every route mounted.
func NewApp(cfg HttpConfig, r Routes) *fiber.App {
	verbose := !cfg.Production()

	app := fiber.New(fiber.Config{
		AppName:     SERVICE_NAME,
		JSONEncoder: sonic.Marshal,
		JSONDecoder: sonic.Unmarshal,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if appErr, ok := shared.GetAppError(err); !ok || appErr.StatusCode >= fiber.StatusInternalServerError {
				log.Error().Err(err).Str("path", c.Path()).Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).Msg("Request failed")
			}
			return shared.ResponseError(c, err, verbose)
		},
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: verbose}))
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET,POST,OPTIONS",
	}))
	if r.Metrics == nil {
		r.Metrics = NewMetrics()
	}
	app.Use(MonitoringMiddleware(r.Metrics))

	system := handlers.NewSystemHandler(r.Deps, r.Metrics.Uptime)
	app.Get("/ping", system.Ping)
	app.Get("/health", system.Health)
	if r.MetricsUI != nil {
		app.Get("/metrics", r.MetricsUI)
	}

	docs.SwaggerInfo.BasePath = "/"
	app.Get("/swagger/*", swagger.HandlerDefault)

	games := handlers.NewGameHandler(r.Games)
	scores := handlers.NewScoreHandler(r.Scores)

	api := app.Group("")
	if r.Limiter != nil {
		api.Use(middleware.RateLimit(r.Limiter, PolicyGeneral))
	}

	game := api.Group("/game")
	if r.Limiter != nil {
		game.Post("/start", middleware.RateLimit(r.Limiter, PolicyGameStart), games.StartGame)
		game.Post("/match", middleware.RateLimit(r.Limiter, PolicyGameMatch), games.SubmitMatch)
	} else {
		game.Post("/start", games.StartGame)
		game.Post("/match", games.SubmitMatch)
	}
	game.Post("/complete", games.CompleteGame)
	game.Get("/:id", games.GetGame)

	api.Get("/scores/:username", scores.GetUserStats)
	api.Get("/leaderboard", scores.GetLeaderboard)
	api.Get("/leaderboard/fresh", scores.GetFreshLeaderboard)

	app.Use(func(c *fiber.Ctx) error {
		return shared.NewNotFoundError("Not Found")
	})

	return app
}
