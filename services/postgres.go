package services

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kelseyhightower/envconfig"
	"github.com/lac-hong-legacy/pairup_api/model"
	"github.com/lac-hong-legacy/pairup_api/services/repositories"
	"github.com/lac-hong-legacy/pairup_api/shared"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type PostgresConfig struct {
	URL             string        `envconfig:"DATABASE_URL"`
	Host            string        `envconfig:"DB_HOST" default:"localhost"`
	Port            int           `envconfig:"DB_PORT" default:"5432"`
	User            string        `envconfig:"DB_USER" default:"postgres"`
	Password        string        `envconfig:"DB_PASSWORD" default:"postgres"`
	Name            string        `envconfig:"DB_NAME" default:"pairup"`
	SSLMode         string        `envconfig:"DB_SSLMODE" default:"disable"`
	TimeZone        string        `envconfig:"DB_TIMEZONE" default:"UTC"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"30m"`
	ConnectTimeout  time.Duration `envconfig:"DB_CONNECT_TIMEOUT" default:"5s"`
	RetryAttempts   int           `envconfig:"DB_RETRY_ATTEMPTS" default:"3"`
	RetryBackoff    time.Duration `envconfig:"DB_RETRY_BACKOFF" default:"200ms"`
}

// DSN prefers DATABASE_URL over the discrete DB_* settings.
func (c PostgresConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s connect_timeout=%d",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode, c.TimeZone, int(c.ConnectTimeout.Seconds()))
}

type PostgresService struct {
	appContext.DefaultService
	db *gorm.DB

	cfg PostgresConfig

	users       *repositories.UserRepository
	games       *repositories.GameRepository
	leaderboard *repositories.LeaderboardRepository
}

const POSTGRES_SVC = "postgres_svc"

// ErrGameAlreadyCompleted is returned when a completion targets a game row
// that is already final.
var ErrGameAlreadyCompleted = errors.New("game already completed")

func (ds PostgresService) Id() string {
	return POSTGRES_SVC
}

func (ds PostgresService) Db() *gorm.DB {
	return ds.db
}

func (ds *PostgresService) Configure(ctx *appContext.Context) error {
	if err := envconfig.Process("", &ds.cfg); err != nil {
		return fmt.Errorf("failed to process database environment: %w", err)
	}
	return ds.DefaultService.Configure(ctx)
}

const (
	connectMaxRetries  = 10
	connectMaxInterval = 10 * time.Second
)

// connectBackOff paces the startup connection attempts.
func connectBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = connectMaxInterval
	b.MaxElapsedTime = 0
	return backoff.WithMaxRetries(b, connectMaxRetries)
}

func (ds *PostgresService) connect() error {
	db, err := gorm.Open(postgres.Open(ds.cfg.DSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Error),
		TranslateError: true,
	})
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return err
	}
	ds.db = db
	return nil
}

func (ds *PostgresService) Start() (err error) {
	attempt := 0
	err = backoff.RetryNotify(func() error {
		attempt++
		log.WithField("attempt", attempt).Info("Connecting to database")
		return ds.connect()
	}, connectBackOff(), func(err error, wait time.Duration) {
		log.WithError(err).WithField("retry_in", wait).Warn("Database connection failed")
	})
	if err != nil {
		log.WithError(err).WithField("attempts", attempt).Error("Failed to connect to database")
		return err
	}
	log.Info("Successfully connected to database")

	sqlDB, err := ds.db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(ds.cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(ds.cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(ds.cfg.ConnMaxLifetime)

	if err := ds.Migrate(); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		return err
	}

	ds.initRepositories()

	log.Println("Database connected and migrated successfully")
	return nil
}

// NewPostgresServiceWithDB wraps an already opened connection. The schema is
// migrated before returning.
func NewPostgresServiceWithDB(db *gorm.DB, cfg PostgresConfig) (*PostgresService, error) {
	ds := &PostgresService{db: db, cfg: cfg}
	if err := ds.Migrate(); err != nil {
		return nil, err
	}
	ds.initRepositories()
	return ds, nil
}

func (ds *PostgresService) initRepositories() {
	ds.users = repositories.NewUserRepository(ds.db)
	ds.games = repositories.NewGameRepository(ds.db)
	ds.leaderboard = repositories.NewLeaderboardRepository(ds.db)
}

func (ds *PostgresService) Migrate() error {
	models := []interface{}{
		&model.User{},
		&model.Game{},
		&model.GameMatch{},
	}

	if err := ds.db.AutoMigrate(models...); err != nil {
		return err
	}

	return repositories.CreateLeaderboardView(ds.db)
}

func (ds *PostgresService) Shutdown() {
	if ds.db == nil {
		return
	}
	sqlDB, err := ds.db.DB()
	if err == nil {
		sqlDB.Close()
	}
}

func (ds *PostgresService) Ping(ctx context.Context) error {
	sqlDB, err := ds.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (ds *PostgresService) HandleError(err error) error {
	if err == nil {
		return nil
	}

	var statusCode int
	var errorType string

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		statusCode = http.StatusNotFound
		errorType = "NOT_FOUND"
	case errors.Is(err, ErrGameAlreadyCompleted):
		statusCode = http.StatusBadRequest
		errorType = "ALREADY_COMPLETED"
	case errors.Is(err, gorm.ErrDuplicatedKey):
		statusCode = http.StatusConflict
		errorType = "CONFLICT"
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		statusCode = http.StatusBadRequest
		errorType = "FOREIGN_KEY_VIOLATION"
	case isTransient(err):
		statusCode = http.StatusServiceUnavailable
		errorType = "DATABASE_CONNECTION_ERROR"
	default:
		if strings.Contains(err.Error(), "relation") && strings.Contains(err.Error(), "does not exist") {
			statusCode = http.StatusInternalServerError
			errorType = "SCHEMA_ERROR"
		} else {
			statusCode = http.StatusInternalServerError
			errorType = "INTERNAL_ERROR"
		}
	}

	logEntry := log.WithFields(log.Fields{
		"status_code": statusCode,
		"error_type":  errorType,
		"error":       err.Error(),
	})

	if statusCode >= 500 {
		logEntry.Error("Database error occurred")
	} else {
		logEntry.Debug("Database operation failed")
	}

	return fmt.Errorf("%s: %w", errorType, err)
}

// withRetry runs op, retrying transient failures with a fixed backoff. When
// the retries are exhausted the error is surfaced as a transient store error.
func (ds *PostgresService) withRetry(ctx context.Context, name string, op func(ctx context.Context) error) error {
	attempt := 0
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(ds.cfg.RetryBackoff), uint64(max(ds.cfg.RetryAttempts, 0))),
		ctx,
	)

	err := backoff.Retry(func() error {
		attempt++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return backoff.Permanent(err)
		}
		log.WithFields(log.Fields{
			"operation": name,
			"attempt":   attempt,
			"error":     err.Error(),
		}).Warn("Transient database error, retrying")
		return err
	}, policy)

	if err == nil {
		return nil
	}

	err = ds.HandleError(err)
	if isTransient(err) {
		return shared.NewTransientError(err, "data store unavailable")
	}
	return err
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "08"): // connection exception
			return true
		case pgErr.Code == "40001", pgErr.Code == "40P01": // serialization failure, deadlock
			return true
		case pgErr.Code == "53300", pgErr.Code == "57P01", pgErr.Code == "57P02", pgErr.Code == "57P03":
			return true
		}
		return false
	}

	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return strings.Contains(err.Error(), "connection refused")
}

func (ds *PostgresService) FindOrCreateUser(ctx context.Context, username string) (*model.User, error) {
	var user *model.User
	err := ds.withRetry(ctx, "find_or_create_user", func(ctx context.Context) (err error) {
		user, err = ds.users.FindOrCreate(ctx, username)
		return err
	})
	return user, err
}

func (ds *PostgresService) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var user *model.User
	err := ds.withRetry(ctx, "get_user", func(ctx context.Context) (err error) {
		user, err = ds.users.GetByUsername(ctx, username)
		return err
	})
	return user, err
}

func (ds *PostgresService) CreateGame(ctx context.Context, game *model.Game) error {
	return ds.withRetry(ctx, "create_game", func(ctx context.Context) error {
		return ds.games.Create(ctx, game)
	})
}

func (ds *PostgresService) AppendMatch(ctx context.Context, match *model.GameMatch) error {
	return ds.withRetry(ctx, "append_match", func(ctx context.Context) error {
		return ds.games.AppendMatch(ctx, match)
	})
}

func (ds *PostgresService) CompleteGame(ctx context.Context, result model.GameResult) error {
	attempt := 0
	return ds.withRetry(ctx, "complete_game", func(ctx context.Context) error {
		attempt++
		return ds.completeAttempt(ctx, result, attempt > 1)
	})
}

// completeAttempt runs one completion. A retry that finds the row already
// holding this exact result means an earlier attempt committed but its
// acknowledgement was lost.
func (ds *PostgresService) completeAttempt(ctx context.Context, result model.GameResult, retried bool) error {
	err := ds.games.Complete(ctx, result)
	if !errors.Is(err, repositories.ErrAlreadyCompleted) {
		return err
	}
	if retried {
		ok, checkErr := ds.games.HasResult(ctx, result)
		if checkErr != nil {
			return checkErr
		}
		if ok {
			log.WithField("game_id", result.GameID).Info("Completion already committed by an earlier attempt")
			return nil
		}
	}
	return ErrGameAlreadyCompleted
}

func (ds *PostgresService) GetGame(ctx context.Context, gameID string) (*model.Game, error) {
	var game *model.Game
	err := ds.withRetry(ctx, "get_game", func(ctx context.Context) (err error) {
		game, err = ds.games.GetWithMatches(ctx, gameID)
		return err
	})
	return game, err
}

func (ds *PostgresService) ListCompletedGames(ctx context.Context, userID string, limit int) ([]model.Game, error) {
	var games []model.Game
	err := ds.withRetry(ctx, "list_completed_games", func(ctx context.Context) (err error) {
		games, err = ds.games.ListCompleted(ctx, userID, limit)
		return err
	})
	return games, err
}

func (ds *PostgresService) TopPlayers(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	var entries []model.LeaderboardEntry
	err := ds.withRetry(ctx, "top_players", func(ctx context.Context) (err error) {
		entries, err = ds.leaderboard.Top(ctx, limit)
		return err
	})
	return entries, err
}
