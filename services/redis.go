package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/kelseyhightower/envconfig"
	"github.com/lac-hong-legacy/pairup_api/shared"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

type RedisConfig struct {
	Addr           string        `envconfig:"REDIS_ADDR"`
	Host           string        `envconfig:"REDIS_HOST" default:"localhost"`
	Port           int           `envconfig:"REDIS_PORT" default:"6379"`
	Password       string        `envconfig:"REDIS_PASSWORD"`
	DB             int           `envconfig:"REDIS_DB" default:"0"`
	DialTimeout    time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"5s"`
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"1h"`
	LeaderboardTTL time.Duration `envconfig:"LEADERBOARD_TTL" default:"5m"`
	UserStatsTTL   time.Duration `envconfig:"USER_STATS_TTL" default:"30m"`
}

func (c RedisConfig) address() string {
	if c.Addr != "" {
		return c.Addr
	}
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type RedisService struct {
	appContext.DefaultService
	redis *redis.Client

	cfg RedisConfig
}

const REDIS_SVC = "redis_svc"

var errRedisNotInitialized = errors.New("redis client not initialized")

func (svc RedisService) Id() string {
	return REDIS_SVC
}

func (svc *RedisService) Configure(ctx *appContext.Context) error {
	if err := envconfig.Process("", &svc.cfg); err != nil {
		return fmt.Errorf("failed to process redis environment: %w", err)
	}
	svc.initRedisClient()
	return svc.DefaultService.Configure(ctx)
}

func (svc *RedisService) Start() error {
	ctx, cancel := context.WithTimeout(context.Background(), svc.cfg.DialTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.WithFields(log.Fields{
		"addr": svc.cfg.address(),
		"db":   svc.cfg.DB,
	}).Info("Connected to Redis")
	return nil
}

func (svc *RedisService) Shutdown() {
	if svc.redis != nil {
		_ = svc.redis.Close()
	}
}

func (svc *RedisService) initRedisClient() {
	svc.redis = redis.NewClient(&redis.Options{
		Addr:        svc.cfg.address(),
		Password:    svc.cfg.Password,
		DB:          svc.cfg.DB,
		DialTimeout: svc.cfg.DialTimeout,
	})
}

// NewRedisServiceWithClient wraps an existing client, used by tools and tests
// that do not go through the service container.
func NewRedisServiceWithClient(client *redis.Client, cfg RedisConfig) *RedisService {
	return &RedisService{redis: client, cfg: cfg}
}

func (svc *RedisService) Ping(ctx context.Context) error {
	if svc.redis == nil {
		return errRedisNotInitialized
	}
	return svc.redis.Ping(ctx).Err()
}

func (svc *RedisService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if svc.redis == nil {
		return errRedisNotInitialized
	}

	var data []byte
	var err error

	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		data, err = shared.JSON.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal value: %w", err)
		}
	}

	return svc.redis.Set(ctx, key, data, expiration).Err()
}

// GetJSON decodes the value at key into dest. found is false when the key does
// not exist.
func (svc *RedisService) GetJSON(ctx context.Context, key string, dest interface{}) (found bool, err error) {
	if svc.redis == nil {
		return false, errRedisNotInitialized
	}

	result, err := svc.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := shared.JSON.Unmarshal(result, dest); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (svc *RedisService) Delete(ctx context.Context, keys ...string) error {
	if svc.redis == nil {
		return errRedisNotInitialized
	}

	return svc.redis.Del(ctx, keys...).Err()
}

// IncrementWindow increments the counter at key and sets its expiry when the
// key is new. It returns the new count and the remaining window.
func (svc *RedisService) IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if svc.redis == nil {
		return 0, 0, errRedisNotInitialized
	}

	pipe := svc.redis.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	ttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}

	remaining := ttl.Val()
	if remaining < 0 {
		remaining = window
	}
	return incr.Val(), remaining, nil
}
