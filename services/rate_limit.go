package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/kelseyhightower/envconfig"
	"github.com/lac-hong-legacy/pairup_api/dto"
	"github.com/lac-hong-legacy/pairup_api/shared"
)

const RATE_LIMIT_SVC = "rate_limit_svc"

const (
	PolicyGeneral   = "api_general"
	PolicyGameStart = "game_start"
	PolicyGameMatch = "game_match"
)

type RateLimitConfig struct {
	Window time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
	Max    int           `envconfig:"RATE_LIMIT_MAX" default:"120"`
}

// RateLimitPolicy is a fixed window: at most MaxRequests per WindowSize.
type RateLimitPolicy struct {
	EndpointType string
	MaxRequests  int
	WindowSize   time.Duration
	Message      string
}

// WindowCounter increments a counter that expires with its window.
type WindowCounter interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

type RateLimitService struct {
	appContext.DefaultService

	cfg      RateLimitConfig
	policies map[string]RateLimitPolicy
	mutex    sync.RWMutex

	counter WindowCounter
	now     func() time.Time
}

func (svc RateLimitService) Id() string {
	return RATE_LIMIT_SVC
}

func NewRateLimitService(counter WindowCounter, cfg RateLimitConfig) *RateLimitService {
	svc := &RateLimitService{cfg: cfg, counter: counter, now: time.Now}
	svc.initPolicies()
	return svc
}

func (svc *RateLimitService) Configure(ctx *appContext.Context) error {
	if err := envconfig.Process("", &svc.cfg); err != nil {
		return fmt.Errorf("failed to process rate limit environment: %w", err)
	}
	return svc.DefaultService.Configure(ctx)
}

func (svc *RateLimitService) Start() error {
	svc.counter = svc.Service(REDIS_SVC).(*RedisService)
	svc.now = time.Now
	svc.initPolicies()
	return nil
}

func (svc *RateLimitService) initPolicies() {
	svc.mutex.Lock()
	defer svc.mutex.Unlock()

	svc.policies = map[string]RateLimitPolicy{
		PolicyGeneral: {
			EndpointType: PolicyGeneral,
			MaxRequests:  svc.cfg.Max,
			WindowSize:   svc.cfg.Window,
			Message:      "Too many requests. Please slow down.",
		},
		// Starting a session writes a row; keep it well below the general limit.
		PolicyGameStart: {
			EndpointType: PolicyGameStart,
			MaxRequests:  max(1, svc.cfg.Max/4),
			WindowSize:   svc.cfg.Window,
			Message:      "Too many new games. Please finish one first.",
		},
		PolicyGameMatch: {
			EndpointType: PolicyGameMatch,
			MaxRequests:  svc.cfg.Max,
			WindowSize:   svc.cfg.Window,
			Message:      "Too many flips. Please slow down.",
		},
	}
}

func (svc *RateLimitService) Policy(endpointType string) (RateLimitPolicy, bool) {
	svc.mutex.RLock()
	defer svc.mutex.RUnlock()
	policy, ok := svc.policies[endpointType]
	return policy, ok
}

// Allow counts one request from identifier against the endpoint's policy.
// Unknown or disabled policies always allow.
func (svc *RateLimitService) Allow(ctx context.Context, identifier, endpointType string) (*dto.RateLimitInfo, error) {
	policy, exists := svc.Policy(endpointType)
	if !exists || policy.MaxRequests <= 0 || policy.WindowSize <= 0 {
		return &dto.RateLimitInfo{Allowed: true, Remaining: -1}, nil
	}

	key := shared.RateLimitKey(endpointType + ":" + identifier)
	count, ttl, err := svc.counter.IncrementWindow(ctx, key, policy.WindowSize)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = policy.WindowSize
	}

	resetTime := svc.now().Add(ttl)
	return &dto.RateLimitInfo{
		Allowed:   count <= int64(policy.MaxRequests),
		Limit:     policy.MaxRequests,
		Remaining: max(0, policy.MaxRequests-int(count)),
		ResetTime: &resetTime,
	}, nil
}

func (svc *RateLimitService) Message(endpointType string) string {
	if policy, ok := svc.Policy(endpointType); ok && policy.Message != "" {
		return policy.Message
	}
	return "Too many requests. Please try again later."
}
