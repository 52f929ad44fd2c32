package middleware_test

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/pairup_api/middleware"
	"github.com/lac-hong-legacy/pairup_api/services"
	"github.com/lac-hong-legacy/pairup_api/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (m *memoryCounter) IncrementWindow(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, 0, m.err
	}
	m.counts[key]++
	return m.counts[key], window, nil
}

func newApp(counter *memoryCounter, max int) *fiber.App {
	limiter := services.NewRateLimitService(counter, services.RateLimitConfig{Window: time.Minute, Max: max})

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return shared.ResponseError(c, err, false)
		},
	})
	app.Use(middleware.RateLimit(limiter, services.PolicyGeneral))
	app.Get("/ping", func(c *fiber.Ctx) error {
		return shared.ResponseOK(c, "pong")
	})
	return app
}

func get(t *testing.T, app *fiber.App, ip string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, "/ping", nil)
	req.Header.Set(fiber.HeaderXForwardedFor, ip)
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode, resp.Header.Get("X-RateLimit-Remaining")
}

func TestRateLimit_RejectsAfterMax(t *testing.T) {
	app := newApp(&memoryCounter{counts: map[string]int64{}}, 3)

	for i := 0; i < 3; i++ {
		status, remaining := get(t, app, "10.0.0.1")
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, []string{"2", "1", "0"}[i], remaining)
	}

	status, _ := get(t, app, "10.0.0.1")
	assert.Equal(t, fiber.StatusTooManyRequests, status)

	// Other clients have their own window.
	status, _ = get(t, app, "10.0.0.2")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestRateLimit_FailsOpen(t *testing.T) {
	app := newApp(&memoryCounter{counts: map[string]int64{}, err: assert.AnError}, 1)

	for i := 0; i < 3; i++ {
		status, _ := get(t, app, "10.0.0.1")
		assert.Equal(t, fiber.StatusOK, status)
	}
}

func TestRateLimit_RetryAfterOnReject(t *testing.T) {
	app := newApp(&memoryCounter{counts: map[string]int64{}}, 1)

	get(t, app, "10.0.0.9")

	req := httptest.NewRequest(fiber.MethodGet, "/ping", nil)
	req.Header.Set(fiber.HeaderXForwardedFor, "10.0.0.9, 172.16.0.1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderRetryAfter))
}
