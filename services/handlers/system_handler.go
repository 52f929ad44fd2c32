package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/pairup_api/dto"
	"github.com/lac-hong-legacy/pairup_api/shared"
	log "github.com/sirupsen/logrus"
)

const (
	healthTimeout = 2 * time.Second

	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

type SystemHandler struct {
	deps   map[string]Pinger
	uptime func() time.Duration
}

func NewSystemHandler(deps map[string]Pinger, uptime func() time.Duration) *SystemHandler {
	return &SystemHandler{
		deps:   deps,
		uptime: uptime,
	}
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Produce json
// @Success 200 {object} shared.Response{data=string}
// @Router /ping [get]
func (h *SystemHandler) Ping(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "max-age=10")

	return shared.ResponseOK(c, "pong")
}

// @Summary Health
// @Description Liveness of the cache and the database
// @Tags health
// @Produce json
// @Success 200 {object} shared.Response{data=dto.HealthResponse}
// @Failure 503 {object} shared.Response{data=dto.HealthResponse}
// @Router /health [get]
func (h *SystemHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
	defer cancel()

	resp := dto.HealthResponse{
		Status:        statusHealthy,
		Checks:        make(map[string]string, len(h.deps)),
		UptimeSeconds: int64(h.uptime().Seconds()),
		Timestamp:     time.Now().Unix(),
	}

	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			log.WithError(err).WithField("dependency", name).Warn("Health check failed")
			resp.Checks[name] = statusUnhealthy
			resp.Status = statusUnhealthy
			continue
		}
		resp.Checks[name] = statusHealthy
	}

	if resp.Status != statusHealthy {
		return shared.ResponseJSON(c, fiber.StatusServiceUnavailable, "Service Unavailable", resp)
	}
	return shared.ResponseOK(c, resp)
}
