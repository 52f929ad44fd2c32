package middleware

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/pairup_api/dto"
	"github.com/lac-hong-legacy/pairup_api/shared"
	log "github.com/sirupsen/logrus"
)

// Limiter decides whether one more request from identifier is allowed.
type Limiter interface {
	Allow(ctx context.Context, identifier, endpointType string) (*dto.RateLimitInfo, error)
	Message(endpointType string) string
}

// RateLimit creates a rate limiting middleware for an endpoint type. Requests
// are keyed by client IP. When the limiter itself fails the request goes
// through.
func RateLimit(limiter Limiter, endpointType string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := GetClientIP(c)

		info, err := limiter.Allow(c.UserContext(), ip, endpointType)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{"endpoint_type": endpointType, "ip": ip}).Warn("Rate limit check failed")
			return c.Next()
		}

		addRateLimitHeaders(c, info)

		if !info.Allowed {
			return shared.NewRateLimitError(limiter.Message(endpointType), info)
		}

		return c.Next()
	}
}

func addRateLimitHeaders(c *fiber.Ctx, info *dto.RateLimitInfo) {
	if info == nil {
		return
	}

	if info.Limit > 0 {
		c.Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
	}

	if info.Remaining >= 0 {
		c.Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
	}

	if info.ResetTime != nil {
		c.Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
		if !info.Allowed {
			retryAfter := int(time.Until(*info.ResetTime).Seconds())
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(max(1, retryAfter)))
		}
	}
}

// GetClientIP prefers proxy headers over the socket address.
func GetClientIP(c *fiber.Ctx) string {
	if forwarded := c.Get(fiber.HeaderXForwardedFor); forwarded != "" {
		ips := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(ips[0]); ip != "" {
			return ip
		}
	}

	if realIP := c.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	if cfIP := c.Get("CF-Connecting-IP"); cfIP != "" {
		return cfIP
	}

	addr := c.Context().RemoteAddr().String()
	ip, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return ip
}
