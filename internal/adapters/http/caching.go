package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on endpoint.
// Handlers that set their own header win.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet {
			return err
		}
		if existing := c.GetRespHeader(fiber.HeaderCacheControl); existing != "" {
			return err
		}

		if ttl := cacheControlFor(c.Path()); ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}
		return err
	}
}

func cacheControlFor(path string) string {
	switch {
	case path == "/v1/health" || path == "/v1/ready":
		return "public, max-age=10"
	case path == "/metrics":
		return "no-cache"
	case strings.HasPrefix(path, "/ws"):
		return ""
	case strings.HasPrefix(path, "/v1/viewings"):
		return "no-store"
	case strings.HasPrefix(path, "/v1/geocode"):
		return "public, max-age=86400"
	case strings.HasPrefix(path, "/v1/viewport/"):
		return "public, max-age=3600"
	case strings.HasPrefix(path, "/v1/rooms/") && strings.HasSuffix(path, "/image"):
		return "public, max-age=1800"
	case strings.HasPrefix(path, "/v1/rooms/") && path != "/v1/rooms/nearby":
		return "public, max-age=600"
	case strings.HasPrefix(path, "/v1/"):
		return "public, max-age=300"
	}
	return ""
}
