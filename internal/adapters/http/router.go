package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/roomradar/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// legacyRoutes are kept for old clients until their sunset date.
var legacyRoutes = []DeprecatedRoute{
	{
		Path:        "/v1/rooms/nearby",
		SunsetDate:  time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC),
		Alternative: "/v1/rooms",
	},
}

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	if deps.CORSOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: deps.CORSOrigins,
			AllowMethods: "GET,POST,OPTIONS",
		}))
	}

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/metrics"
		},
		LimitReached: func(c *fiber.Ctx) error {
			return errRateLimited(c, "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())
	app.Use(DeprecationMiddleware(legacyRoutes))

	// Health & readiness (no timeout)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Get("/rooms", timeout.NewWithContext(ListRoomsHandler(deps), requestTimeout))
	v1.Get("/rooms/nearby", timeout.NewWithContext(NearbyRoomsHandler(deps), requestTimeout))
	v1.Get("/rooms/:id", timeout.NewWithContext(GetRoomHandler(deps), requestTimeout))
	v1.Get("/rooms/:id/image", timeout.NewWithContext(RoomImageHandler(deps), requestTimeout))
	v1.Get("/viewport/radius", ViewportRadiusHandler())
	v1.Get("/geocode", timeout.NewWithContext(GeocodeHandler(deps), requestTimeout))
	v1.Get("/geocode/reverse", timeout.NewWithContext(ReverseGeocodeHandler(deps), requestTimeout))
	v1.Get("/directions", timeout.NewWithContext(DirectionsHandler(deps), requestTimeout))
	v1.Post("/compare", timeout.NewWithContext(CompareHandler(deps), 45*time.Second))
	v1.Get("/viewings", timeout.NewWithContext(ListViewingsHandler(deps), requestTimeout))
	v1.Post("/viewings", timeout.NewWithContext(CreateViewingHandler(deps), requestTimeout))

	app.Post("/graphql", GraphQLHandler(deps))

	SetupDocs(app)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/map", websocket.New(MapSessionHandler(deps)))
}
