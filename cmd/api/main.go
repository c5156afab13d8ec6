package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/roomradar/internal/adapters/gemini"
	"github.com/samirrijal/roomradar/internal/adapters/http"
	"github.com/samirrijal/roomradar/internal/adapters/mapbox"
	"github.com/samirrijal/roomradar/internal/adapters/memcache"
	natsadapter "github.com/samirrijal/roomradar/internal/adapters/nats"
	"github.com/samirrijal/roomradar/internal/adapters/roomsapi"
	"github.com/samirrijal/roomradar/internal/adapters/valkey"
	"github.com/samirrijal/roomradar/internal/core/ports"
	"github.com/samirrijal/roomradar/internal/core/usecases"
	"github.com/samirrijal/roomradar/internal/pkg/config"
	"github.com/samirrijal/roomradar/internal/pkg/logging"
	"github.com/samirrijal/roomradar/internal/pkg/telemetry"
	"github.com/samirrijal/roomradar/internal/pkg/upstream"
)

var version = "dev"

func main() {
	cfg, err := config.Load("roomradar-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	// Cache: in-process tier in front of valkey when it is reachable
	l1, err := memcache.New("api", 64<<20)
	if err != nil {
		log.Fatalf("memory cache: %v", err)
	}
	defer l1.Close()

	var (
		shared    ports.CacheService
		cachePing http.Pinger
	)
	vk, err := valkey.New(cfg.Valkey.Addr, "roomradar:")
	if err != nil {
		slog.Warn("valkey unavailable, caching in process only", "error", err)
	} else {
		defer vk.Close()
		shared, cachePing = vk, vk
	}
	cache := memcache.NewTiered(l1, shared)

	// NATS
	var (
		publisher  ports.EventPublisher
		brokerPing http.Pinger
	)
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, events disabled", "error", err)
	} else {
		defer pub.Close()
		publisher, brokerPing = pub, pub
	}

	// Upstreams
	rooms := roomsapi.New(cfg.RoomsAPI.BaseURL,
		upstream.WithTimeout(time.Duration(cfg.RoomsAPI.Timeout)*time.Second),
		upstream.WithRateLimit(cfg.RoomsAPI.RateLimit, cfg.RoomsAPI.Burst),
		upstream.WithRetries(cfg.RoomsAPI.MaxRetries, 200*time.Millisecond),
	)
	maps := mapbox.New(cfg.Mapbox.BaseURL, cfg.Mapbox.Token)
	if cfg.Mapbox.Token == "" {
		slog.Warn("mapbox token missing, geocoding and directions will fail")
	}

	var analyzer ports.RoomAnalyzer
	if ai, err := gemini.New(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model); err != nil {
		slog.Warn("AI comparison disabled", "error", err)
	} else {
		analyzer = ai
	}

	// Use cases
	roomSvc := usecases.NewRoomService(rooms, cache)
	deps := &http.Dependencies{
		Rooms:      roomSvc,
		Geocoding:  usecases.NewGeocodeService(maps, cache),
		Directions: usecases.NewDirectionsService(maps),
		Comparison: usecases.NewComparisonService(analyzer, roomSvc),
		Viewings:   usecases.NewViewingService(rooms, rooms, publisher),
		Publisher:  publisher,
		Viewport: http.ViewportSettings{
			Debounce:  cfg.Viewport.Debounce(),
			Threshold: cfg.Viewport.Threshold,
		},
		Cache:       cachePing,
		Broker:      brokerPing,
		CORSOrigins: cfg.Server.CORSOrigins,
		Version:     version,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "RoomRadar API",
	})
	app.Use(recover.New())

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "version", version)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
