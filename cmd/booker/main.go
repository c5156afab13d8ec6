package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/roomradar/internal/adapters/nats"
	"github.com/samirrijal/roomradar/internal/adapters/roomsapi"
	"github.com/samirrijal/roomradar/internal/adapters/sms"
	"github.com/samirrijal/roomradar/internal/core/domain"
	"github.com/samirrijal/roomradar/internal/core/ports"
	"github.com/samirrijal/roomradar/internal/pkg/config"
	"github.com/samirrijal/roomradar/internal/pkg/logging"
	"github.com/samirrijal/roomradar/internal/pkg/telemetry"
	"github.com/samirrijal/roomradar/internal/pkg/upstream"
	"github.com/samirrijal/roomradar/internal/workflows"
)

// booker turns booked viewings into SMS notifications. It consumes
// viewing events from NATS, starts one Temporal workflow per booking and
// runs the worker executing those workflows.
func main() {
	cfg, err := config.Load("roomradar-booker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    tlog.NewStructuredLogger(slog.Default()),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	var notifier ports.NotificationService
	if tw, err := sms.NewTwilioService(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber); err != nil {
		slog.Warn("twilio not configured, SMS will only be logged", "error", err)
		notifier = sms.NewLogService()
	} else {
		notifier = tw
	}

	rooms := roomsapi.New(cfg.RoomsAPI.BaseURL,
		upstream.WithTimeout(time.Duration(cfg.RoomsAPI.Timeout)*time.Second),
		upstream.WithRateLimit(cfg.RoomsAPI.RateLimit, cfg.RoomsAPI.Burst),
		upstream.WithRetries(cfg.RoomsAPI.MaxRetries, 200*time.Millisecond),
	)

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.ViewingWorkflow)
	w.RegisterActivity(&workflows.ViewingActivities{
		Rooms:    rooms,
		Notifier: notifier,
	})

	// Viewing events → workflows
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer sub.Close()

	var starter ports.WorkflowStarter = workflows.NewStarter(c, cfg.Temporal.TaskQueue)
	err = sub.SubscribeViewingRequests(ctx, func(ctx context.Context, event *domain.ViewingRequested) error {
		runID, err := starter.StartViewingWorkflow(ctx, event)
		if err != nil {
			return err
		}
		slog.Info("viewing workflow started",
			"viewing_id", event.Viewing.ID,
			"room_id", event.Viewing.RoomID,
			"run_id", runID,
		)
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe viewings: %v", err)
	}

	slog.Info("booker worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
