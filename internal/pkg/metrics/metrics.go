package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/samirrijal/roomradar/internal/core/domain"
)

const namespace = "roomradar"

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Viewport controller
	RadiusEmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "viewport",
		Name:      "radius_emissions_total",
		Help:      "Radius queries emitted by map sessions",
	}, []string{"reason"})

	RadiusDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "viewport",
		Name:      "radius_discarded_total",
		Help:      "Radius candidates dropped by the significance filter",
	})

	EmittedRadius = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "viewport",
		Name:      "emitted_radius_meters",
		Help:      "Distribution of emitted search radii",
		Buckets:   []float64{5000, 7500, 10000, 15000, 20000, 30000, 40000, 50000},
	})

	MapSessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ws",
		Name:      "map_sessions_active",
		Help:      "Current number of open map sessions",
	})

	// Outbound calls
	upstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "upstream",
		Name:      "request_duration_seconds",
		Help:      "Latency of calls to external services",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"service", "op"})

	upstreamErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "upstream",
		Name:      "errors_total",
		Help:      "Failed calls to external services",
	}, []string{"service", "op"})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"tier", "operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"tier", "operation"})

	// Viewings
	ViewingsRequested = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "viewings",
		Name:      "requested_total",
		Help:      "Viewing requests accepted",
	})

	SMSSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "viewings",
		Name:      "sms_sent_total",
		Help:      "SMS notifications by recipient and outcome",
	}, []string{"recipient", "status"})
)

// ObserveUpstream records the latency and outcome of an outbound call
// started at start.
func ObserveUpstream(service, op string, start time.Time, err error) {
	upstreamDuration.WithLabelValues(service, op).Observe(time.Since(start).Seconds())
	if err != nil {
		upstreamErrors.WithLabelValues(service, op).Inc()
	}
}

// ViewportObserver feeds controller decisions into Prometheus.
type ViewportObserver struct{}

func (ViewportObserver) RadiusEmitted(q domain.RadiusQuery, initial bool) {
	reason := "reconciled"
	if initial {
		reason = "initial"
	}
	RadiusEmissions.WithLabelValues(reason).Inc()
	EmittedRadius.Observe(q.RadiusMeters)
}

func (ViewportObserver) RadiusDiscarded(_, _ float64) {
	RadiusDiscarded.Inc()
}

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		// fiber resolves the route pattern, which keeps :id out of the labels
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	}
}
