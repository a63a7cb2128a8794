package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// Registry holds the gateway's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "scrumboard",
			Subsystem: "gateway",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight gateway requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scrumboard",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Total number of gateway requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scrumboard",
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Time until the gateway handler returned (response headers for proxied calls).",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	upstreamErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scrumboard",
			Subsystem: "proxy",
			Name:      "upstream_errors_total",
			Help:      "Requests answered with 502 because the upstream was unreachable.",
		},
		[]string{"upstream"},
	)

	rateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "scrumboard",
			Subsystem: "gateway",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		},
	)

	upstreamUp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "scrumboard",
			Subsystem: "proxy",
			Name:      "upstream_up",
			Help:      "1 if the last probe reached the upstream, 0 otherwise.",
		},
		[]string{"upstream"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		upstreamErrors,
		rateLimited,
		upstreamUp,
	)
}

// Middleware records request counts and latency per route pattern.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		httpInFlight.Inc()
		start := time.Now()
		err := c.Next()
		httpInFlight.Dec()

		status := c.Response().StatusCode()
		if err != nil {
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		route := c.Route().Path
		if route == "" || (route == "/" && c.Path() != "/") {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the registry in the Prometheus text format.
func Handler() fiber.Handler {
	h := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
	return func(c *fiber.Ctx) error {
		h(c.Context())
		return nil
	}
}

// RecordUpstreamError counts a request that failed to reach upstream.
func RecordUpstreamError(upstream string) {
	upstreamErrors.WithLabelValues(upstream).Inc()
}

func RecordRateLimited() {
	rateLimited.Inc()
}

// SetUpstreamUp publishes the last probe result for upstream.
func SetUpstreamUp(upstream string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	upstreamUp.WithLabelValues(upstream).Set(v)
}
