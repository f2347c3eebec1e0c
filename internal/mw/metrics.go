package mw

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"casilleros-backend/internal/model"
	"casilleros-backend/internal/store"
)

const outcomeKey = "mw.outcome"

// Outcomes recorded for a request besides the failure kinds set by handlers.
const (
	OutcomeOK          = "ok"
	OutcomeRateLimited = "rate_limited"
	OutcomeError       = "error"
)

// SetOutcome records how a request ended. Handlers call it with OutcomeOK or
// with the failure kind of the response envelope.
func SetOutcome(c *gin.Context, outcome string) {
	c.Set(outcomeKey, outcome)
}

// Outcome returns the recorded outcome, falling back to the HTTP status.
func Outcome(c *gin.Context) string {
	if v := c.GetString(outcomeKey); v != "" {
		return v
	}
	if c.Writer.Status() >= http.StatusBadRequest {
		return OutcomeError
	}
	return OutcomeOK
}

// Metrics holds the HTTP request instruments.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the request instruments on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "casilleros",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and outcome.",
		}, []string{"route", "method", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "casilleros",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// Handler returns the middleware that observes every request.
func (m *Metrics) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(route, c.Request.Method, Outcome(c)).Inc()
		m.duration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// LockerCollector exports the current locker counts by state. The store is
// queried on every scrape.
type LockerCollector struct {
	store   store.Store
	log     *zap.Logger
	timeout time.Duration
	lockers *prometheus.Desc
}

// NewLockerCollector creates a collector reading from s.
func NewLockerCollector(s store.Store, log *zap.Logger) *LockerCollector {
	if log == nil {
		log = zap.NewNop()
	}
	return &LockerCollector{
		store:   s,
		log:     log,
		timeout: 5 * time.Second,
		lockers: prometheus.NewDesc(
			"casilleros_lockers",
			"Number of lockers by state.",
			[]string{"estado"}, nil,
		),
	}
}

func (lc *LockerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- lc.lockers
}

func (lc *LockerCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), lc.timeout)
	defer cancel()

	stats, err := lc.store.Stats(ctx)
	if err != nil {
		lc.log.Warn("collect locker stats", zap.Error(err))
		return
	}
	ch <- prometheus.MustNewConstMetric(lc.lockers, prometheus.GaugeValue, float64(stats.Available), string(model.StateAvailable))
	ch <- prometheus.MustNewConstMetric(lc.lockers, prometheus.GaugeValue, float64(stats.Occupied), string(model.StateOccupied))
	ch <- prometheus.MustNewConstMetric(lc.lockers, prometheus.GaugeValue, float64(stats.Damaged), string(model.StateDamaged))
}
