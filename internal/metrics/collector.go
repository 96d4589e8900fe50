// Package metrics exposes Prometheus metrics for the back-office.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/estr/backoffice/internal/application/dispatcher"
	"github.com/estr/backoffice/internal/domain/event"
	"github.com/estr/backoffice/internal/jobprogress"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "estr_backoffice"

// Collector owns the registry and every metric
type Collector struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	actionsTotal *prometheus.CounterVec
	eventsTotal  *prometheus.CounterVec

	coreCallsTotal   *prometheus.CounterVec
	coreCallDuration *prometheus.HistogramVec

	jobProgressPercent prometheus.Gauge
	jobsByState        *prometheus.GaugeVec
}

// NewCollector creates a Collector with its own registry, including the Go
// runtime and process collectors
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		actionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "actions_total",
				Help:      "User actions by subject, action, role and outcome",
			},
			[]string{"subject", "action", "role", "outcome"},
		),
		eventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Domain events dispatched by type",
			},
			[]string{"type"},
		),

		coreCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "core_api_calls_total",
				Help:      "Calls to the core API by operation and result",
			},
			[]string{"operation", "result"},
		),
		coreCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "core_api_call_duration_seconds",
				Help:      "Core API call latency",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"},
		),

		jobProgressPercent: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "job_progress_percent",
			Help:      "Aggregate progress of the current detection batch",
		}),
		jobsByState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "jobs",
				Help:      "Detection jobs of the current batch by state",
			},
			[]string{"state"},
		),
	}
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// GinMiddleware records request count and latency per route template
func (c *Collector) GinMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		c.httpRequestsTotal.WithLabelValues(ctx.Request.Method, route, strconv.Itoa(ctx.Writer.Status())).Inc()
		c.httpRequestDuration.WithLabelValues(ctx.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// ObserveAction counts one user action
func (c *Collector) ObserveAction(subject, action, role, outcome string) {
	c.actionsTotal.WithLabelValues(subject, action, role, outcome).Inc()
}

// ObserveCoreCall records one core API call
func (c *Collector) ObserveCoreCall(operation string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.coreCallsTotal.WithLabelValues(operation, result).Inc()
	c.coreCallDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// ObserveProgress mirrors a job progress snapshot into gauges
func (c *Collector) ObserveProgress(snap jobprogress.Snapshot) {
	c.jobProgressPercent.Set(snap.Percent)
	c.jobsByState.WithLabelValues("running").Set(float64(snap.RunningCount))
	c.jobsByState.WithLabelValues("completed").Set(float64(snap.CompletedCount))
	c.jobsByState.WithLabelValues("skipped").Set(float64(snap.SkippedCount))
	c.jobsByState.WithLabelValues("failed").Set(float64(snap.FailedCount))
	c.jobsByState.WithLabelValues("pending").Set(float64(snap.PendingCount))
}

// EventHandler counts dispatched domain events
func (c *Collector) EventHandler() dispatcher.Handler {
	return func(_ context.Context, evt *event.Event) error {
		c.eventsTotal.WithLabelValues(evt.Type.String()).Inc()
		return nil
	}
}
