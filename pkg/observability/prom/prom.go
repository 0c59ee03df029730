// Package prom implements the observability hooks with Prometheus metrics.
//
// One [Metrics] value satisfies PipelineHooks, CacheHooks and HTTPHooks:
//
//	reg := prometheus.NewRegistry()
//	m := prom.New(reg)
//	m.Install()
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package prom

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/voltseed/pkg/observability"
)

// Estimate outcomes used as the "outcome" label.
const (
	OutcomeOK           = "ok"
	OutcomeFlatStart    = "flat_start"
	OutcomeStalled      = "stalled"
	OutcomeInconsistent = "inconsistent"
	OutcomeError        = "error"
)

// Metrics holds the voltseed collectors.
type Metrics struct {
	EstimatesTotal     *prometheus.CounterVec
	EstimateDuration   prometheus.Histogram
	EstimateSweeps     prometheus.Histogram
	EstimatesInFlight  prometheus.Gauge
	UnresolvedBuses    prometheus.Counter
	RendersTotal       *prometheus.CounterVec
	RenderDuration     *prometheus.HistogramVec
	CacheRequestsTotal *prometheus.CounterVec
	CacheWrittenBytes  *prometheus.CounterVec
	HTTPRequestsTotal  *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
	HTTPInFlight       prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EstimatesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voltseed_estimates_total",
				Help: "Total number of estimations by outcome",
			},
			[]string{"outcome"},
		),
		EstimateDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "voltseed_estimate_duration_seconds",
				Help:    "Estimation latency in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
		),
		EstimateSweeps: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "voltseed_estimate_sweeps",
				Help:    "Passes over pending transformers per estimation",
				Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
			},
		),
		EstimatesInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "voltseed_estimates_in_flight",
				Help: "Current number of estimations being computed",
			},
		),
		UnresolvedBuses: f.NewCounter(
			prometheus.CounterOpts{
				Name: "voltseed_unresolved_buses_total",
				Help: "Buses left without an estimate",
			},
		),
		RendersTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voltseed_renders_total",
				Help: "Total number of topology renders",
			},
			[]string{"format", "status"},
		),
		RenderDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "voltseed_render_duration_seconds",
				Help:    "Render latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format"},
		),
		CacheRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voltseed_cache_requests_total",
				Help: "Cache lookups by key type and result",
			},
			[]string{"key_type", "result"},
		),
		CacheWrittenBytes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voltseed_cache_written_bytes_total",
				Help: "Bytes written to the cache",
			},
			[]string{"key_type"},
		),
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voltseed_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "voltseed_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		HTTPInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "voltseed_http_requests_in_flight",
				Help: "Current number of HTTP requests being processed",
			},
		),
	}
}

// Outcome classifies a finished estimation for the "outcome" label.
func Outcome(ev observability.EstimateEvent) string {
	switch {
	case ev.Err != nil && !ev.Inconsistent:
		return OutcomeError
	case ev.Inconsistent:
		return OutcomeInconsistent
	case ev.FlatStart:
		return OutcomeFlatStart
	case ev.Stalled:
		return OutcomeStalled
	}
	return OutcomeOK
}

func (m *Metrics) OnEstimateStart(ctx context.Context, network string, buses int) {
	m.EstimatesInFlight.Inc()
}

func (m *Metrics) OnEstimateComplete(ctx context.Context, ev observability.EstimateEvent) {
	m.EstimatesInFlight.Dec()
	m.EstimatesTotal.WithLabelValues(Outcome(ev)).Inc()
	if ev.Err != nil && !ev.Inconsistent {
		return
	}
	m.EstimateDuration.Observe(ev.Duration.Seconds())
	m.EstimateSweeps.Observe(float64(ev.Sweeps))
	m.UnresolvedBuses.Add(float64(ev.Unresolved))
}

func (m *Metrics) OnRenderStart(ctx context.Context, format string) {}

func (m *Metrics) OnRenderComplete(ctx context.Context, format string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.RendersTotal.WithLabelValues(format, status).Inc()
	m.RenderDuration.WithLabelValues(format).Observe(duration.Seconds())
}

func (m *Metrics) OnCacheHit(ctx context.Context, keyType string) {
	m.CacheRequestsTotal.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(ctx context.Context, keyType string) {
	m.CacheRequestsTotal.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(ctx context.Context, keyType string, size int) {
	m.CacheWrittenBytes.WithLabelValues(keyType).Add(float64(size))
}

func (m *Metrics) OnRequest(ctx context.Context, method, route string) {
	m.HTTPInFlight.Inc()
}

func (m *Metrics) OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration) {
	m.HTTPInFlight.Dec()
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Install registers m as the global pipeline, cache and HTTP hooks.
func (m *Metrics) Install() {
	observability.SetPipelineHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

var (
	_ observability.PipelineHooks = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
	_ observability.HTTPHooks     = (*Metrics)(nil)
)
