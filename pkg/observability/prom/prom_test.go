package prom

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/matzehuels/voltseed/pkg/observability"
)

// value reads the current value of a counter or gauge.
func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var metric dto.Metric
	if err := m.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if c := metric.GetCounter(); c != nil {
		return c.GetValue()
	}
	return metric.GetGauge().GetValue()
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		name string
		ev   observability.EstimateEvent
		want string
	}{
		{"ok", observability.EstimateEvent{}, OutcomeOK},
		{"flat start", observability.EstimateEvent{FlatStart: true}, OutcomeFlatStart},
		{"stalled", observability.EstimateEvent{Stalled: true}, OutcomeStalled},
		{"inconsistent", observability.EstimateEvent{Inconsistent: true, Err: errors.New("x"), FlatStart: true}, OutcomeInconsistent},
		{"error", observability.EstimateEvent{Err: errors.New("x")}, OutcomeError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Outcome(tt.ev); got != tt.want {
				t.Errorf("Outcome() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEstimateMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())
	ctx := context.Background()

	m.OnEstimateStart(ctx, "feeder", 10)
	if got := value(t, m.EstimatesInFlight); got != 1 {
		t.Errorf("in flight = %v, want 1", got)
	}
	m.OnEstimateComplete(ctx, observability.EstimateEvent{Sweeps: 2, Unresolved: 3, Duration: time.Millisecond})
	m.OnEstimateStart(ctx, "feeder", 10)
	m.OnEstimateComplete(ctx, observability.EstimateEvent{FlatStart: true})

	if got := value(t, m.EstimatesInFlight); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}
	if got := value(t, m.EstimatesTotal.WithLabelValues(OutcomeOK)); got != 1 {
		t.Errorf("ok estimates = %v, want 1", got)
	}
	if got := value(t, m.EstimatesTotal.WithLabelValues(OutcomeFlatStart)); got != 1 {
		t.Errorf("flat start estimates = %v, want 1", got)
	}
	if got := value(t, m.UnresolvedBuses); got != 3 {
		t.Errorf("unresolved buses = %v, want 3", got)
	}
}

func TestCacheAndHTTPMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	ctx := context.Background()

	m.OnCacheHit(ctx, "result")
	m.OnCacheMiss(ctx, "result")
	m.OnCacheMiss(ctx, "result")
	m.OnCacheSet(ctx, "result", 512)
	m.OnRequest(ctx, "POST", "/v1/estimate")
	m.OnResponse(ctx, "POST", "/v1/estimate", 200, 5*time.Millisecond)
	m.OnRenderComplete(ctx, "svg", time.Millisecond, errors.New("boom"))

	if got := value(t, m.CacheRequestsTotal.WithLabelValues("result", "miss")); got != 2 {
		t.Errorf("cache misses = %v, want 2", got)
	}
	if got := value(t, m.CacheWrittenBytes.WithLabelValues("result")); got != 512 {
		t.Errorf("written bytes = %v, want 512", got)
	}
	if got := value(t, m.HTTPRequestsTotal.WithLabelValues("POST", "/v1/estimate", "200")); got != 1 {
		t.Errorf("http requests = %v, want 1", got)
	}
	if got := value(t, m.RendersTotal.WithLabelValues("svg", "error")); got != 1 {
		t.Errorf("failed renders = %v, want 1", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}
	found := false
	for _, mf := range families {
		if mf.GetName() == "voltseed_cache_requests_total" {
			found = true
			if n := len(mf.GetMetric()); n != 2 {
				t.Errorf("cache request series = %d, want 2", n)
			}
		}
	}
	if !found {
		t.Error("voltseed_cache_requests_total not gathered")
	}
}

func TestNewRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	defer func() {
		if recover() == nil {
			t.Error("registering twice should panic")
		}
	}()
	New(reg)
}
