package infra

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_RecordTick(t *testing.T) {
	m := &Metrics{}

	m.RecordTick(1000*time.Nanosecond, 2)
	m.RecordTick(2000*time.Nanosecond, 0)
	m.RecordTick(3000*time.Nanosecond, 1)

	snap := m.Snapshot()

	if snap.TicksTotal != 3 {
		t.Errorf("Expected 3 ticks, got %d", snap.TicksTotal)
	}
	if snap.ProductsRepriced != 3 {
		t.Errorf("Expected 3 repriced products, got %d", snap.ProductsRepriced)
	}

	// Average latency: (1000 + 2000 + 3000) / 3 = 2000
	if snap.AvgTickLatencyNs != 2000 {
		t.Errorf("Expected avg latency 2000, got %d", snap.AvgTickLatencyNs)
	}
}

func TestMetrics_TickFailure(t *testing.T) {
	m := &Metrics{}

	m.RecordTick(time.Millisecond, 1)
	m.RecordTickFailure()

	snap := m.Snapshot()
	if snap.TicksTotal != 2 || snap.TicksFailed != 1 {
		t.Errorf("Expected 2 ticks / 1 failed, got %d / %d", snap.TicksTotal, snap.TicksFailed)
	}
	// Failed ticks do not contribute latency samples
	if snap.AvgTickLatencyNs != int64(time.Millisecond) {
		t.Errorf("Expected avg latency 1ms, got %d", snap.AvgTickLatencyNs)
	}
}

func TestMetrics_Clients(t *testing.T) {
	m := &Metrics{}

	m.IncrementClients()
	m.IncrementClients()
	m.IncrementClients()

	snap := m.Snapshot()
	if snap.WSClients != 3 {
		t.Errorf("Expected 3 clients, got %d", snap.WSClients)
	}

	m.DecrementClients()
	snap = m.Snapshot()
	if snap.WSClients != 2 {
		t.Errorf("Expected 2 clients, got %d", snap.WSClients)
	}
}

func TestMetrics_Reset(t *testing.T) {
	m := &Metrics{}

	m.RecordTick(time.Second, 4)
	m.RecordPurchase()
	m.RecordOutOfStock()
	m.RecordOptimize(OptimizeFailed)
	m.RecordGeometryFailure()
	m.IncrementClients()

	m.Reset()

	snap := m.Snapshot()
	if snap.TicksTotal != 0 || snap.PurchasesTotal != 0 || snap.OutOfStockTotal != 0 ||
		snap.OptimizeRequests != 0 || snap.GeometryFailures != 0 || snap.WSClients != 0 {
		t.Errorf("Expected all metrics zero after reset, got %+v", snap)
	}
}

func TestMetrics_Collector(t *testing.T) {
	m := &Metrics{}
	m.RecordPurchase()
	m.RecordPurchase()
	m.RecordOutOfStock()
	m.RecordGeometryFailure()

	reg := prometheus.NewPedanticRegistry()
	if err := reg.Register(m.Collector()); err != nil {
		t.Fatalf("register collector: %v", err)
	}

	expected := `
# HELP opticart_purchases_total Buy requests, by outcome.
# TYPE opticart_purchases_total counter
opticart_purchases_total{outcome="accepted"} 2
opticart_purchases_total{outcome="out_of_stock"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "opticart_purchases_total"); err != nil {
		t.Errorf("unexpected collector output: %v", err)
	}

	if got := testutil.ToFloat64(geometryOnly{m}); got != 1 {
		t.Errorf("geometry failures = %v, want 1", got)
	}
}

func TestMetrics_OptimizeOutcomes(t *testing.T) {
	m := &Metrics{}
	m.RecordOptimize(OptimizeOK)
	m.RecordOptimize(OptimizeOK)
	m.RecordOptimize(OptimizeInvalid)
	m.RecordOptimize(OptimizeFailed)
	m.RecordTick(time.Millisecond, 1)
	m.RecordTickFailure()

	snap := m.Snapshot()
	if snap.OptimizeRequests != 4 || snap.OptimizeOK != 2 || snap.OptimizeInvalid != 1 || snap.OptimizeFailures != 1 {
		t.Errorf("unexpected optimize counters: %+v", snap)
	}

	reg := prometheus.NewPedanticRegistry()
	if err := reg.Register(m.Collector()); err != nil {
		t.Fatalf("register collector: %v", err)
	}

	expected := `
# HELP opticart_optimize_requests_total Route optimization requests, by outcome.
# TYPE opticart_optimize_requests_total counter
opticart_optimize_requests_total{outcome="failed"} 1
opticart_optimize_requests_total{outcome="invalid_input"} 1
opticart_optimize_requests_total{outcome="ok"} 2
# HELP opticart_pricing_ticks_total Pricing ticks run, by outcome.
# TYPE opticart_pricing_ticks_total counter
opticart_pricing_ticks_total{outcome="committed"} 1
opticart_pricing_ticks_total{outcome="failed"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"opticart_optimize_requests_total", "opticart_pricing_ticks_total"); err != nil {
		t.Errorf("unexpected collector output: %v", err)
	}
}

// geometryOnly narrows the collector to a single metric for testutil.ToFloat64.
type geometryOnly struct{ m *Metrics }

func (g geometryOnly) Describe(ch chan<- *prometheus.Desc) { ch <- descGeometry }

func (g geometryOnly) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(descGeometry, prometheus.CounterValue, float64(g.m.Snapshot().GeometryFailures))
}
