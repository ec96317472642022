package infra

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics provides lightweight observability for the pricing and routing paths.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Pricing
	ticksCommitted   atomic.Uint64
	ticksFailed      atomic.Uint64
	productsRepriced atomic.Uint64
	purchasesTotal   atomic.Uint64
	outOfStockTotal  atomic.Uint64

	// Routing
	optimizeOK       atomic.Uint64
	optimizeInvalid  atomic.Uint64
	optimizeFailures atomic.Uint64
	geometryFailures atomic.Uint64

	// Tick latency tracking
	tickLatencySumNs atomic.Int64
	tickLatencyCount atomic.Uint64

	// Gauges
	wsClients atomic.Int32
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// OptimizeOutcome classifies a finished optimize request.
type OptimizeOutcome int

const (
	OptimizeOK OptimizeOutcome = iota + 1
	OptimizeInvalid
	OptimizeFailed
)

// String returns the metric label of the outcome
func (o OptimizeOutcome) String() string {
	switch o {
	case OptimizeOK:
		return "ok"
	case OptimizeInvalid:
		return "invalid_input"
	case OptimizeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RecordTick records a committed tick with its latency and number of changed products.
func (m *Metrics) RecordTick(latency time.Duration, changed int) {
	m.ticksCommitted.Add(1)
	m.productsRepriced.Add(uint64(changed))
	m.tickLatencySumNs.Add(latency.Nanoseconds())
	m.tickLatencyCount.Add(1)
}

// RecordTickFailure records a discarded tick.
func (m *Metrics) RecordTickFailure() {
	m.ticksFailed.Add(1)
}

// RecordPurchase records an accepted buy.
func (m *Metrics) RecordPurchase() {
	m.purchasesTotal.Add(1)
}

// RecordOutOfStock records a rejected buy.
func (m *Metrics) RecordOutOfStock() {
	m.outOfStockTotal.Add(1)
}

// RecordOptimize records a finished optimize request by outcome.
func (m *Metrics) RecordOptimize(outcome OptimizeOutcome) {
	switch outcome {
	case OptimizeOK:
		m.optimizeOK.Add(1)
	case OptimizeInvalid:
		m.optimizeInvalid.Add(1)
	default:
		m.optimizeFailures.Add(1)
	}
}

// RecordGeometryFailure records one absorbed provider failure.
func (m *Metrics) RecordGeometryFailure() {
	m.geometryFailures.Add(1)
}

// IncrementClients increments connected websocket clients by 1.
func (m *Metrics) IncrementClients() {
	m.wsClients.Add(1)
}

// DecrementClients decrements connected websocket clients by 1.
func (m *Metrics) DecrementClients() {
	m.wsClients.Add(-1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	TicksTotal       uint64
	TicksCommitted   uint64
	TicksFailed      uint64
	ProductsRepriced uint64
	PurchasesTotal   uint64
	OutOfStockTotal  uint64
	OptimizeRequests uint64
	OptimizeOK       uint64
	OptimizeInvalid  uint64
	OptimizeFailures uint64
	GeometryFailures uint64
	AvgTickLatencyNs int64
	WSClients        int32
	Timestamp        time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.tickLatencyCount.Load()
	if count > 0 {
		avgLatency = m.tickLatencySumNs.Load() / int64(count)
	}

	// Each outcome is its own counter; totals are derived so no exported
	// series can decrease between two loads.
	s := MetricsSnapshot{
		TicksCommitted:   m.ticksCommitted.Load(),
		TicksFailed:      m.ticksFailed.Load(),
		ProductsRepriced: m.productsRepriced.Load(),
		PurchasesTotal:   m.purchasesTotal.Load(),
		OutOfStockTotal:  m.outOfStockTotal.Load(),
		OptimizeOK:       m.optimizeOK.Load(),
		OptimizeInvalid:  m.optimizeInvalid.Load(),
		OptimizeFailures: m.optimizeFailures.Load(),
		GeometryFailures: m.geometryFailures.Load(),
		AvgTickLatencyNs: avgLatency,
		WSClients:        m.wsClients.Load(),
		Timestamp:        time.Now(),
	}
	s.TicksTotal = s.TicksCommitted + s.TicksFailed
	s.OptimizeRequests = s.OptimizeOK + s.OptimizeInvalid + s.OptimizeFailures
	return s
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.ticksCommitted.Store(0)
	m.ticksFailed.Store(0)
	m.productsRepriced.Store(0)
	m.purchasesTotal.Store(0)
	m.outOfStockTotal.Store(0)
	m.optimizeOK.Store(0)
	m.optimizeInvalid.Store(0)
	m.optimizeFailures.Store(0)
	m.geometryFailures.Store(0)
	m.tickLatencySumNs.Store(0)
	m.tickLatencyCount.Store(0)
	m.wsClients.Store(0)
}

var (
	descTicks = prometheus.NewDesc("opticart_pricing_ticks_total",
		"Pricing ticks run, by outcome.", []string{"outcome"}, nil)
	descRepriced = prometheus.NewDesc("opticart_pricing_products_updated_total",
		"Products with at least one changed field across committed ticks.", nil, nil)
	descPurchases = prometheus.NewDesc("opticart_purchases_total",
		"Buy requests, by outcome.", []string{"outcome"}, nil)
	descOptimize = prometheus.NewDesc("opticart_optimize_requests_total",
		"Route optimization requests, by outcome.", []string{"outcome"}, nil)
	descGeometry = prometheus.NewDesc("opticart_geometry_failures_total",
		"Road geometry requests that fell back to an empty segment.", nil, nil)
	descTickLatency = prometheus.NewDesc("opticart_pricing_tick_latency_seconds_avg",
		"Average latency of committed pricing ticks.", nil, nil)
	descClients = prometheus.NewDesc("opticart_ws_clients",
		"Connected websocket clients.", nil, nil)
)

// Collector exposes m to a prometheus registry. Values are read at scrape time.
func (m *Metrics) Collector() prometheus.Collector {
	return metricsCollector{m: m}
}

type metricsCollector struct {
	m *Metrics
}

func (c metricsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- descTicks
	ch <- descRepriced
	ch <- descPurchases
	ch <- descOptimize
	ch <- descGeometry
	ch <- descTickLatency
	ch <- descClients
}

func (c metricsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.m.Snapshot()

	ch <- prometheus.MustNewConstMetric(descTicks, prometheus.CounterValue, float64(s.TicksCommitted), "committed")
	ch <- prometheus.MustNewConstMetric(descTicks, prometheus.CounterValue, float64(s.TicksFailed), "failed")
	ch <- prometheus.MustNewConstMetric(descRepriced, prometheus.CounterValue, float64(s.ProductsRepriced))
	ch <- prometheus.MustNewConstMetric(descPurchases, prometheus.CounterValue, float64(s.PurchasesTotal), "accepted")
	ch <- prometheus.MustNewConstMetric(descPurchases, prometheus.CounterValue, float64(s.OutOfStockTotal), "out_of_stock")
	ch <- prometheus.MustNewConstMetric(descOptimize, prometheus.CounterValue, float64(s.OptimizeOK), OptimizeOK.String())
	ch <- prometheus.MustNewConstMetric(descOptimize, prometheus.CounterValue, float64(s.OptimizeInvalid), OptimizeInvalid.String())
	ch <- prometheus.MustNewConstMetric(descOptimize, prometheus.CounterValue, float64(s.OptimizeFailures), OptimizeFailed.String())
	ch <- prometheus.MustNewConstMetric(descGeometry, prometheus.CounterValue, float64(s.GeometryFailures))
	ch <- prometheus.MustNewConstMetric(descTickLatency, prometheus.GaugeValue, time.Duration(s.AvgTickLatencyNs).Seconds())
	ch <- prometheus.MustNewConstMetric(descClients, prometheus.GaugeValue, float64(s.WSClients))
}
