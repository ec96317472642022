package pricing

import (
	"time"

	"github.com/prakhar811/opticart-DAA/internal/domain"
)

const (
	DefaultWindow = 120 * time.Second
	DefaultBurst  = 30 * time.Second
)

// Demand is the set of metrics derived for one product at one instant.
type Demand struct {
	DemandScore  int
	SalesRate    int
	AvgRate      float64
	DemandRate   float64
	StockPenalty float64

	// Retained holds the purchase history left after pruning.
	Retained []domain.Purchase
	Pruned   bool
}

// DemandTracker derives demand metrics from a trailing purchase window.
type DemandTracker struct {
	window time.Duration
	burst  time.Duration
}

// NewDemandTracker creates a tracker. Non-positive durations use the defaults.
func NewDemandTracker(window, burst time.Duration) *DemandTracker {
	if window <= 0 {
		window = DefaultWindow
	}
	if burst <= 0 || burst > window {
		burst = DefaultBurst
	}
	return &DemandTracker{window: window, burst: burst}
}

// Window returns the trailing history length.
func (t *DemandTracker) Window() time.Duration { return t.window }

// buckets is how many burst intervals fit in the window (4 by default).
func (t *DemandTracker) buckets() float64 {
	return float64(t.window) / float64(t.burst)
}

// Observe computes the metrics of p as of now. p is not modified.
func (t *DemandTracker) Observe(p *domain.Product, now time.Time) Demand {
	cutoff := now.Add(-t.window)
	burstCutoff := now.Add(-t.burst)

	retained := make([]domain.Purchase, 0, len(p.PurchaseHistory))
	sales := 0
	for _, h := range p.PurchaseHistory {
		if h.At.Before(cutoff) {
			continue
		}
		retained = append(retained, h)
		if !h.At.Before(burstCutoff) {
			sales++
		}
	}

	d := Demand{
		DemandScore:  len(retained),
		SalesRate:    sales,
		StockPenalty: p.CurrentStockPenalty(),
		Retained:     retained,
		Pruned:       len(retained) != len(p.PurchaseHistory),
	}
	d.AvgRate = float64(d.DemandScore) / t.buckets()
	if d.AvgRate > 0 {
		d.DemandRate = float64(d.SalesRate) / d.AvgRate
	}
	return d
}

// Changed lists the product columns whose stored metric differs from d.
func (d Demand) Changed(p *domain.Product) map[string]any {
	fields := make(map[string]any, 5)
	if d.DemandScore != p.DemandScore {
		fields["demand_score"] = d.DemandScore
	}
	if d.SalesRate != p.SalesRate {
		fields["sales_rate"] = d.SalesRate
	}
	if d.AvgRate != p.AvgRate {
		fields["avg_rate"] = d.AvgRate
	}
	if d.DemandRate != p.DemandRate {
		fields["demand_rate"] = d.DemandRate
	}
	if d.StockPenalty != p.StockPenalty {
		fields["stock_penalty"] = d.StockPenalty
	}
	return fields
}
