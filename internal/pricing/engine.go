package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/prakhar811/opticart-DAA/internal/domain"
	"github.com/prakhar811/opticart-DAA/internal/infra"
	"github.com/prakhar811/opticart-DAA/internal/strategy"
)

var hundred = decimal.NewFromInt(100)

// Engine re-derives product prices and records purchases.
type Engine struct {
	repo     domain.ProductRepository
	strategy strategy.Strategy
	tracker  *DemandTracker
	metrics  *infra.Metrics
	now      func() time.Time
}

// NewEngine creates a pricing engine over repo.
func NewEngine(repo domain.ProductRepository, strat strategy.Strategy, tracker *DemandTracker) *Engine {
	if strat == nil {
		strat = strategy.NewAsymmetricMomentum()
	}
	if tracker == nil {
		tracker = NewDemandTracker(DefaultWindow, DefaultBurst)
	}
	return &Engine{
		repo:     repo,
		strategy: strat,
		tracker:  tracker,
		metrics:  infra.GlobalMetrics,
		now:      time.Now,
	}
}

// WithClock overrides the time source (for testing).
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Reprice computes the next state of p at now. It returns the product as it
// will look after commit and the minimal update that gets it there.
func (e *Engine) Reprice(p domain.Product, now time.Time) (domain.Product, domain.ProductUpdate) {
	d := e.tracker.Observe(&p, now)
	upd := domain.ProductUpdate{ProductID: p.ID, Fields: d.Changed(&p)}

	momentum := e.strategy.Momentum(strategy.Signal{
		DemandRate:   d.DemandRate,
		StockPenalty: d.StockPenalty,
		BasePrice:    p.BasePrice,
		DynamicPrice: p.DynamicPrice,
	})
	price := NextPrice(p.DynamicPrice, p.BasePrice, momentum)

	if momentum != p.Momentum {
		upd.Fields["momentum"] = momentum
	}
	if !price.Equal(p.DynamicPrice) {
		upd.Fields["dynamic_price"] = price
	}
	if d.Pruned {
		upd.PruneBefore = now.Add(-e.tracker.Window())
	}

	next := p
	next.DemandScore = d.DemandScore
	next.SalesRate = d.SalesRate
	next.AvgRate = d.AvgRate
	next.DemandRate = d.DemandRate
	next.StockPenalty = d.StockPenalty
	next.Momentum = momentum
	next.DynamicPrice = price
	next.PurchaseHistory = d.Retained

	return next, upd
}

// PrepareTick reprices every product and collects the non-empty updates.
func (e *Engine) PrepareTick(products []domain.Product, now time.Time) (domain.TickBatch, []domain.Product) {
	batch := domain.TickBatch{At: now}
	next := make([]domain.Product, 0, len(products))
	for _, p := range products {
		n, upd := e.Reprice(p, now)
		next = append(next, n)
		if !upd.Empty() {
			batch.Updates = append(batch.Updates, upd)
		}
	}
	return batch, next
}

// Buy records one purchase of product id. Price and momentum are untouched
// until the next tick.
func (e *Engine) Buy(ctx context.Context, id uint) (*domain.Product, error) {
	p, err := e.repo.RecordPurchase(ctx, id, e.now(), uuid.NewString())
	if err != nil {
		if errors.Is(err, domain.ErrOutOfStock) {
			e.metrics.RecordOutOfStock()
		}
		return nil, fmt.Errorf("buy product %d: %w", id, err)
	}
	e.metrics.RecordPurchase()
	slog.Info("Purchase recorded",
		slog.Uint64("product_id", uint64(id)),
		slog.Int("stock", p.Stock),
		slog.String("price", p.DynamicPrice.String()),
	)
	return p, nil
}

// NextPrice applies momentum (percent) to current, clamps to the band of base
// and rounds to whole units, half away from zero. The band is snapped inward to
// whole units so rounding cannot leave it; if no whole unit fits in the band
// the unrounded clamp is returned.
func NextPrice(current, base decimal.Decimal, momentum int) decimal.Decimal {
	lo := base.Mul(domain.MinPriceFactor)
	hi := base.Mul(domain.MaxPriceFactor)

	raw := current.Mul(hundred.Add(decimal.NewFromInt(int64(momentum)))).Div(hundred)
	clamped := decimal.Min(decimal.Max(raw, lo), hi)

	wholeLo, wholeHi := lo.Ceil(), hi.Floor()
	if wholeLo.GreaterThan(wholeHi) {
		return clamped
	}
	return decimal.Min(decimal.Max(clamped.Round(0), wholeLo), wholeHi)
}
