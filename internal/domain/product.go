package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Price band multipliers around BasePrice.
var (
	MinPriceFactor = decimal.NewFromFloat(0.5)
	MaxPriceFactor = decimal.NewFromFloat(1.75)
)

// Tier labels shown next to a product.
const (
	TierOutOfStock = "OUT OF STOCK"
	TierLimited    = "HURRY! LIMITED STOCK"
	TierTrending   = "TRENDING"
	TierDiscount   = "DISCOUNT AVAILABLE"
	TierBestPrice  = "BEST PRICE"
)

// PriceBand returns the inclusive [min, max] range DynamicPrice must stay in.
func (p *Product) PriceBand() (decimal.Decimal, decimal.Decimal) {
	return p.BasePrice.Mul(MinPriceFactor), p.BasePrice.Mul(MaxPriceFactor)
}

// InBand reports whether DynamicPrice lies within the price band.
func (p *Product) InBand() bool {
	lo, hi := p.PriceBand()
	return p.DynamicPrice.GreaterThanOrEqual(lo) && p.DynamicPrice.LessThanOrEqual(hi)
}

// CurrentStockPenalty is the fraction of stock already sold, in [0, 1].
// A product without total stock counts as sold out.
func (p *Product) CurrentStockPenalty() float64 {
	if p.TotalStock <= 0 {
		return 1
	}
	penalty := 1 - float64(p.Stock)/float64(p.TotalStock)
	switch {
	case penalty < 0:
		return 0
	case penalty > 1:
		return 1
	}
	return penalty
}

// Tier derives the display label from the last committed metrics.
func (p *Product) Tier() string {
	switch {
	case p.Stock <= 0 || p.StockPenalty >= 1:
		return TierOutOfStock
	case p.StockPenalty >= 0.8:
		return TierLimited
	case p.DemandRate >= 1.5:
		return TierTrending
	case p.DynamicPrice.LessThan(p.BasePrice):
		return TierDiscount
	default:
		return TierBestPrice
	}
}

// HistoryTimes returns purchase timestamps in insertion order.
func (p *Product) HistoryTimes() []time.Time {
	out := make([]time.Time, len(p.PurchaseHistory))
	for i, h := range p.PurchaseHistory {
		out[i] = h.At
	}
	return out
}

// ProductUpdate is the set of changed columns for one product in a tick.
// PruneBefore, when non-zero, removes purchase history older than it.
type ProductUpdate struct {
	ProductID   uint
	Fields      map[string]any
	PruneBefore time.Time
}

// Empty reports whether the update carries no change at all.
func (u ProductUpdate) Empty() bool {
	return len(u.Fields) == 0 && u.PruneBefore.IsZero()
}

// TickBatch is everything one scheduler tick wants to commit.
type TickBatch struct {
	At      time.Time
	Updates []ProductUpdate
}

// ProductView is a product as served to clients, with derived labels.
type ProductView struct {
	Product
	Tier string `json:"tier"`
}

// NewProductView derives the presentation fields of p.
func NewProductView(p Product) ProductView {
	return ProductView{Product: p, Tier: p.Tier()}
}

// NewProductViews maps NewProductView over products.
func NewProductViews(products []Product) []ProductView {
	out := make([]ProductView, len(products))
	for i, p := range products {
		out[i] = NewProductView(p)
	}
	return out
}
