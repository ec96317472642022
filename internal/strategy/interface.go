package strategy

import "github.com/shopspring/decimal"

// PriceSide locates the current price relative to the base price
type PriceSide int

const (
	SideBelowBase PriceSide = iota + 1
	SideAtOrAboveBase
)

// String returns the string representation of PriceSide
func (s PriceSide) String() string {
	switch s {
	case SideBelowBase:
		return "BELOW_BASE"
	case SideAtOrAboveBase:
		return "AT_OR_ABOVE_BASE"
	default:
		return "UNKNOWN"
	}
}

// SideOf reports on which side of base the dynamic price sits.
// An equal price counts as at/above.
func SideOf(base, dynamic decimal.Decimal) PriceSide {
	if base.GreaterThan(dynamic) {
		return SideBelowBase
	}
	return SideAtOrAboveBase
}

// Signal is the per-tick input of a pricing strategy.
type Signal struct {
	DemandRate   float64
	StockPenalty float64
	BasePrice    decimal.Decimal
	DynamicPrice decimal.Decimal
}

// Strategy derives a signed percentage momentum from a Signal.
// Implementations must be pure: same Signal, same result.
type Strategy interface {
	Momentum(sig Signal) int
}
