package strategy

// step is one row of a threshold table. Values strictly below `below` map to
// the row's deltas; open marks the catch-all last row.
type step struct {
	below   float64
	open    bool
	onBelow int
	onAbove int
}

var demandSteps = []step{
	{below: 0.25, onBelow: -2, onAbove: -3},
	{below: 0.5, onBelow: 0, onAbove: -1},
	{below: 1.25, onBelow: 1, onAbove: 0},
	{below: 1.5, onBelow: 2, onAbove: 1},
	{below: 2, onBelow: 3, onAbove: 2},
	{open: true, onBelow: 4, onAbove: 3},
}

var stockSteps = []step{
	{below: 0.25, onBelow: -1, onAbove: -2},
	{below: 0.4, onBelow: 0, onAbove: -1},
	{below: 0.65, onBelow: 1, onAbove: 0},
	{below: 0.9, onBelow: 3, onAbove: 1},
	{open: true, onBelow: 4, onAbove: 2},
}

func lookup(table []step, v float64, side PriceSide) int {
	for _, s := range table {
		if s.open || v < s.below {
			if side == SideBelowBase {
				return s.onBelow
			}
			return s.onAbove
		}
	}
	return 0
}

// AsymmetricMomentum pushes prices harder upward while they sit below base and
// harder downward while they sit at or above it.
type AsymmetricMomentum struct{}

// NewAsymmetricMomentum creates the default pricing strategy.
func NewAsymmetricMomentum() *AsymmetricMomentum {
	return &AsymmetricMomentum{}
}

// Momentum implements Strategy. A sold-out product gets 0.
func (AsymmetricMomentum) Momentum(sig Signal) int {
	if sig.StockPenalty >= 1 {
		return 0
	}
	side := SideOf(sig.BasePrice, sig.DynamicPrice)
	return DemandDelta(sig.DemandRate, side) + StockDelta(sig.StockPenalty, side)
}

// DemandDelta is the demand contribution to momentum.
func DemandDelta(demandRate float64, side PriceSide) int {
	return lookup(demandSteps, demandRate, side)
}

// StockDelta is the scarcity contribution to momentum.
func StockDelta(stockPenalty float64, side PriceSide) int {
	return lookup(stockSteps, stockPenalty, side)
}
