package strategy

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestDemandDelta(t *testing.T) {
	tests := []struct {
		rate       float64
		below, abv int
	}{
		{0, -2, -3},
		{0.24, -2, -3},
		{0.25, 0, -1},
		{0.49, 0, -1},
		{0.5, 1, 0},
		{1.0, 1, 0},
		{1.25, 2, 1},
		{1.5, 3, 2},
		{1.99, 3, 2},
		{2, 4, 3},
		{10, 4, 3},
	}

	for _, tt := range tests {
		if got := DemandDelta(tt.rate, SideBelowBase); got != tt.below {
			t.Errorf("DemandDelta(%v, below) = %d, want %d", tt.rate, got, tt.below)
		}
		if got := DemandDelta(tt.rate, SideAtOrAboveBase); got != tt.abv {
			t.Errorf("DemandDelta(%v, above) = %d, want %d", tt.rate, got, tt.abv)
		}
	}
}

func TestStockDelta(t *testing.T) {
	tests := []struct {
		penalty    float64
		below, abv int
	}{
		{0, -1, -2},
		{0.25, 0, -1},
		{0.4, 1, 0},
		{0.65, 3, 1},
		{0.89, 3, 1},
		{0.9, 4, 2},
		{0.99, 4, 2},
	}

	for _, tt := range tests {
		if got := StockDelta(tt.penalty, SideBelowBase); got != tt.below {
			t.Errorf("StockDelta(%v, below) = %d, want %d", tt.penalty, got, tt.below)
		}
		if got := StockDelta(tt.penalty, SideAtOrAboveBase); got != tt.abv {
			t.Errorf("StockDelta(%v, above) = %d, want %d", tt.penalty, got, tt.abv)
		}
	}
}

func TestAsymmetricMomentum(t *testing.T) {
	s := NewAsymmetricMomentum()
	base := decimal.NewFromInt(100)

	tests := []struct {
		name string
		sig  Signal
		want int
	}{
		{
			name: "No demand at base",
			sig:  Signal{DemandRate: 0, StockPenalty: 0, BasePrice: base, DynamicPrice: base},
			want: -5,
		},
		{
			name: "No demand below base",
			sig:  Signal{DemandRate: 0, StockPenalty: 0, BasePrice: base, DynamicPrice: decimal.NewFromInt(80)},
			want: -3,
		},
		{
			name: "Hot and scarce above base",
			sig:  Signal{DemandRate: 2.5, StockPenalty: 0.95, BasePrice: base, DynamicPrice: decimal.NewFromInt(150)},
			want: 5,
		},
		{
			name: "Hot and scarce below base",
			sig:  Signal{DemandRate: 2.5, StockPenalty: 0.95, BasePrice: base, DynamicPrice: decimal.NewFromInt(60)},
			want: 8,
		},
		{
			name: "Sold out",
			sig:  Signal{DemandRate: 4, StockPenalty: 1, BasePrice: base, DynamicPrice: decimal.NewFromInt(60)},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Momentum(tt.sig); got != tt.want {
				t.Errorf("Momentum() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAsymmetricMomentum_Pure(t *testing.T) {
	s := NewAsymmetricMomentum()
	sig := Signal{
		DemandRate:   1.3,
		StockPenalty: 0.5,
		BasePrice:    decimal.NewFromInt(500),
		DynamicPrice: decimal.NewFromInt(510),
	}

	first := s.Momentum(sig)
	for i := 0; i < 100; i++ {
		if got := s.Momentum(sig); got != first {
			t.Fatalf("iteration %d: Momentum() = %d, want %d", i, got, first)
		}
	}
}

func TestSideOf(t *testing.T) {
	base := decimal.NewFromInt(100)

	if SideOf(base, decimal.NewFromInt(99)) != SideBelowBase {
		t.Error("99 should be below base 100")
	}
	if SideOf(base, base) != SideAtOrAboveBase {
		t.Error("equal price should count as at/above base")
	}
	if SideOf(base, decimal.NewFromInt(101)).String() != "AT_OR_ABOVE_BASE" {
		t.Error("unexpected String() for above side")
	}
}
