package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog item whose price is re-derived by the pricing engine.
// BasePrice and TotalStock are fixed at seeding time.
type Product struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Name         string          `json:"name"`
	Image        string          `json:"image"`
	BasePrice    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"basePrice"`
	DynamicPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"dynamicPrice"`
	Stock        int             `gorm:"not null" json:"stock"`
	TotalStock   int             `gorm:"not null" json:"totalStock"`
	Momentum     int             `json:"momentum"`

	// Demand metrics as of the last committed tick.
	DemandScore  int     `json:"demandScore"`
	SalesRate    int     `json:"salesRate"`
	AvgRate      float64 `json:"avgRate"`
	DemandRate   float64 `json:"demandRate"`
	StockPenalty float64 `json:"stockPenalty"`

	PurchaseHistory []Purchase  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"purchaseHistory"`
	SaleLog         []SaleEntry `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"saleLog,omitempty"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Purchase is one timestamp in a product's trailing purchase history.
type Purchase struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	ProductID uint      `gorm:"index:idx_purchase_product_at,priority:1;not null" json:"-"`
	At        time.Time `gorm:"index:idx_purchase_product_at,priority:2;not null" json:"at"`
}

// SaleEntry records the state a purchase was made in. Never pruned.
type SaleEntry struct {
	ID                  string          `gorm:"primaryKey;size:36" json:"id"`
	ProductID           uint            `gorm:"index;not null" json:"-"`
	StockBeforePurchase int             `json:"stock"`
	PriceAtPurchase     decimal.Decimal `gorm:"type:decimal(12,2)" json:"price"`
	At                  time.Time       `json:"ts"`
}

// RouteRecord is a stored optimization result
type RouteRecord struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	Algorithm string     `gorm:"index" json:"algorithm"`
	Cost      float64    `json:"cost"`
	Stops     []string   `gorm:"serializer:json" json:"route"`
	Points    []GeoPoint `gorm:"serializer:json" json:"points"`
	CreatedAt time.Time  `gorm:"index" json:"timestamp"`
}

// AppMeta is service bookkeeping (Key-Value), e.g. last committed tick.
type AppMeta struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Meta keys
const (
	MetaLastTickAt = "last_tick_at"
	MetaSeededAt   = "seeded_at"
)
