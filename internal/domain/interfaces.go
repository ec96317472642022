package domain

import (
	"context"
	"time"
)

// ProductRepository is the product store shared by the pricing engine and scheduler.
type ProductRepository interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id uint) (*Product, error)
	// RecordPurchase atomically decrements stock and appends history and sale log.
	RecordPurchase(ctx context.Context, id uint, at time.Time, saleID string) (*Product, error)
	// CommitTick applies every update of the batch or none of them.
	CommitTick(ctx context.Context, batch TickBatch) error
}

// RouteHistory stores optimization results.
type RouteHistory interface {
	SaveRoute(ctx context.Context, rec *RouteRecord) error
	RecentRoutes(ctx context.Context, limit int) ([]RouteRecord, error)
}

// GeometryProvider maps waypoints to an encoded road polyline.
type GeometryProvider interface {
	Route(ctx context.Context, waypoints []LonLat) (string, error)
}

// ProductNotifier receives product state after commits and purchases.
type ProductNotifier interface {
	NotifyProducts(products []Product)
	NotifyPurchase(product Product)
}
