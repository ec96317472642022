package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prakhar811/opticart-DAA/internal/domain"
)

type stubRepo struct {
	products []domain.Product
	err      error
}

func (r *stubRepo) ListProducts(context.Context) ([]domain.Product, error) {
	return r.products, r.err
}

func (r *stubRepo) GetProduct(_ context.Context, id uint) (*domain.Product, error) {
	for i := range r.products {
		if r.products[i].ID == id {
			p := r.products[i]
			p.SaleLog = []domain.SaleEntry{{ID: "sale-1", ProductID: id}}
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubRepo) RecordPurchase(context.Context, uint, time.Time, string) (*domain.Product, error) {
	return nil, errors.New("not used")
}

func (r *stubRepo) CommitTick(context.Context, domain.TickBatch) error { return nil }

type stubBuyer struct {
	stock map[uint]int
}

func (b *stubBuyer) Buy(_ context.Context, id uint) (*domain.Product, error) {
	s, ok := b.stock[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if s <= 0 {
		return nil, domain.ErrOutOfStock
	}
	b.stock[id] = s - 1
	return &domain.Product{ID: id, Stock: s - 1, TotalStock: 10}, nil
}

type recordingNotifier struct {
	mu        sync.Mutex
	snapshots int
	purchases []uint
}

func (n *recordingNotifier) NotifyProducts([]domain.Product) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.snapshots++
}

func (n *recordingNotifier) NotifyPurchase(p domain.Product) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.purchases = append(n.purchases, p.ID)
}

func TestCatalogService_Refresh(t *testing.T) {
	repo := &stubRepo{products: []domain.Product{
		{ID: 3, Name: "iPhone", BasePrice: decimal.NewFromInt(500), DynamicPrice: decimal.NewFromInt(500)},
		{ID: 1, Name: "Wireless Headphones", BasePrice: decimal.NewFromInt(100), DynamicPrice: decimal.NewFromInt(100)},
	}}
	n := &recordingNotifier{}
	svc := NewCatalogService(repo, &stubBuyer{})
	svc.SetNotifier(n)

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	all := svc.GetAllProducts()
	if len(all) != 2 {
		t.Fatalf("Expected 2 products, got %d", len(all))
	}
	if all[0].ID != 1 || all[1].ID != 3 {
		t.Errorf("Expected products sorted by id, got %d, %d", all[0].ID, all[1].ID)
	}
	if n.snapshots != 1 {
		t.Errorf("Expected 1 snapshot notification, got %d", n.snapshots)
	}

	p, ok := svc.GetProduct(3)
	if !ok || p.Name != "iPhone" {
		t.Errorf("GetProduct(3) = %+v, %v", p, ok)
	}
	if _, ok := svc.GetProduct(99); ok {
		t.Error("GetProduct(99) should not exist")
	}
}

func TestCatalogService_RefreshErrorKeepsCache(t *testing.T) {
	repo := &stubRepo{products: []domain.Product{{ID: 1}}}
	svc := NewCatalogService(repo, &stubBuyer{})
	svc.Refresh(context.Background())

	repo.err = errors.New("database is locked")
	if err := svc.Refresh(context.Background()); err == nil {
		t.Fatal("Expected refresh error")
	}
	if len(svc.GetAllProducts()) != 1 {
		t.Error("Cache should survive a failed refresh")
	}
}

func TestCatalogService_Buy(t *testing.T) {
	n := &recordingNotifier{}
	svc := NewCatalogService(&stubRepo{}, &stubBuyer{stock: map[uint]int{1: 1}})
	svc.SetNotifier(n)

	p, err := svc.Buy(context.Background(), 1)
	if err != nil {
		t.Fatalf("Buy failed: %v", err)
	}
	if p.Stock != 0 {
		t.Errorf("Expected stock 0, got %d", p.Stock)
	}
	cached, ok := svc.GetProduct(1)
	if !ok || cached.Stock != 0 {
		t.Errorf("Cache not updated after buy: %+v", cached)
	}

	if _, err := svc.Buy(context.Background(), 1); !errors.Is(err, domain.ErrOutOfStock) {
		t.Errorf("Expected ErrOutOfStock, got %v", err)
	}
	if len(n.purchases) != 1 {
		t.Errorf("Expected 1 purchase notification, got %d", len(n.purchases))
	}
}

func TestCatalogService_ProductDetail(t *testing.T) {
	repo := &stubRepo{products: []domain.Product{{ID: 1, BasePrice: decimal.NewFromInt(100), TotalStock: 10}}}
	svc := NewCatalogService(repo, &stubBuyer{})
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	cached, _ := svc.GetProduct(1)
	if len(cached.SaleLog) != 0 {
		t.Errorf("cache must not hold the sale log, got %d entries", len(cached.SaleLog))
	}

	p, err := svc.ProductDetail(context.Background(), 1)
	if err != nil {
		t.Fatalf("ProductDetail failed: %v", err)
	}
	if len(p.SaleLog) != 1 {
		t.Errorf("expected sale log on detail read, got %d entries", len(p.SaleLog))
	}

	if _, err := svc.ProductDetail(context.Background(), 9); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
