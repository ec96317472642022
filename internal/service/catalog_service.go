package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/prakhar811/opticart-DAA/internal/domain"
)

// Buyer records purchases (implemented by pricing.Engine).
type Buyer interface {
	Buy(ctx context.Context, id uint) (*domain.Product, error)
}

// CatalogService keeps a read cache of the catalog, refreshed after every
// committed tick and every purchase.
type CatalogService struct {
	mu       sync.RWMutex
	products map[uint]*domain.Product

	repo     domain.ProductRepository
	buyer    Buyer
	notifier domain.ProductNotifier
}

// NewCatalogService creates a new CatalogService instance
func NewCatalogService(repo domain.ProductRepository, buyer Buyer) *CatalogService {
	return &CatalogService{
		products: make(map[uint]*domain.Product),
		repo:     repo,
		buyer:    buyer,
	}
}

// SetNotifier registers the receiver of catalog changes.
func (s *CatalogService) SetNotifier(n domain.ProductNotifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = n
}

// Refresh reloads the cache from the repository and notifies subscribers.
func (s *CatalogService) Refresh(ctx context.Context) error {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("refresh catalog: %w", err)
	}

	s.mu.Lock()
	s.products = make(map[uint]*domain.Product, len(products))
	for i := range products {
		s.products[products[i].ID] = &products[i]
	}
	notifier := s.notifier
	s.mu.Unlock()

	if notifier != nil {
		notifier.NotifyProducts(products)
	}
	return nil
}

// GetAllProducts returns all cached products sorted by id
func (s *CatalogService) GetAllProducts() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		result = append(result, *p)
	}

	// Sort by id for consistent ordering
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// GetProduct returns the cached product with id
func (s *CatalogService) GetProduct(id uint) (domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, false
	}
	return *p, true
}

// ProductDetail reads one product from the repository, including its sale
// log, which the cache does not hold.
func (s *CatalogService) ProductDetail(ctx context.Context, id uint) (*domain.Product, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("product detail: %w", err)
	}
	return p, nil
}

// Buy purchases one unit and updates the cached entry.
func (s *CatalogService) Buy(ctx context.Context, id uint) (*domain.Product, error) {
	p, err := s.buyer.Buy(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	cp := *p
	s.products[p.ID] = &cp
	notifier := s.notifier
	s.mu.Unlock()

	if notifier != nil {
		notifier.NotifyPurchase(*p)
	}
	return p, nil
}
