package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/prakhar811/opticart-DAA/internal/domain"
)

// Storage is the SQLite-backed product and route store.
type Storage struct {
	db *gorm.DB
}

// NewStorage opens (and migrates) the database at dbPath.
// An empty path resolves to the per-user data directory.
func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		var err error
		dbPath, err = getDBPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve DB path: %w", err)
		}
	}

	// Ensure directory exists
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Single writer connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		return nil, err
	}

	return &Storage{db: db}, nil
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.Product{},
		&domain.Purchase{},
		&domain.SaleEntry{},
		&domain.RouteRecord{},
		&domain.AppMeta{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// getDBPath resolves the database file path based on OS
func getDBPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "OptiCart", "data", "opticart.db"), nil
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ======================================================================================
// Product Operations
// ======================================================================================

// withPurchases loads the trailing purchase window, which is all repricing needs.
func withPurchases(db *gorm.DB) *gorm.DB {
	return db.Preload("PurchaseHistory", func(tx *gorm.DB) *gorm.DB { return tx.Order("at ASC, id ASC") })
}

// withHistory also loads the sale log. It grows without bound, so only
// single-product reads use it.
func withHistory(db *gorm.DB) *gorm.DB {
	return withPurchases(db).
		Preload("SaleLog", func(tx *gorm.DB) *gorm.DB { return tx.Order("at ASC") })
}

// ListProducts returns every product with its purchase window (no sale log), ordered by id.
func (s *Storage) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	err := withPurchases(s.db.WithContext(ctx)).Order("id ASC").Find(&products).Error
	return products, err
}

// GetProduct retrieves one product with its purchase window and sale log.
func (s *Storage) GetProduct(ctx context.Context, id uint) (*domain.Product, error) {
	return getProduct(withHistory(s.db.WithContext(ctx)), id)
}

func getProduct(db *gorm.DB, id uint) (*domain.Product, error) {
	var p domain.Product
	err := db.First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// RecordPurchase decrements stock and appends history and a sale log entry in
// one transaction. Zero stock leaves the product untouched.
func (s *Storage) RecordPurchase(ctx context.Context, id uint, at time.Time, saleID string) (*domain.Product, error) {
	// Timestamps are stored in UTC so range predicates compare consistently.
	at = at.UTC()

	var out *domain.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := getProduct(tx, id)
		if err != nil {
			return err
		}

		res := tx.Model(&domain.Product{}).
			Where("id = ? AND stock > 0", id).
			UpdateColumn("stock", gorm.Expr("stock - 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("product %d: %w", id, domain.ErrOutOfStock)
		}

		if err := tx.Create(&domain.Purchase{ProductID: id, At: at}).Error; err != nil {
			return err
		}
		sale := domain.SaleEntry{
			ID:                  saleID,
			ProductID:           id,
			StockBeforePurchase: p.Stock,
			PriceAtPurchase:     p.DynamicPrice,
			At:                  at,
		}
		if err := tx.Create(&sale).Error; err != nil {
			return err
		}

		out, err = getProduct(withPurchases(tx), id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CommitTick applies a tick batch atomically. Stock is never written here so
// concurrent purchases are not lost.
func (s *Storage) CommitTick(ctx context.Context, batch domain.TickBatch) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range batch.Updates {
			if len(u.Fields) > 0 {
				if _, ok := u.Fields["stock"]; ok {
					return fmt.Errorf("product %d: stock is not writable from a tick", u.ProductID)
				}
				res := tx.Model(&domain.Product{ID: u.ProductID}).Updates(u.Fields)
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected == 0 {
					return fmt.Errorf("product %d: %w", u.ProductID, domain.ErrNotFound)
				}
			}
			if !u.PruneBefore.IsZero() {
				if err := tx.Where("product_id = ? AND at < ?", u.ProductID, u.PruneBefore.UTC()).
					Delete(&domain.Purchase{}).Error; err != nil {
					return err
				}
			}
		}
		return saveMeta(tx, domain.MetaLastTickAt, batch.At.UTC().Format(time.RFC3339Nano))
	})
	if err != nil {
		return &domain.PersistenceError{Op: "commit_tick", Err: err}
	}
	return nil
}

// SeedProducts inserts products only when the catalog is empty.
// Returns the number of products inserted.
func (s *Storage) SeedProducts(ctx context.Context, products []domain.Product) (int, error) {
	inserted := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Product{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 || len(products) == 0 {
			return nil
		}
		if err := tx.Omit(clause.Associations).Create(&products).Error; err != nil {
			return err
		}
		inserted = len(products)
		return saveMeta(tx, domain.MetaSeededAt, time.Now().UTC().Format(time.RFC3339))
	})
	return inserted, err
}

// ResetProducts restores every product to its seeded state: price at base,
// full stock, zero momentum and metrics, empty history and sale log.
func (s *Storage) ResetProducts(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&domain.Purchase{}).Error; err != nil {
			return err
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&domain.SaleEntry{}).Error; err != nil {
			return err
		}
		return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Model(&domain.Product{}).
			Updates(map[string]any{
				"dynamic_price": gorm.Expr("base_price"),
				"stock":         gorm.Expr("total_stock"),
				"momentum":      0,
				"demand_score":  0,
				"sales_rate":    0,
				"avg_rate":      0,
				"demand_rate":   0,
				"stock_penalty": 0,
			}).Error
	})
}

// UpdateImage points a product at a locally cached image.
func (s *Storage) UpdateImage(ctx context.Context, id uint, image string) error {
	return s.db.WithContext(ctx).Model(&domain.Product{ID: id}).UpdateColumn("image", image).Error
}

// ======================================================================================
// Route Operations
// ======================================================================================

// SaveRoute stores a route optimization result
func (s *Storage) SaveRoute(ctx context.Context, rec *domain.RouteRecord) error {
	return s.db.WithContext(ctx).Create(rec).Error
}

// RecentRoutes returns up to limit route records, newest first.
func (s *Storage) RecentRoutes(ctx context.Context, limit int) ([]domain.RouteRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var recs []domain.RouteRecord
	err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&recs).Error
	return recs, err
}

// ======================================================================================
// Meta Operations
// ======================================================================================

func saveMeta(db *gorm.DB, key, value string) error {
	return db.Save(&domain.AppMeta{Key: key, Value: value}).Error
}

// SaveMeta saves a bookkeeping value
func (s *Storage) SaveMeta(ctx context.Context, key, value string) error {
	return saveMeta(s.db.WithContext(ctx), key, value)
}

// LoadMetaMap loads all bookkeeping values as a map
func (s *Storage) LoadMetaMap(ctx context.Context) (map[string]string, error) {
	var metas []domain.AppMeta
	if err := s.db.WithContext(ctx).Find(&metas).Error; err != nil {
		return nil, err
	}

	result := make(map[string]string)
	for _, m := range metas {
		result[m.Key] = m.Value
	}
	return result, nil
}
