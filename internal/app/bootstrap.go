package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/prakhar811/opticart-DAA/internal/api"
	"github.com/prakhar811/opticart-DAA/internal/domain"
	"github.com/prakhar811/opticart-DAA/internal/engine"
	"github.com/prakhar811/opticart-DAA/internal/infra"
	"github.com/prakhar811/opticart-DAA/internal/infra/ors"
	"github.com/prakhar811/opticart-DAA/internal/infra/storage"
	"github.com/prakhar811/opticart-DAA/internal/infra/ws"
	"github.com/prakhar811/opticart-DAA/internal/pricing"
	"github.com/prakhar811/opticart-DAA/internal/route"
	"github.com/prakhar811/opticart-DAA/internal/service"
	"github.com/prakhar811/opticart-DAA/internal/strategy"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config     *infra.Config
	Storage    *storage.Storage
	Thumbnails *infra.ThumbnailCache
	Hub        *ws.Hub
	Catalog    *service.CatalogService
	Scheduler  *engine.Scheduler
	Optimizer  *route.Optimizer
	Registry   *prometheus.Registry
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads configuration and wires every component. Nothing is
// started yet; see Scheduler.Start and Router.
func (b *Bootstrap) Initialize(ctx context.Context, configPath string) error {
	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", slog.Any("error", err))
	}

	// 1. Load Config
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err
	}
	b.Config = cfg

	// 2. Setup Logger
	slog.SetDefault(infra.NewLogger(cfg))
	slog.Info("🚀 Bootstrapping OptiCart...", slog.String("version", cfg.App.Version))

	// 3. Initialize Storage (DB)
	store, err := storage.NewStorage(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	b.Storage = store
	if err := b.seedCatalog(ctx); err != nil {
		return err
	}
	slog.Info("✅ Database initialized")

	// 4. Thumbnail cache
	thumbs, err := infra.NewThumbnailCache(cfg.Assets.Dir, cfg.Assets.ThumbnailSize)
	if err != nil {
		return err
	}
	b.Thumbnails = thumbs

	// 5. Routing
	if err := b.initRouting(); err != nil {
		return err
	}

	// 6. Pricing, catalog cache and live stream
	b.Hub = ws.NewHub(cfg.Server.AllowedOrigins)
	eng := pricing.NewEngine(store, strategy.NewAsymmetricMomentum(), pricing.NewDemandTracker(
		time.Duration(cfg.Pricing.WindowSec)*time.Second,
		time.Duration(cfg.Pricing.BurstSec)*time.Second,
	))
	b.Catalog = service.NewCatalogService(store, eng)
	b.Catalog.SetNotifier(b.Hub)
	if err := b.Catalog.Refresh(ctx); err != nil {
		return err
	}

	b.Scheduler = engine.NewScheduler(store, eng, cfg.PricingInterval(), func(ctx context.Context) {
		if err := b.Catalog.Refresh(ctx); err != nil {
			slog.Warn("Catalog refresh after tick failed", slog.Any("error", err))
		}
	})
	b.Scheduler.SetDumpPath(cfg.Pricing.DumpPath)
	slog.Info("✅ Pricing engine ready", slog.Int("interval_sec", cfg.Pricing.IntervalSec))

	// 7. Metrics
	b.Registry = prometheus.NewRegistry()
	b.Registry.MustRegister(
		infra.GlobalMetrics.Collector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return nil
}

func (b *Bootstrap) seedCatalog(ctx context.Context) error {
	seed := make([]domain.Product, 0, len(b.Config.Catalog))
	for _, s := range b.Config.Catalog {
		seed = append(seed, domain.Product{
			ID:           s.ID,
			Name:         s.Name,
			Image:        s.Image,
			BasePrice:    s.BasePrice,
			DynamicPrice: s.BasePrice,
			Stock:        s.Stock,
			TotalStock:   s.Stock,
		})
	}
	n, err := b.Storage.SeedProducts(ctx, seed)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	if n > 0 {
		slog.Info("Catalog seeded", slog.Int("products", n))
		return nil
	}
	if b.Config.Pricing.ResetOnStart {
		if err := b.Storage.ResetProducts(ctx); err != nil {
			return fmt.Errorf("reset catalog: %w", err)
		}
		slog.Info("Catalog reset to base prices and full stock")
	}
	return nil
}

func (b *Bootstrap) initRouting() error {
	cfg := b.Config
	start, err := cfg.DeliveryStart()
	if err != nil {
		return err
	}

	var provider domain.GeometryProvider
	if cfg.ORS.APIKey != "" {
		provider = ors.NewClient(ors.Config{
			BaseURL:           cfg.ORS.BaseURL,
			APIKey:            cfg.ORS.APIKey,
			Profile:           cfg.ORS.Profile,
			Timeout:           time.Duration(cfg.ORS.TimeoutSec) * time.Second,
			RadiusMeters:      cfg.ORS.RadiusMeters,
			MaxAttempts:       cfg.ORS.MaxAttempts,
			RequestsPerMinute: cfg.ORS.RequestsPerMinute,
		})
	} else {
		slog.Warn("⚠️ No OpenRouteService key configured, routes will carry no road geometry")
	}

	metric := route.Haversine
	if cfg.Routing.Metric == "euclidean" {
		metric = route.Euclidean
	}

	b.Optimizer = route.NewOptimizer(
		route.NewStitcher(provider, cfg.Routing.Parallelism),
		b.Storage,
		route.Options{
			Metric:     metric,
			RoadFactor: cfg.Routing.RoadFactor,
			Plan:       route.DeliveryPlan{SpeedKmh: cfg.Delivery.SpeedKmh, Start: start},
		},
	)
	slog.Info("✅ Route optimizer ready", slog.String("metric", cfg.Routing.Metric))
	return nil
}

// SyncAssets reconciles catalog image URLs with the configuration and
// downloads missing thumbnails in the background.
func (b *Bootstrap) SyncAssets(ctx context.Context) {
	slog.Info("🔄 Starting asset synchronization...")

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 4) // Limit concurrent downloads

	for _, seed := range b.Config.Catalog {
		wg.Add(1)
		go func(seed infra.SeedProduct) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}: // Acquire
			}
			defer func() { <-semaphore }() // Release

			// 1. Image URL drift between config and DB
			if p, ok := b.Catalog.GetProduct(seed.ID); ok && seed.Image != "" && p.Image != seed.Image {
				if err := b.Storage.UpdateImage(ctx, seed.ID, seed.Image); err != nil {
					slog.Error("Failed to update image", slog.Uint64("product_id", uint64(seed.ID)), slog.Any("error", err))
				}
			}

			// 2. Download thumbnail (if missing)
			if !strings.HasPrefix(seed.Image, "http") {
				return
			}
			if _, err := b.Thumbnails.Fetch(ctx, seed.ID, seed.Image); err != nil {
				slog.Warn("Failed to fetch thumbnail", slog.Uint64("product_id", uint64(seed.ID)), slog.Any("error", err))
			}
		}(seed)
	}

	wg.Wait()
	if err := b.Catalog.Refresh(ctx); err != nil {
		slog.Warn("Catalog refresh after asset sync failed", slog.Any("error", err))
	}
	slog.Info("✨ Asset synchronization completed")
}

// Router builds the HTTP handler tree.
func (b *Bootstrap) Router() *gin.Engine {
	if strings.EqualFold(b.Config.Logging.Level, "debug") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	h := &api.Handlers{
		Optimizer:   b.Optimizer,
		Catalog:     b.Catalog,
		History:     b.Storage,
		Thumbnails:  b.Thumbnails,
		Meta:        b.Storage,
		Version:     b.Config.App.Version,
		HistorySize: b.Config.Routing.HistorySize,
	}
	return api.NewRouter(h, api.RouterOptions{
		AllowedOrigins: b.Config.Server.AllowedOrigins,
		Live:           b.Hub,
		Metrics:        promhttp.HandlerFor(b.Registry, promhttp.HandlerOpts{}),
	})
}

// Server returns the HTTP server for the configured address.
func (b *Bootstrap) Server() *http.Server {
	return &http.Server{
		Addr:              b.Config.Server.Addr,
		Handler:           b.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Close releases background resources. Safe to call once after shutdown.
func (b *Bootstrap) Close() {
	if b.Scheduler != nil {
		b.Scheduler.Stop()
	}
	if b.Hub != nil {
		b.Hub.Close()
	}
	if b.Storage != nil {
		if err := b.Storage.Close(); err != nil {
			slog.Error("Failed to close storage", slog.Any("error", err))
		}
	}
}
