package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/prakhar811/opticart-DAA/internal/domain"
	"github.com/prakhar811/opticart-DAA/internal/infra"
	"github.com/prakhar811/opticart-DAA/internal/pricing"
)

// DefaultInterval is the pricing tick period.
const DefaultInterval = 30 * time.Second

// Scheduler runs the pricing tick on a fixed period. Ticks never overlap:
// the periodic loop and manual Tick calls share one guard.
type Scheduler struct {
	repo     domain.ProductRepository
	engine   *pricing.Engine
	interval time.Duration
	dumpPath string

	// Boundary: used to refresh caches and notify clients after a commit
	onCommit func(ctx context.Context)

	metrics *infra.Metrics
	now     func() time.Time

	tickMu   sync.Mutex
	inFlight *tickState // last attempted tick, for post-mortem dumps

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type tickState struct {
	At       time.Time         `json:"at"`
	Products []domain.Product  `json:"products"`
	Batch    *domain.TickBatch `json:"batch,omitempty"`
	Next     []domain.Product  `json:"next,omitempty"`
}

// NewScheduler creates a scheduler. interval <= 0 uses DefaultInterval.
func NewScheduler(repo domain.ProductRepository, engine *pricing.Engine, interval time.Duration, onCommit func(ctx context.Context)) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		repo:     repo,
		engine:   engine,
		interval: interval,
		dumpPath: "panic_dump.json",
		onCommit: onCommit,
		metrics:  infra.GlobalMetrics,
		now:      time.Now,
	}
}

// SetDumpPath sets where tick state is written after a recovered panic.
func (s *Scheduler) SetDumpPath(path string) {
	s.dumpPath = path
}

// Start launches the periodic loop. The first tick runs one interval after start.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		slog.Info("Pricing scheduler started", slog.Duration("interval", s.interval))
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.Info("Pricing scheduler stopped")
				return
			case <-ticker.C:
				if err := s.Tick(ctx); err != nil {
					slog.Error("Pricing tick discarded", slog.Any("error", err))
				}
			}
		}
	}()
}

// Stop cancels the loop and waits for an in-flight tick to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
		s.wg.Wait()
	}
}

// Tick runs one pricing cycle and commits it atomically. A failed or panicking
// tick leaves stored state untouched; the next tick starts fresh.
func (s *Scheduler) Tick(ctx context.Context) (err error) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	start := time.Now()
	now := s.now()
	s.inFlight = &tickState{At: now}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("CRITICAL_PANIC_DETECTED", slog.Any("panic", r), slog.Time("tick_at", now))
			s.DumpState(s.dumpPath)
			err = fmt.Errorf("tick panic: %v", r)
		}
		if err != nil {
			s.metrics.RecordTickFailure()
		}
	}()

	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return &domain.PersistenceError{Op: "list_products", Err: err}
	}
	s.inFlight.Products = products

	batch, next := s.engine.PrepareTick(products, now)
	s.inFlight.Batch = &batch
	s.inFlight.Next = next

	if err := s.repo.CommitTick(ctx, batch); err != nil {
		return err
	}

	s.metrics.RecordTick(time.Since(start), len(batch.Updates))
	slog.Debug("Pricing tick committed",
		slog.Int("products", len(products)),
		slog.Int("updated", len(batch.Updates)),
		slog.Duration("took", time.Since(start)),
	)

	if s.onCommit != nil {
		s.onCommit(ctx)
	}
	return nil
}

// DumpState writes the last attempted tick to a file (for post-mortem).
func (s *Scheduler) DumpState(filename string) {
	slog.Info("Dumping tick state...", slog.String("file", filename))

	data := struct {
		Interval string     `json:"interval"`
		Tick     *tickState `json:"tick"`
	}{
		Interval: s.interval.String(),
		Tick:     s.inFlight,
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		slog.Error("Failed to marshal state", slog.Any("error", err))
		return
	}

	err = os.WriteFile(filename, b, 0644)
	if err != nil {
		slog.Error("Failed to write state dump", slog.Any("error", err))
	}
}
