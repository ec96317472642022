package infra

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prakhar811/opticart-DAA/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
app:
  name: opticart
server:
  addr: ":8080"
ors:
  api_key: from-file
delivery:
  start_time: "09:30"
catalog:
  - id: 1
    name: Wireless Headphones
    base_price: "100"
    stock: 100
    image: http://localhost:3000/headphones.jpg
  - id: 2
    name: Smart Watch
    base_price: 180.50
    stock: 80
`)
	t.Setenv("OPTICART_ORS_API_KEY", "from-env")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.ORS.APIKey != "from-env" {
		t.Errorf("env override not applied, got %q", cfg.ORS.APIKey)
	}
	if cfg.PricingInterval() != 30*time.Second || cfg.Pricing.WindowSec != 120 {
		t.Errorf("pricing defaults not applied: %+v", cfg.Pricing)
	}
	if cfg.Routing.RoadFactor != 1.2 || cfg.Delivery.SpeedKmh != 19 {
		t.Errorf("routing/delivery defaults not applied")
	}
	if start, _ := cfg.DeliveryStart(); start != 9*time.Hour+30*time.Minute {
		t.Errorf("DeliveryStart = %v", start)
	}
	if len(cfg.Catalog) != 2 || cfg.Catalog[1].BasePrice.String() != "180.5" {
		t.Errorf("catalog not parsed: %+v", cfg.Catalog)
	}
}

func TestLoadConfig_NotFound(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, domain.ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"Unknown metric", func(c *Config) { c.Routing.Metric = "manhattan" }, "routing.metric"},
		{"Road factor below 1", func(c *Config) { c.Routing.RoadFactor = 0.5 }, "routing.road_factor"},
		{"Burst exceeds window", func(c *Config) { c.Pricing.BurstSec = 300 }, "pricing.burst_sec"},
		{"Bad start time", func(c *Config) { c.Delivery.StartTime = "25:99" }, "delivery.start_time"},
		{"Bad ORS URL", func(c *Config) { c.ORS.BaseURL = "ftp://x" }, "ors.base_url"},
		{"Duplicate product id", func(c *Config) {
			c.Catalog = []SeedProduct{{ID: 1, Name: "a", BasePrice: one()}, {ID: 1, Name: "b", BasePrice: one()}}
		}, "catalog[1]"},
		{"Missing product name", func(c *Config) {
			c.Catalog = []SeedProduct{{ID: 1, BasePrice: one()}}
		}, "catalog[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			var ce *domain.ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("Expected ConfigError, got %v", err)
			}
			if ce.Field != tt.field {
				t.Errorf("Field = %q, want %q", ce.Field, tt.field)
			}
		})
	}

	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func one() decimal.Decimal { return decimal.NewFromInt(1) }
