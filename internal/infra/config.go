package infra

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/prakhar811/opticart-DAA/internal/domain"
)

const (
	// DefaultUserAgent is sent when fetching product images
	DefaultUserAgent = "OptiCart/1.0 (+https://github.com/prakhar811/opticart-DAA)"
)

// SeedProduct is one catalog entry inserted into an empty database.
type SeedProduct struct {
	ID        uint            `yaml:"id"`
	Name      string          `yaml:"name"`
	BasePrice decimal.Decimal `yaml:"base_price"`
	Stock     int             `yaml:"stock"`
	Image     string          `yaml:"image"`
}

// Config는 애플리케이션의 모든 설정을 담습니다.
// LoadConfig로 로드된 후에 환경 변수를 통해 민감 내용을 덮어씁니다.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		Addr            string   `yaml:"addr"`
		AllowedOrigins  []string `yaml:"allowed_origins"`
		ShutdownTimeout int      `yaml:"shutdown_timeout_sec"`
	} `yaml:"server"`

	Storage struct {
		DBPath string `yaml:"db_path"`
	} `yaml:"storage"`

	Pricing struct {
		IntervalSec  int    `yaml:"interval_sec"`
		WindowSec    int    `yaml:"window_sec"`
		BurstSec     int    `yaml:"burst_sec"`
		ResetOnStart bool   `yaml:"reset_on_start"`
		DumpPath     string `yaml:"dump_path"`
	} `yaml:"pricing"`

	Routing struct {
		Metric      string  `yaml:"metric"` // haversine | euclidean
		RoadFactor  float64 `yaml:"road_factor"`
		Parallelism int     `yaml:"parallelism"`
		HistorySize int     `yaml:"history_size"`
	} `yaml:"routing"`

	ORS struct {
		BaseURL           string `yaml:"base_url"`
		APIKey            string `yaml:"api_key"`
		Profile           string `yaml:"profile"`
		TimeoutSec        int    `yaml:"timeout_sec"`
		RadiusMeters      int    `yaml:"radius_m"`
		MaxAttempts       int    `yaml:"max_attempts"`
		RequestsPerMinute int    `yaml:"requests_per_minute"`
	} `yaml:"ors"`

	Delivery struct {
		SpeedKmh  float64 `yaml:"speed_kmh"`
		StartTime string  `yaml:"start_time"` // HH:MM
	} `yaml:"delivery"`

	Assets struct {
		Dir           string `yaml:"dir"`
		ThumbnailSize int    `yaml:"thumbnail_size"`
	} `yaml:"assets"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`

	Catalog []SeedProduct `yaml:"catalog"`
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig는 설정 파일을 읽고 파싱합니다.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, domain.ErrConfigNotFound)
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	// 민감 정보는 환경 변수로 덮어씁니다
	overrideWithEnv(&cfg)

	// 설정 유효성 검사
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "opticart"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":5001"
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10
	}
	if c.Pricing.IntervalSec <= 0 {
		c.Pricing.IntervalSec = 30
	}
	if c.Pricing.WindowSec <= 0 {
		c.Pricing.WindowSec = 120
	}
	if c.Pricing.BurstSec <= 0 {
		c.Pricing.BurstSec = 30
	}
	if c.Pricing.DumpPath == "" {
		c.Pricing.DumpPath = "panic_dump.json"
	}
	if c.Routing.Metric == "" {
		c.Routing.Metric = "haversine"
	}
	if c.Routing.RoadFactor == 0 {
		c.Routing.RoadFactor = 1.2
	}
	if c.Routing.Parallelism <= 0 {
		c.Routing.Parallelism = 4
	}
	if c.Routing.HistorySize <= 0 {
		c.Routing.HistorySize = 20
	}
	if c.ORS.BaseURL == "" {
		c.ORS.BaseURL = "https://api.openrouteservice.org"
	}
	if c.ORS.Profile == "" {
		c.ORS.Profile = "driving-car"
	}
	if c.ORS.TimeoutSec <= 0 {
		c.ORS.TimeoutSec = 10
	}
	if c.ORS.RadiusMeters <= 0 {
		c.ORS.RadiusMeters = 1000
	}
	if c.ORS.MaxAttempts <= 0 {
		c.ORS.MaxAttempts = 3
	}
	if c.Delivery.SpeedKmh == 0 {
		c.Delivery.SpeedKmh = 19
	}
	if c.Delivery.StartTime == "" {
		c.Delivery.StartTime = "10:00"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Dir == "" {
		c.Logging.Dir = "logs"
	}
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Pricing.BurstSec > c.Pricing.WindowSec {
		return configError("pricing.burst_sec", "burst (%ds) exceeds window (%ds)", c.Pricing.BurstSec, c.Pricing.WindowSec)
	}
	switch c.Routing.Metric {
	case "haversine", "euclidean":
	default:
		return configError("routing.metric", "unknown metric %q", c.Routing.Metric)
	}
	if c.Routing.RoadFactor < 1 {
		return configError("routing.road_factor", "must be >= 1, got %v", c.Routing.RoadFactor)
	}
	if !hasPrefix(c.ORS.BaseURL, "http://") && !hasPrefix(c.ORS.BaseURL, "https://") {
		return configError("ors.base_url", "invalid URL: %s", c.ORS.BaseURL)
	}
	if c.Delivery.SpeedKmh < 0 {
		return configError("delivery.speed_kmh", "must not be negative")
	}
	if _, err := c.DeliveryStart(); err != nil {
		return configError("delivery.start_time", "%v", err)
	}

	seen := make(map[uint]bool, len(c.Catalog))
	for i, p := range c.Catalog {
		field := fmt.Sprintf("catalog[%d]", i)
		switch {
		case p.ID == 0 || seen[p.ID]:
			return configError(field, "id must be unique and non-zero, got %d", p.ID)
		case strings.TrimSpace(p.Name) == "":
			return configError(field, "name is required")
		case !p.BasePrice.IsPositive():
			return configError(field, "base_price must be positive")
		case p.Stock < 0:
			return configError(field, "stock must not be negative")
		}
		seen[p.ID] = true
	}

	return nil
}

func configError(field, format string, args ...any) error {
	return &domain.ConfigError{Field: field, Err: fmt.Errorf(format, args...)}
}

// PricingInterval returns the tick period.
func (c *Config) PricingInterval() time.Duration {
	return time.Duration(c.Pricing.IntervalSec) * time.Second
}

// DeliveryStart parses the delivery start time as an offset from midnight.
func (c *Config) DeliveryStart() (time.Duration, error) {
	t, err := time.Parse("15:04", c.Delivery.StartTime)
	if err != nil {
		return 0, fmt.Errorf("expected HH:MM, got %q", c.Delivery.StartTime)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

// overrideWithEnv는 환경 변수가 존재할 경우 설정 값을 덮어씁니다.
func overrideWithEnv(cfg *Config) {
	if key := os.Getenv("OPTICART_ORS_API_KEY"); key != "" {
		cfg.ORS.APIKey = key
	}
	if path := os.Getenv("OPTICART_DB_PATH"); path != "" {
		cfg.Storage.DBPath = path
	}
	if addr := os.Getenv("OPTICART_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if level := os.Getenv("OPTICART_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}
