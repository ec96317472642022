package ors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/twpayne/go-polyline"
	"golang.org/x/time/rate"

	"github.com/prakhar811/opticart-DAA/internal/domain"
)

const (
	DefaultBaseURL = "https://api.openrouteservice.org"
	DefaultProfile = "driving-car"
	DefaultRadius  = 1000
)

// Config configures the OpenRouteService client.
type Config struct {
	BaseURL           string
	APIKey            string
	Profile           string
	Timeout           time.Duration
	RadiusMeters      int
	MaxAttempts       int
	RetryBackoff      time.Duration
	RequestsPerMinute int
}

// Client is a domain.GeometryProvider backed by the OpenRouteService directions API.
type Client struct {
	http    *resty.Client
	cfg     Config
	limiter *rate.Limiter
}

type directionsRequest struct {
	Coordinates  []domain.LonLat `json:"coordinates"`
	Instructions bool            `json:"instructions"`
	Radiuses     []int           `json:"radiuses"`
}

type directionsResponse struct {
	Routes []struct {
		Geometry string `json:"geometry"`
		Summary  struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"summary"`
	} `json:"routes"`
}

// NewClient creates a client; zero config values fall back to defaults.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Profile == "" {
		cfg.Profile = DefaultProfile
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RadiusMeters <= 0 {
		cfg.RadiusMeters = DefaultRadius
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}

	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(cfg.RequestsPerMinute) / 60)
		burst = max(1, cfg.RequestsPerMinute/10)
	}

	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	client.SetBaseURL(strings.TrimRight(cfg.BaseURL, "/"))
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("Accept", "application/json, application/geo+json")

	return &Client{
		http:    client,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Route returns the encoded polyline for the ordered waypoints.
// Errors are always *domain.UpstreamError.
func (c *Client) Route(ctx context.Context, waypoints []domain.LonLat) (string, error) {
	if len(waypoints) < 2 {
		return "", domain.NewFatalUpstreamError("route", fmt.Errorf("need at least 2 waypoints, got %d", len(waypoints)))
	}

	var lastErr error
	for i := 0; i < c.cfg.MaxAttempts; i++ {
		if i > 0 {
			// Exponential backoff: 1x, 2x, 4x
			delay := c.cfg.RetryBackoff * time.Duration(1<<uint(i-1))
			select {
			case <-ctx.Done():
				return "", domain.NewFatalUpstreamError("route", ctx.Err())
			case <-time.After(delay):
			}
		}

		geometry, err := c.doRoute(ctx, waypoints)
		if err == nil {
			return geometry, nil
		}
		lastErr = err
		if !domain.IsRetriable(err) {
			break
		}
		slog.Warn("Directions request attempt failed", slog.Int("attempt", i+1), slog.Any("error", err))
	}
	return "", lastErr
}

func (c *Client) doRoute(ctx context.Context, waypoints []domain.LonLat) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", domain.NewFatalUpstreamError("rate_limit", err)
	}

	radiuses := make([]int, len(waypoints))
	for i := range radiuses {
		radiuses[i] = c.cfg.RadiusMeters
	}

	var out directionsResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", c.cfg.APIKey).
		SetBody(directionsRequest{Coordinates: waypoints, Radiuses: radiuses}).
		SetResult(&out).
		Post("/v2/directions/" + c.cfg.Profile)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", domain.NewFatalUpstreamError("route", err)
		}
		return "", domain.NewUpstreamError("route", err)
	}

	switch code := resp.StatusCode(); {
	case code == http.StatusTooManyRequests || code >= 500:
		return "", domain.NewUpstreamError("route", fmt.Errorf("status %d: %s", code, truncate(resp.String(), 200)))
	case code != http.StatusOK:
		return "", domain.NewFatalUpstreamError("route", fmt.Errorf("status %d: %s", code, truncate(resp.String(), 200)))
	}

	if len(out.Routes) == 0 || out.Routes[0].Geometry == "" {
		return "", domain.NewFatalUpstreamError("decode", errors.New("response has no route geometry"))
	}
	geometry := out.Routes[0].Geometry
	if _, _, err := polyline.DecodeCoords([]byte(geometry)); err != nil {
		return "", domain.NewFatalUpstreamError("decode", fmt.Errorf("invalid polyline: %w", err))
	}
	return geometry, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
