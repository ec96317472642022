package infra

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/disintegration/imaging"
)

// DefaultThumbnailSize is the edge length of product thumbnails in pixels.
const DefaultThumbnailSize = 128

// ThumbnailCache downloads product images and keeps resized copies on disk.
type ThumbnailCache struct {
	basePath string
	size     int
	client   *http.Client
}

// NewThumbnailCache creates a cache rooted at basePath (per-user data dir if empty).
func NewThumbnailCache(basePath string, size int) (*ThumbnailCache, error) {
	if basePath == "" {
		var err error
		basePath, err = getAssetsPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve assets path: %w", err)
		}
	}
	if size <= 0 {
		size = DefaultThumbnailSize
	}

	// Ensure directory exists
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create assets directory: %w", err)
	}

	// Optimize HTTP Transport to prevent connection leaks
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 100
	transport.MaxConnsPerHost = 10
	transport.IdleConnTimeout = 30 * time.Second

	return &ThumbnailCache{
		basePath: basePath,
		size:     size,
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
	}, nil
}

// Fetch downloads the image at url for product id unless it is already cached.
// Returns the local file path on success.
// Images are fitted into a size x size box keeping their aspect ratio.
func (c *ThumbnailCache) Fetch(ctx context.Context, id uint, url string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("product %d has no image url", id)
	}
	filePath := c.Path(id)

	// Check if exists
	if _, err := os.Stat(filePath); err == nil {
		return filePath, nil // Already exists (Cache Hit)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", DefaultUserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status: %s", resp.Status)
	}

	// Decode the image
	srcImg, err := imaging.Decode(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	thumb := imaging.Fit(srcImg, c.size, c.size, imaging.Lanczos)

	// Write to a temp file first so readers never see a partial image
	tmp := filePath + ".tmp.png"
	if err := imaging.Save(thumb, tmp); err != nil {
		return "", fmt.Errorf("failed to save resized image: %w", err)
	}
	if err := os.Rename(tmp, filePath); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to move resized image: %w", err)
	}

	return filePath, nil
}

// Path returns the local path of a product's thumbnail
func (c *ThumbnailCache) Path(id uint) string {
	return filepath.Join(c.basePath, fmt.Sprintf("product-%d.png", id))
}

// Has reports whether a thumbnail for id is cached.
func (c *ThumbnailCache) Has(id uint) bool {
	_, err := os.Stat(c.Path(id))
	return err == nil
}

func getAssetsPath() (string, error) {
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

	return filepath.Join(configDir, "OptiCart", "assets", "thumbnails"), nil
}
