package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/prakhar811/opticart-DAA/internal/domain"
	"github.com/prakhar811/opticart-DAA/internal/route"
)

// Optimizer computes delivery routes.
type Optimizer interface {
	Optimize(ctx context.Context, points []domain.GeoPoint, alg domain.Algorithm) (*route.Result, error)
}

// Catalog serves products and purchases.
type Catalog interface {
	GetAllProducts() []domain.Product
	GetProduct(id uint) (domain.Product, bool)
	ProductDetail(ctx context.Context, id uint) (*domain.Product, error)
	Buy(ctx context.Context, id uint) (*domain.Product, error)
}

// Thumbnails locates cached product images.
type Thumbnails interface {
	Path(id uint) string
	Has(id uint) bool
}

// MetaLoader exposes service bookkeeping for the health endpoint.
type MetaLoader interface {
	LoadMetaMap(ctx context.Context) (map[string]string, error)
}

// Handlers holds the HTTP handlers and their collaborators. Optional
// collaborators may be nil.
type Handlers struct {
	Optimizer   Optimizer
	Catalog     Catalog
	History     domain.RouteHistory
	Thumbnails  Thumbnails
	Meta        MetaLoader
	Version     string
	HistorySize int
}

type optimizeRequest struct {
	Points    []domain.GeoPoint `json:"points"`
	Algorithm string            `json:"algorithm"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeError maps domain errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	status, kind := http.StatusInternalServerError, "Internal"
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, kind = http.StatusBadRequest, "InvalidInput"
	case errors.Is(err, domain.ErrNotFound):
		status, kind = http.StatusNotFound, "NotFound"
	case errors.Is(err, domain.ErrOutOfStock):
		status, kind = http.StatusConflict, "OutOfStock"
	case errors.Is(err, domain.ErrOptimizationFailed):
		kind = "OptimizationFailed"
	}
	if status >= 500 {
		slog.Error("Request failed", slog.String("path", c.FullPath()), slog.Any("error", err))
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: kind, Message: err.Error()})
}

// HandleOptimize handles POST /api/optimize
func (h *Handlers) HandleOptimize(c *gin.Context) {
	var req optimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("malformed body: %v: %w", err, domain.ErrInvalidInput))
		return
	}
	if len(req.Points) < 2 {
		writeError(c, fmt.Errorf("need at least 2 points, got %d: %w", len(req.Points), domain.ErrInvalidInput))
		return
	}
	alg, err := domain.ParseAlgorithm(req.Algorithm)
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := h.Optimizer.Optimize(c.Request.Context(), req.Points, alg)
	if err != nil {
		writeError(c, err)
		return
	}

	switch res.Algorithm {
	case domain.AlgorithmTSP:
		c.JSON(http.StatusOK, gin.H{
			"type":     res.Algorithm.String(),
			"path":     res.Tour,
			"distance": res.Distance,
			"geometry": res.Geometry,
			"route":    res.Stops,
			"schedule": res.Schedule,
		})
	default:
		c.JSON(http.StatusOK, gin.H{
			"type":     res.Algorithm.String(),
			"tree":     res.Tree,
			"cost":     res.Cost,
			"lines":    res.Lines,
			"route":    res.Stops,
			"schedule": res.Schedule,
		})
	}
}

// HandleProducts handles GET /api/products
func (h *Handlers) HandleProducts(c *gin.Context) {
	c.JSON(http.StatusOK, domain.NewProductViews(h.Catalog.GetAllProducts()))
}

// HandleProduct handles GET /api/products/:id
// Unlike the list, the response carries the product's sale log.
func (h *Handlers) HandleProduct(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	p, err := h.Catalog.ProductDetail(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.NewProductView(*p))
}

// HandleBuy handles POST /api/buy/:id
func (h *Handlers) HandleBuy(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	p, err := h.Catalog.Buy(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.NewProductView(*p))
}

// HandleThumbnail handles GET /api/products/:id/thumbnail
func (h *Handlers) HandleThumbnail(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	if h.Thumbnails == nil || !h.Thumbnails.Has(id) {
		writeError(c, fmt.Errorf("thumbnail for product %d: %w", id, domain.ErrNotFound))
		return
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.File(h.Thumbnails.Path(id))
}

// HandleRoutes handles GET /api/routes
func (h *Handlers) HandleRoutes(c *gin.Context) {
	if h.History == nil {
		c.JSON(http.StatusOK, []domain.RouteRecord{})
		return
	}
	limit := h.HistorySize
	if q := c.Query("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 {
			writeError(c, fmt.Errorf("limit %q: %w", q, domain.ErrInvalidInput))
			return
		}
		limit = n
	}
	recs, err := h.History.RecentRoutes(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

// HandleHealth handles GET /health
func (h *Handlers) HandleHealth(c *gin.Context) {
	resp := gin.H{"status": "ok", "version": h.Version}
	if h.Meta != nil {
		if meta, err := h.Meta.LoadMetaMap(c.Request.Context()); err == nil {
			resp["lastTickAt"] = meta[domain.MetaLastTickAt]
		} else {
			resp["status"] = "degraded"
		}
	}
	c.JSON(http.StatusOK, resp)
}

func parseID(c *gin.Context) (uint, error) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("product id %q: %w", raw, domain.ErrInvalidInput)
	}
	return uint(id), nil
}
