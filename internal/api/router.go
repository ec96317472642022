package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RouterOptions wires the non-JSON endpoints.
type RouterOptions struct {
	AllowedOrigins []string
	Live           http.Handler // websocket stream, optional
	Metrics        http.Handler // prometheus exposition, optional
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(h *Handlers, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), cors(opts.AllowedOrigins))

	r.GET("/health", h.HandleHealth)

	api := r.Group("/api")
	{
		api.POST("/optimize", h.HandleOptimize)
		api.GET("/products", h.HandleProducts)
		api.GET("/products/:id", h.HandleProduct)
		api.GET("/products/:id/thumbnail", h.HandleThumbnail)
		api.POST("/buy/:id", h.HandleBuy)
		api.GET("/routes", h.HandleRoutes)
	}

	if opts.Live != nil {
		r.GET("/ws", gin.WrapH(opts.Live))
	}
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}
	return r
}

// CORS middleware
func cors(allowed []string) gin.HandlerFunc {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case len(set) == 0:
			c.Header("Access-Control-Allow-Origin", "*")
		case set[origin]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if c.FullPath() == "/metrics" || c.FullPath() == "/health" {
			return
		}
		slog.Debug("HTTP request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("took", time.Since(start)),
		)
	}
}
