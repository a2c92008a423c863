// Package api implements the read-only HTTP query API over stored
// articles.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/secnews/internal/config"
	"github.com/jonesrussell/secnews/internal/logger"
	"github.com/jonesrussell/secnews/internal/storage"
)

const readHeaderTimeout = 10 * time.Second

// SetupRouter creates and configures the Gin router with all routes.
func SetupRouter(log logger.Interface, store storage.Interface, cfg *config.ServerConfig) *gin.Engine {
	// Disable Gin's default logging
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware(cfg.AllowedOrigins))

	h := &articleHandler{store: store, logger: log.WithComponent("api")}

	router.GET("/healthz", h.health)
	// "/articles/search" would conflict with the ":id" wildcard in Gin's
	// route tree, so the id handler dispatches the search path itself.
	router.GET("/articles", h.list)
	router.GET("/articles/:id", h.getOrSearch)

	return router
}

// StartHTTPServer builds the HTTP server around the configured router.
func StartHTTPServer(log logger.Interface, store storage.Interface, cfg *config.ServerConfig) *http.Server {
	router := SetupRouter(log, store, cfg)

	return &http.Server{
		Addr:              cfg.Address,
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// loggingMiddleware creates a middleware that logs HTTP requests.
func loggingMiddleware(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		log.Info("HTTP Request",
			"method", c.Request.Method,
			"path", path,
			"query", query,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

// corsMiddleware adds CORS headers for the configured origins. An empty
// list allows any origin.
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[strings.TrimSuffix(origin, "/")] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowAll:
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		case allowed[origin]:
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers",
			"Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
