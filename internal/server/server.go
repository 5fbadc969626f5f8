package server

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Version is the API version reported by the root endpoint.
const Version = "2.0.0"

type Server struct {
	Engine *gin.Engine
	Addr   string
	db     *sql.DB
}

func New(addr string, db *sql.DB, mode string) *Server {
	// Set Gin mode based on configuration
	if mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	s := &Server{
		Engine: r,
		Addr:   addr,
		db:     db,
	}

	r.GET("/", s.rootHandler)
	// Health check endpoint with database connectivity verification
	r.GET("/health", s.healthHandler)

	return s
}

// rootHandler describes the service and its query surface.
func (s *Server) rootHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Multi-Domain Analytics Backend API",
		"version": Version,
		"supported_analytics_types": gin.H{
			"sales":         "E-commerce / Sales Analytics",
			"food_delivery": "Food Delivery Analytics",
			"saas":          "SaaS Subscription Analytics",
		},
		"endpoints": gin.H{
			"aggregations":    "/api/v1/aggregate",
			"chart_data":      "/api/v1/chart",
			"metrics_summary": "/api/v1/metrics/summary",
			"fields":          "/api/v1/fields",
			"import":          "/api/v1/import/:analytics_type/csv",
			"health":          "/health",
		},
	})
}

func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	// Check database connectivity
	if s.db != nil {
		if err := s.db.PingContext(ctx); err != nil {
			slog.Error("Health check failed: database unreachable", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database unreachable",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": "connected",
	})
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.Addr,
		Handler: s.Engine,
	}

	slog.Info("Starting HTTP Server...", "address", s.Addr)

	go func() {
		<-ctx.Done()
		slog.Info("Stopping HTTP Server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP Server forced to shutdown", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
