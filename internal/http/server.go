// Package http exposes the billing-cycle engine over a JSON API.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"paisa/internal/core"
	"paisa/internal/services"
)

// AdminStore is the persistence surface the CRUD handlers need.
type AdminStore interface {
	services.Store
	UpsertInstrument(ctx context.Context, ir core.InstrumentRule) (core.InstrumentRule, error)
	DeleteInstrument(ctx context.Context, id string) error
	UpsertOverride(ctx context.Context, ov core.CycleOverride) (core.CycleOverride, error)
	DeleteOverride(ctx context.Context, id string) error
	UpsertObligation(ctx context.Context, ob core.Obligation) (core.Obligation, error)
	DeleteObligation(ctx context.Context, id string) error
	SetPaidFlag(ctx context.Context, key string, paid bool) error
}

type Server struct {
	store   AdminStore
	reports *services.ReportService
	ingest  *services.IngestService
	srv     *http.Server
}

func NewServer(port string, store AdminStore, reports *services.ReportService, ingest *services.IngestService) *Server {
	s := &Server{
		store:   store,
		reports: reports,
		ingest:  ingest,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.POST("/transactions/ingest", s.handleIngest)

		api.GET("/bills/generated", s.handleBillsGenerated)
		api.GET("/bills/due", s.handleBillsDue)
		api.POST("/cashflow/simulate", s.handleSimulate)
		api.GET("/trends", s.handleTrends)

		api.GET("/instruments", s.handleListInstruments)
		api.PUT("/instruments", s.handleUpsertInstrument)
		api.DELETE("/instruments/:id", s.handleDeleteInstrument)

		api.GET("/overrides", s.handleListOverrides)
		api.PUT("/overrides", s.handleUpsertOverride)
		api.DELETE("/overrides/:id", s.handleDeleteOverride)

		api.GET("/obligations", s.handleListObligations)
		api.PUT("/obligations", s.handleUpsertObligation)
		api.DELETE("/obligations/:id", s.handleDeleteObligation)

		api.GET("/flags", s.handleListFlags)
		api.PUT("/flags", s.handleSetFlag)
	}

	s.srv = &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

func (s *Server) Start() error {
	slog.Info("HTTP server listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.InfoContext(c.Request.Context(), "Request handled",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
