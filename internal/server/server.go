// SPDX-License-Identifier: Apache-2.0

// Package server is a reference implementation of the batch route import
// backend: multipart preview and import endpoints behind bearer auth.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleetops/laneimport/internal/batch"
	"github.com/fleetops/laneimport/internal/fields"
	"github.com/fleetops/laneimport/internal/sheet"
)

// DefaultMaxUploadBytes limits the size of an uploaded spreadsheet.
const DefaultMaxUploadBytes = 32 << 20

// Options configures a Server.
type Options struct {
	// Token, when set, is the only bearer credential accepted. Otherwise
	// any non-empty bearer token passes.
	Token          string
	SampleSize     int
	MaxUploadBytes int64
}

// Server serves the preview and import endpoints.
type Server struct {
	pipeline  *sheet.Pipeline
	processor *batch.Processor
	registry  *fields.Registry
	opts      Options
	logger    *zap.Logger
	router    *gin.Engine
}

// New wires a Server. A nil pipeline uses sheet.DefaultPipeline and a nil
// registry uses fields.Default().
func New(pipeline *sheet.Pipeline, processor *batch.Processor, registry *fields.Registry, opts Options, logger *zap.Logger) *Server {
	if pipeline == nil {
		pipeline = sheet.DefaultPipeline()
	}
	if registry == nil {
		registry = fields.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.SampleSize <= 0 {
		opts.SampleSize = sheet.DefaultSampleSize
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}

	s := &Server{
		pipeline:  pipeline,
		processor: processor,
		registry:  registry,
		opts:      opts,
		logger:    logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))
	r.MaxMultipartMemory = s.opts.MaxUploadBytes

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	routes := r.Group("/routes", bearerAuth(s.opts.Token))
	{
		routes.POST("/preview", s.handlePreview)
		routes.POST("/import", s.handleImport)
	}
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("server shutting down")
	return srv.Shutdown(shutdownCtx)
}
