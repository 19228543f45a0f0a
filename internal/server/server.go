// Package server exposes proposal generation over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/amishk599/pitchperfect/internal/model"
	"github.com/amishk599/pitchperfect/internal/pipeline"
)

const requestIDHeader = "X-Request-ID"

// Runner is the part of the pipeline the handlers use.
type Runner interface {
	Run(ctx context.Context, in pipeline.Input) (*model.GenerationResult, error)
}

// Defaults fill form fields the client leaves out.
type Defaults struct {
	Profile     model.FreelancerProfile
	Template    model.TemplateID
	Urgency     model.Urgency
	MatchSkills bool
	Filename    string
}

// Options configures the HTTP server.
type Options struct {
	Addr           string
	AllowedOrigins []string // empty allows every origin
	MaxUploadBytes int64
}

// Server serves the proposal API.
type Server struct {
	opts    Options
	handler *Handler
	logger  *slog.Logger
}

// New creates a server around runner.
func New(opts Options, runner Runner, defaults Defaults, logger *slog.Logger) *Server {
	return &Server{
		opts:    opts,
		handler: NewHandler(runner, defaults, opts.MaxUploadBytes, logger),
		logger:  logger,
	}
}

// Router builds the gin engine with middleware and routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = s.opts.MaxUploadBytes
	r.Use(gin.Recovery(), requestID(), accessLog(s.logger))

	corsCfg := cors.DefaultConfig()
	if len(s.opts.AllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.opts.AllowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", requestIDHeader}
	corsCfg.ExposeHeaders = []string{requestIDHeader, "Content-Disposition"}
	r.Use(cors.New(corsCfg))

	api := r.Group("/api/v1")
	{
		api.GET("/health", s.handler.Health)
		api.GET("/templates", s.handler.Templates)
		api.POST("/proposals", s.handler.CreateProposal)
		api.POST("/proposals/download", s.handler.DownloadProposal)
	}
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// requestID tags every request with a UUID, echoed in X-Request-ID. A valid
// incoming UUID is kept.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func accessLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			"request_id", c.GetString("request_id"),
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
