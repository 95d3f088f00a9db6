package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/custodia-labs/docqa/internal/logger"
)

// Defaults applied by NewServer when Config leaves a field empty.
const (
	DefaultAddress        = "127.0.0.1:8000"
	DefaultMaxUploadBytes = 50 << 20
	shutdownTimeout       = 10 * time.Second
)

// DefaultExtensions are the upload types accepted when Config names none.
var DefaultExtensions = []string{".pdf", ".docx", ".txt", ".csv", ".md", ".xlsx", ".html"}

// Config configures the HTTP API.
type Config struct {
	// Address is the listen address.
	Address string

	// MaxUploadBytes caps the size of one upload.
	MaxUploadBytes int64

	// AllowedExtensions lists the accepted upload extensions.
	AllowedExtensions []string
}

// Server is the HTTP API for docqa.
type Server struct {
	ports   *Ports
	config  Config
	allowed map[string]struct{}
	echo    *echo.Echo
}

// NewServer creates a new HTTP server with the given ports.
func NewServer(ports *Ports, cfg Config) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}
	if cfg.Address == "" {
		cfg.Address = DefaultAddress
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = DefaultExtensions
	}

	s := &Server{
		ports:   ports,
		config:  cfg,
		allowed: make(map[string]struct{}, len(cfg.AllowedExtensions)),
	}
	for _, ext := range cfg.AllowedExtensions {
		s.allowed[strings.ToLower(ext)] = struct{}{}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echoMiddleware.Recover())
	e.Use(requestID())
	e.Use(accessLog())
	s.echo = e
	s.registerRoutes()

	return s, nil
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.config.Address
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.POST("/upload", s.handleUpload)
	s.echo.POST("/ask", s.handleAsk)
	s.echo.POST("/search-doc", s.handleSearchDocuments)
	s.echo.GET("/documents", s.handleListDocuments)
	s.echo.POST("/document/rename", s.handleRenameDocument)
	s.echo.POST("/document/delete", s.handleDeleteDocument)
	s.echo.GET("/history", s.handleListHistory)
	s.echo.GET("/history/search", s.handleSearchHistory)
	s.echo.GET("/history/similar", s.handleSimilarHistory)
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening on http://%s", s.config.Address)
		errCh <- s.echo.Start(s.config.Address)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
