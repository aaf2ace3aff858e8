package http

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/custodia-labs/docledger/internal/core/ports/driven"
	"github.com/custodia-labs/docledger/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger

	// Services
	docService     driving.DocumentService
	searchService  driving.SearchService
	catalogService driving.CatalogService

	// Infrastructure
	verifier driven.ActorVerifier // nil means X-Actor header identification
	db       Pinger               // PostgreSQL health check
	lock     Pinger               // lock backend health check (optional)

	allowedOrigins []string
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	Version        string
	AllowedOrigins []string
	// MaxBodyBytes bounds request bodies; extraction payloads can be large.
	MaxBodyBytes int64
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		Version:        "dev",
		AllowedOrigins: []string{"*"},
		MaxBodyBytes:   16 << 20,
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	docService driving.DocumentService,
	searchService driving.SearchService,
	catalogService driving.CatalogService,
	verifier driven.ActorVerifier, // can be nil
	db Pinger,
	lock Pinger, // can be nil
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		router:         http.NewServeMux(),
		version:        cfg.Version,
		logger:         logger,
		docService:     docService,
		searchService:  searchService,
		catalogService: catalogService,
		verifier:       verifier,
		db:             db,
		lock:           lock,
		allowedOrigins: cfg.AllowedOrigins,
	}

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultConfig().MaxBodyBytes
	}

	s.setupRoutes()
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.handler(maxBody),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// handler wraps the router with the middleware chain.
func (s *Server) handler(maxBody int64) http.Handler {
	var h http.Handler = s.router
	h = http.MaxBytesHandler(h, maxBody)
	h = NewCORSMiddleware(s.allowedOrigins).Handler(h)
	h = NewLoggingMiddleware(s.logger).Handler(h)
	h = NewRecoveryMiddleware(s.logger).Handler(h)
	return h
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	actors := NewActorMiddleware(s.verifier)
	api := func(h http.HandlerFunc) http.Handler {
		return actors.Identify(h)
	}

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	s.router.HandleFunc("GET /swagger/doc.json", s.handleSwaggerDoc)

	// Document lifecycle
	s.router.Handle("POST /api/v1/documents", api(s.handleSaveRaw))
	s.router.Handle("GET /api/v1/documents", api(s.handleListDocuments))
	s.router.Handle("GET /api/v1/documents/{id}", api(s.handleGetDocument))
	s.router.Handle("GET /api/v1/documents/{id}/records", api(s.handleGetRecords))
	s.router.Handle("GET /api/v1/documents/{id}/history/{type}", api(s.handleGetHistory))
	s.router.Handle("POST /api/v1/documents/{id}/approve", api(s.handleApprove))
	s.router.Handle("POST /api/v1/documents/{id}/review", api(s.handleStartReview))
	s.router.Handle("POST /api/v1/documents/{id}/reject", api(s.handleReject))

	// Search
	s.router.Handle("POST /api/v1/search/table-rows", api(s.handleFindTableRows))
	s.router.Handle("POST /api/v1/search/full-text", api(s.handleFullText))

	// Catalog
	s.router.Handle("GET /api/v1/catalog/fields", api(s.handleListFields))
	s.router.Handle("POST /api/v1/catalog/fields", api(s.handleCreateField))
	s.router.Handle("GET /api/v1/catalog/fields/{code}", api(s.handleGetField))
	s.router.Handle("GET /api/v1/catalog/document-types", api(s.handleListDocumentTypes))
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
