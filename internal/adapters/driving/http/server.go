package http

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oriole-labs/sitebot-core/internal/core/ports/driven"
	"github.com/oriole-labs/sitebot-core/internal/core/ports/driving"
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

	// Services
	responder    driving.Responder
	ingest       driving.IngestionController
	crawlStarter driving.CrawlStarter

	// Infrastructure
	taskAuth      driven.TaskAuthenticator
	jobs          driven.JobStore
	documents     driven.DocumentStore
	conversations driven.ConversationStore
	db            Pinger // PostgreSQL health check
	redisClient   Pinger // Redis health check (optional)
}

// Config holds server configuration
type Config struct {
	Host    string
	Port    int
	Version string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:    "0.0.0.0",
		Port:    8080,
		Version: "dev",
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	responder driving.Responder,
	ingest driving.IngestionController,
	crawlStarter driving.CrawlStarter,
	taskAuth driven.TaskAuthenticator,
	jobs driven.JobStore,
	documents driven.DocumentStore,
	conversations driven.ConversationStore,
	db Pinger,
	redisClient Pinger, // can be nil
) *Server {
	s := &Server{
		router:        http.NewServeMux(),
		version:       cfg.Version,
		responder:     responder,
		ingest:        ingest,
		crawlStarter:  crawlStarter,
		taskAuth:      taskAuth,
		jobs:          jobs,
		documents:     documents,
		conversations: conversations,
		db:            db,
		redisClient:   redisClient,
	}

	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:     s.router,
		ReadTimeout: 30 * time.Second,
		// No write timeout: chat responses stream for as long as the model
		// talks. Cancellation comes from the client closing its end.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health endpoints
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Chat endpoint (widget-facing, bot traffic rejected)
	s.router.Handle("POST /api/v1/chat",
		RejectBots(http.HandlerFunc(s.handleChat)))

	// Task-queue callback (signed)
	s.router.HandleFunc("POST /api/v1/tasks/execute", s.handleExecuteTask)

	// Crawl management
	s.router.HandleFunc("POST /api/v1/chatbots/{id}/crawl", s.handleStartCrawl)
	s.router.HandleFunc("GET /api/v1/chatbots/{id}/jobs", s.handleListJobs)
	s.router.HandleFunc("GET /api/v1/chatbots/{id}/documents", s.handleListDocuments)

	// Conversation history
	s.router.HandleFunc("GET /api/v1/chatbots/{id}/conversations/{ref}", s.handleListConversation)
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
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

// Handler exposes the router for tests
func (s *Server) Handler() http.Handler {
	return s.router
}
