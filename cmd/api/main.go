package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"movie-extractor/adapters"
	"movie-extractor/extractor"
	"movie-extractor/internal/config"
	"movie-extractor/internal/types"
	"movie-extractor/utils"
)

// APIRequest represents the request body for the API
type APIRequest struct {
	Top    int `json:"top"`
	Sample int `json:"sample"`
}

// APIResponse represents the response from the API
type APIResponse struct {
	Success bool           `json:"success"`
	Data    []types.Record `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Server holds the API server configuration
type Server struct {
	logger *logrus.Logger
	config *types.Config

	// One browser session at a time
	mu       sync.Mutex
	openPage func(ctx context.Context, cfg *types.Config) (utils.Page, error)
}

// NewServer creates a new API server
func NewServer(cfg *types.Config) *Server {
	// Setup logging
	logger := logrus.New()

	// Set timestamp format with milliseconds
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		if level, err := logrus.ParseLevel(levelStr); err == nil {
			logger.SetLevel(level)
		}
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	s := &Server{
		logger: logger,
		config: cfg,
	}
	s.openPage = func(ctx context.Context, cfg *types.Config) (utils.Page, error) {
		if !cfg.UseHeadlessBrowser {
			return utils.NewStaticPage(ctx, cfg, s.logger), nil
		}
		return utils.NewBrowserClient(ctx, cfg, s.logger)
	}
	return s
}

// handleExtract runs one unattended scrape and returns the records
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	// Set CORS headers
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	// Handle preflight requests
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Method != http.MethodPost {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req APIRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.sendError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}
	if req.Top < 0 || req.Sample < 0 {
		s.sendError(w, "top and sample must not be negative", http.StatusBadRequest)
		return
	}

	cfg := *s.config
	if req.Top > 0 {
		cfg.TopCount = req.Top
	}
	if req.Sample > 0 {
		cfg.SampleCount = req.Sample
	}

	s.logger.Infof("API request received: top=%d sample=%d", cfg.TopCount, cfg.SampleCount)

	records, err := s.collect(r.Context(), &cfg)
	if err != nil {
		s.logger.Errorf("Extraction failed: %v", err)
		s.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(APIResponse{Success: true, Data: records}); err != nil {
		s.logger.Errorf("Failed to encode response: %v", err)
	}
}

func (s *Server) collect(ctx context.Context, cfg *types.Config) (records []types.Record, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	page, err := s.openPage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected failure: %v", r)
		}
	}()

	top := adapters.NewNetflixAdapter(page, cfg, s.logger, utils.NoInput)
	details := adapters.NewRottenTomatoesAdapter(page, cfg, s.logger)
	return extractor.NewPipeline(top, details, cfg, s.logger).Collect(), nil
}

// sendError sends an error response
func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	response := APIResponse{
		Success: false,
		Error:   message,
	}

	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Errorf("Failed to encode error response: %v", err)
	}
}

// handleHealth handles the health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

// Handler returns the server routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/extract", s.handleExtract)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Start starts the API server
func (s *Server) Start(port string) error {
	s.logger.Infof("Starting API server on port %s", port)
	s.logger.Info("Available endpoints:")
	s.logger.Info("  POST /extract - Scrape the top list and return sampled records")
	s.logger.Info("  GET  /health  - Health check")

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server.ListenAndServe()
}

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	// Get port from environment variable, default to 8080
	serverPort := "8080"
	if envPort := os.Getenv("API_PORT"); envPort != "" {
		serverPort = envPort
	}

	cfg, err := config.Load(config.DefaultFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	server := NewServer(cfg)
	log.Fatal(server.Start(serverPort))
}
