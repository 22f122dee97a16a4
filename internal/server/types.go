// Package server exposes grain analysis over HTTP and WebSocket.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/MeKo-Tech/grainscan/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultMaxUploadMB limits uploads when Config.MaxUploadMB is not set.
const DefaultMaxUploadMB = 50

// Server holds the HTTP server state and dependencies.
type Server struct {
	pipeline    *pipeline.Pipeline
	corsOrigin  string
	maxUploadMB int64
	timeout     time.Duration
	version     string
	logger      *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Host               string
	Port               int
	CORSOrigin         string
	MaxUploadMB        int64
	TimeoutSec         int
	ShutdownTimeoutSec int
	Pipeline           pipeline.Config
	Version            string
	Logger             *slog.Logger
}

// Response types for API endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

type AnalyzeResponse struct {
	Success bool                  `json:"success"`
	Result  *pipeline.ImageResult `json:"result,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// NewServer creates a server analyzing with cfg.Pipeline unless a request
// overrides it.
func NewServer(cfg Config) (*Server, error) {
	if cfg.MaxUploadMB < 0 {
		return nil, errors.New("max upload size must not be negative")
	}
	if cfg.MaxUploadMB == 0 {
		cfg.MaxUploadMB = DefaultMaxUploadMB
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pcfg := cfg.Pipeline
	pcfg.Logger = logger

	pl, err := pipeline.New(pcfg)
	if err != nil {
		return nil, err
	}

	return &Server{
		pipeline:    pl,
		corsOrigin:  cfg.CORSOrigin,
		maxUploadMB: cfg.MaxUploadMB,
		timeout:     time.Duration(cfg.TimeoutSec) * time.Second,
		version:     cfg.Version,
		logger:      logger,
	}, nil
}

// SetupRoutes configures the HTTP routes. The WebSocket route bypasses the
// CORS middleware because the upgrade needs the raw response writer.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/v1/analyze", s.corsMiddleware(s.analyzeHandler))
	mux.HandleFunc("/v1/analyze/ws", s.analyzeWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}

// Handler returns a mux with every route installed.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return mux
}
