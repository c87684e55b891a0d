// Package server exposes the analysis pipeline over HTTP: one upload
// endpoint plus health and stats. Authentication, rate limiting and
// request size caps follow the configuration under server.*.
package server

import (
	"time"

	"skilllink/internal/analysis"
	"skilllink/internal/config"
	"skilllink/internal/credentials"
	skilllinkErrors "skilllink/internal/errors"
	"skilllink/internal/observability"
	"skilllink/internal/pipeline"
	"skilllink/internal/recommend"
)

// ErrorResponse is the JSON body of every non-2xx response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Dependencies carries the wired pipeline pieces the server serves.
// The runner is shared: one analysis at a time, a concurrent upload
// gets 409.
type Dependencies struct {
	Runner      *pipeline.Runner
	Assessor    analysis.Provider
	Recommender *recommend.Client
	Store       credentials.Store
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	TLSConfig config.TLSConfig

	// API key set for O(1) lookup; empty means auth disabled
	APIKeys map[string]bool

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// MaxRequestSize caps the upload body in bytes
	MaxRequestSize int64

	RateLimit   config.RateLimitConfig
	RateLimiter *LimiterManager

	deps    Dependencies
	obs     *observability.Manager
	Logger  *skilllinkErrors.Logger
}

// NewServer creates a new Server instance
func NewServer(cfg config.ServerConfig, maxRequestSize int64, version string, deps Dependencies, obs *observability.Manager, logger *skilllinkErrors.Logger) *Server {
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *LimiterManager
	if cfg.RateLimit.Enabled {
		rateLimiter = NewLimiterManager(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        version,
		TLSConfig:      cfg.TLS,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: maxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		deps:           deps,
		obs:            obs,
		Logger:         logger,
	}
}
