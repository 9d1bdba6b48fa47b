// Package api exposes the questionnaire and the analysis engine over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stresscheck/internal/analysis"
	"stresscheck/internal/common/logger"
	"stresscheck/internal/transcript"
)

// Analyzer is satisfied by *analysis.Analyzer.
type Analyzer interface {
	Analyze(ctx context.Context, rs analysis.ResponseSet) (*analysis.AnalysisResult, error)
}

// Notifier is satisfied by *alerts.Notifier.
type Notifier interface {
	Notify(ctx context.Context, res *analysis.AnalysisResult, source string) (bool, error)
}

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type Options struct {
	Analyzer Analyzer
	Store    transcript.Store
	Notifier Notifier
	Logger   logger.Logger

	AllowedOrigins  []string
	MaxBodyBytes    int64
	AlertTimeout    time.Duration
	ReadinessChecks map[string]ReadinessCheck
	Version         string

	// RateLimitRPS caps requests per second on /api; 0 disables the limit.
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter wires every endpoint. Store and Notifier may be nil; without a
// store /api/save-response answers 503.
func NewRouter(opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	if opts.AlertTimeout <= 0 {
		opts.AlertTimeout = 5 * time.Second
	}

	h := &Handler{opts: opts, logger: opts.Logger.WithFields(map[string]interface{}{"component": "api"})}

	r := mux.NewRouter()
	r.Use(corsMiddleware(opts.AllowedOrigins))
	r.Use(loggingMiddleware(h.logger))

	apiRoutes := r.PathPrefix("/api").Subrouter()
	apiRoutes.Use(rateLimitMiddleware(opts.RateLimitRPS, opts.RateLimitBurst))
	apiRoutes.HandleFunc("/questions", h.Questions).Methods("GET", "OPTIONS")
	apiRoutes.HandleFunc("/save-response", h.SaveResponse).Methods("POST", "OPTIONS")
	apiRoutes.HandleFunc("/analyze", h.Analyze).Methods("POST", "OPTIONS")

	r.HandleFunc("/health", h.Health).Methods("GET")
	r.HandleFunc("/ready", h.Ready).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return r
}
