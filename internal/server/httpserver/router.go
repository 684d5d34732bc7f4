package httpserver

import (
	"log/slog"
	"net/http"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Metrics serves the Prometheus exposition.
	Metrics http.Handler

	// Ready reports whether the RESP server can accept traffic.
	Ready func() error

	// Logger for request logging.
	Logger *slog.Logger

	// AllowList restricts /metrics to these IPs or CIDRs (empty = no restriction).
	AllowList []string

	// RateLimit is the per-IP rate limit (requests/second). Zero disables it.
	RateLimit int

	// AccessLog enables per-request logging.
	AccessLog bool
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		RateLimit: 100,
		AccessLog: true,
	}
}

// NewRouter creates the HTTP router for the observability endpoints.
//
// Order: Recover -> RequestID -> AccessLog -> RateLimit -> Handler.
func NewRouter(cfg *RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	common := []Middleware{Recover(logger), RequestID()}
	if cfg.AccessLog {
		common = append(common, AccessLog(logger))
	}
	if cfg.RateLimit > 0 {
		common = append(common, RateLimit(cfg.RateLimit))
	}

	mux := http.NewServeMux()

	mux.Handle("GET /healthz", Chain(http.HandlerFunc(handleHealth), common...))
	mux.Handle("GET /readyz", Chain(handleReady(cfg.Ready), common...))

	if cfg.Metrics != nil {
		metrics := append(append([]Middleware{}, common...), NetworkACL(cfg.AllowList, logger))
		mux.Handle("GET /metrics", Chain(cfg.Metrics, metrics...))
	}

	return mux
}
