// Package server implements the HTTP server and routing logic.
package server

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mirieri/mdb/internal/jsondb"
	"github.com/mirieri/mdb/internal/server/handlers"
	"github.com/mirieri/mdb/internal/server/ratelimit"
)

// Config holds the router settings.
type Config struct {
	Version string
	// MaxRequestBodyBytes caps request bodies. 0 disables the cap.
	MaxRequestBodyBytes int64
	// AdminPasswordHash enables basic auth on mutating requests when set.
	AdminPasswordHash string
	// Limits selects rate limits. Nil disables rate limiting.
	Limits *ratelimit.Config
}

// NewRouter creates and configures the HTTP router.
//
// It creates the employees table in db if needed. Serves the employees page
// at /, the read-only JSON API at /api/* and Prometheus metrics at /metrics.
func NewRouter(db *jsondb.Database, cfg *Config) (http.Handler, error) {
	eh, err := handlers.NewEmployeesHandler(db)
	if err != nil {
		return nil, err
	}
	th := handlers.NewTableHandler(db)
	hh := handlers.NewHealthHandler(cfg.Version)

	mux := &http.ServeMux{}
	mux.HandleFunc("GET /{$}", eh.Index)
	mux.HandleFunc("POST /add", eh.Add)
	mux.HandleFunc("POST /delete/{id}", eh.Delete)

	mux.Handle("GET /api/health", Wrap(hh.Health))
	mux.Handle("GET /api/tables", Wrap(th.ListTables))
	mux.Handle("GET /api/tables/{name}", Wrap(th.GetTable))
	mux.Handle("GET /api/tables/{name}/rows", Wrap(th.ListRows))
	mux.Handle("GET /api/tables/{name}/schema", Wrap(th.GetSchema))

	mux.Handle("GET /metrics", promhttp.Handler())

	limits := cfg.Limits
	if limits == nil {
		limits = &ratelimit.Config{}
	}
	if cfg.MaxRequestBodyBytes < 0 {
		return nil, fmt.Errorf("invalid max request body size %d", cfg.MaxRequestBodyBytes)
	}
	return chain(mux,
		recoverPanics,
		withRequestMetadata,
		logRequests,
		rateLimit(limits),
		requireAdmin(cfg.AdminPasswordHash),
		limitBody(cfg.MaxRequestBodyBytes),
	), nil
}
