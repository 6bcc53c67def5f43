package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/keruru-amuri/spog-management/internal/consumption"
	"github.com/keruru-amuri/spog-management/internal/items"
	"github.com/keruru-amuri/spog-management/internal/locations"
	"github.com/keruru-amuri/spog-management/internal/observability"
	"github.com/keruru-amuri/spog-management/internal/reporting"
	"github.com/keruru-amuri/spog-management/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger              *slog.Logger
	Config              *Config
	ItemsHandler        *items.Handler
	LocationsHandler    *locations.Handler
	TransactionsHandler *consumption.Handler
	ReportsHandler      *reporting.Handler
	JobHandler          *jobs.Handler
	Metrics             *observability.Metrics
}

// NewRouter constructs the chi.Router with service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/items", params.ItemsHandler.MountRoutes)
	r.Route("/locations", params.LocationsHandler.MountRoutes)
	r.Route("/transactions", params.TransactionsHandler.MountRoutes)
	if params.ReportsHandler != nil {
		r.Route("/reports", params.ReportsHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
