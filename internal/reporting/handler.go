package reporting

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/keruru-amuri/spog-management/internal/platform/httpx"
)

// Handler serves the read-only report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches report routes. Reports are cached but still
// rate limited; an uncached miss runs aggregate queries.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(60, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		r.Get("/usage", h.Usage)
		r.Get("/low-stock", h.LowStock)
	})
}

func (h *Handler) Usage(w http.ResponseWriter, r *http.Request) {
	locationID, _ := strconv.ParseInt(r.URL.Query().Get("location_id"), 10, 64)
	filter := UsageFilter{
		From:       parseDate(r.URL.Query().Get("from")),
		To:         parseDate(r.URL.Query().Get("to")),
		LocationID: locationID,
	}
	rows, err := h.service.Usage(r.Context(), filter)
	if err != nil {
		h.logger.Error("usage report failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) LowStock(w http.ResponseWriter, r *http.Request) {
	locationID, _ := strconv.ParseInt(r.URL.Query().Get("location_id"), 10, 64)
	rows, err := h.service.LowStock(r.Context(), locationID)
	if err != nil {
		h.logger.Error("low stock report failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func parseDate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t
	}
	return time.Time{}
}
