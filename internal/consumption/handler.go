package consumption

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/keruru-amuri/spog-management/internal/platform/httpx"
	"github.com/keruru-amuri/spog-management/internal/shared"
)

// TransactionCounter tallies transaction outcomes for the metrics
// endpoint. May be nil.
type TransactionCounter interface {
	CountTransaction(txType, outcome string)
}

// Handler serves the transaction endpoints. Rejections return the
// Result shape with a non-2xx status so the presentation layer can
// re-render from the same document either way.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	counter  TransactionCounter
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service, counter TransactionCounter) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New(), counter: counter}
}

// MountRoutes attaches transaction routes. Mutations are rate limited
// per IP; the adjustment path additionally requires the supervisor
// role.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(30, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		r.Post("/consumption", h.Consume)
		r.Group(func(r chi.Router) {
			r.Use(requireRole(shared.RoleSupervisor))
			r.Post("/adjustment", h.Adjust)
		})
	})
	r.Get("/consumption", h.ListRecords)
}

func (h *Handler) Consume(w http.ResponseWriter, r *http.Request) {
	var req ConsumeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())

	result, err := h.service.RecordConsumption(r.Context(), ConsumeInput{
		ItemID:         req.ItemID,
		ActorID:        actor.ID,
		Amount:         req.Amount,
		Reason:         req.Reason,
		IdempotencyKey: req.IdempotencyKey,
	})
	h.respond(w, "consumption", result, err)
}

func (h *Handler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req AdjustRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())

	result, err := h.service.AdjustBalance(r.Context(), AdjustInput{
		ItemID:         req.ItemID,
		ActorID:        actor.ID,
		NewBalance:     req.NewBalance,
		Reason:         req.Reason,
		IdempotencyKey: req.IdempotencyKey,
	})
	h.respond(w, "adjustment", result, err)
}

func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	itemID, _ := strconv.ParseInt(r.URL.Query().Get("item_id"), 10, 64)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	filter := RecordFilter{
		ItemID: itemID,
		From:   parseTime(r.URL.Query().Get("from")),
		To:     parseTime(r.URL.Query().Get("to")),
		Limit:  limit,
	}
	records, err := h.service.ListRecords(r.Context(), filter)
	if err != nil {
		h.logger.Error("list consumption records failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, records)
}

func (h *Handler) respond(w http.ResponseWriter, txType string, result Result, err error) {
	switch {
	case err == nil:
		h.count(txType, "accepted")
		httpx.JSON(w, http.StatusOK, result)
	case errors.Is(err, ErrInsufficientBalance):
		h.count(txType, "insufficient")
		httpx.JSON(w, http.StatusConflict, result)
	case errors.Is(err, ErrInvalidAmount):
		h.count(txType, "invalid")
		httpx.JSON(w, http.StatusBadRequest, result)
	case errors.Is(err, shared.ErrNotFound):
		h.count(txType, "not_found")
		httpx.JSON(w, http.StatusNotFound, result)
	case errors.Is(err, shared.ErrIdempotencyConflict):
		h.count(txType, "duplicate")
		httpx.JSON(w, http.StatusConflict, result)
	default:
		h.count(txType, "error")
		h.logger.Error("transaction failed", slog.Any("error", err))
		httpx.JSON(w, http.StatusInternalServerError, result)
	}
}

func (h *Handler) count(txType, outcome string) {
	if h.counter != nil {
		h.counter.CountTransaction(txType, outcome)
	}
}

// requireRole rejects requests whose actor lacks the given role.
// Authentication itself happens upstream; this only gates the
// privileged adjustment path.
func requireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := shared.ActorFromContext(r.Context())
			if !ok || actor.Role != role {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "adjustment requires the "+role+" role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func parseTime(value string) time.Time {
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
