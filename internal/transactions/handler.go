package transactions

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/batikthread/batikthread/internal/auth"
	"github.com/batikthread/batikthread/internal/platform/httpx"
	"github.com/batikthread/batikthread/internal/shared"
)

// SweepQueue hands a sweep off to the background worker instead of running
// it on the request.
type SweepQueue interface {
	EnqueueTransactionsSweep(ctx context.Context, requestedBy string) error
}

type Handler struct {
	logger   *slog.Logger
	service  *Service
	queue    SweepQueue
	validate *validator.Validate
}

// NewHandler builds the transaction handler. queue may be nil, in which case
// sweeps always run inline.
func NewHandler(logger *slog.Logger, service *Service, queue SweepQueue) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		queue:    queue,
		validate: validator.New(),
	}
}

// MountRoutes attaches the transaction routes behind the admin guard.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/transactions", h.List)
	r.Post("/transactions", h.Create)
	r.Get("/transactions/{id}", h.Show)
	r.Patch("/transactions/{id}", h.Update)
	r.Post("/transactions/update-status", h.Sweep)
}

type listResponse struct {
	Transactions []Transaction     `json:"transactions"`
	Pagination   shared.Pagination `json:"pagination"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 200 {
		limit = 50
	}

	filters := ListFilters{
		ReceiptNumber: r.URL.Query().Get("receipt_number"),
		CustomerName:  r.URL.Query().Get("customer_name"),
		StartDate:     parseDate(r.URL.Query().Get("start_date")),
		EndDate:       parseEndDate(r.URL.Query().Get("end_date")),
		MinAmount:     parseAmount(r.URL.Query().Get("min_amount")),
		MaxAmount:     parseAmount(r.URL.Query().Get("max_amount")),
		Limit:         limit,
		Offset:        (page - 1) * limit,
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := Status(raw)
		if !ValidStatus(status) {
			httpx.Fail(w, http.StatusBadRequest, "unknown status filter")
			return
		}
		filters.Status = &status
	}

	txs, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list transactions failed", "error", err)
		httpx.Fail(w, http.StatusInternalServerError, "failed to load transactions")
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse{
		Transactions: txs,
		Pagination:   shared.NewPagination(page, limit, total),
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("create transaction failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid transaction ID")
		return
	}

	tx, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Fail(w, http.StatusNotFound, "transaction not found")
			return
		}
		h.logger.Error("get transaction failed", "error", err, "id", id)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tx)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid transaction ID")
		return
	}

	var req UpdateTransactionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.Fail(w, http.StatusNotFound, "transaction not found")
		case errors.Is(err, ErrInvalidTransition),
			errors.Is(err, ErrRefundAmountRequired),
			errors.Is(err, ErrRefundExceedsTotal):
			httpx.Fail(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.logger.Error("update transaction failed", "error", err, "id", id)
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

type sweepResponse struct {
	Updated int `json:"updated"`
}

type sweepQueuedResponse struct {
	Queued bool `json:"queued"`
}

func (h *Handler) Sweep(w http.ResponseWriter, r *http.Request) {
	if async := r.URL.Query().Get("async"); async == "1" || async == "true" {
		if h.queue == nil {
			httpx.Fail(w, http.StatusServiceUnavailable, "background queue unavailable")
			return
		}
		requestedBy := auth.AdminFromContext(r.Context())
		if requestedBy == "" {
			requestedBy = "admin"
		}
		if err := h.queue.EnqueueTransactionsSweep(r.Context(), requestedBy); err != nil {
			h.logger.Error("enqueue transaction sweep failed", "error", err)
			httpx.Fail(w, http.StatusInternalServerError, "failed to queue sweep")
			return
		}
		httpx.JSON(w, http.StatusAccepted, sweepQueuedResponse{Queued: true})
		return
	}

	count, err := h.service.Sweep(r.Context())
	if err != nil {
		h.logger.Error("transaction sweep failed", "error", err)
		httpx.Fail(w, http.StatusInternalServerError, "sweep failed")
		return
	}
	httpx.JSON(w, http.StatusOK, sweepResponse{Updated: count})
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}

// parseEndDate widens a calendar-day bound to the end of that day, so a
// <= comparison keeps records with non-midnight timestamps.
func parseEndDate(s string) *time.Time {
	t := parseDate(s)
	if t == nil {
		return nil
	}
	end := t.Add(24*time.Hour - time.Nanosecond)
	return &end
}

func parseAmount(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
