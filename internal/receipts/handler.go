package receipts

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/batikthread/batikthread/internal/platform/httpx"
	"github.com/batikthread/batikthread/internal/shared"
)

type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

// MountRoutes attaches the receipt routes. All of them sit behind the admin
// guard; receipts carry customer details.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/receipts", h.List)
	r.Post("/receipts", h.Create)
	r.Get("/receipts/{id}", h.Show)
	r.Get("/receipts/{id}/print", h.Print)
}

type listResponse struct {
	Receipts   []Receipt         `json:"receipts"`
	Pagination shared.Pagination `json:"pagination"`
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
		StartDate:     parseDate(r.URL.Query().Get("start_date")),
		EndDate:       parseEndDate(r.URL.Query().Get("end_date")),
		MinAmount:     parseAmount(r.URL.Query().Get("min_amount")),
		MaxAmount:     parseAmount(r.URL.Query().Get("max_amount")),
		Limit:         limit,
		Offset:        (page - 1) * limit,
	}

	receipts, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list receipts failed", "error", err)
		httpx.Fail(w, http.StatusInternalServerError, "failed to load receipts")
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse{
		Receipts:   receipts,
		Pagination: shared.NewPagination(page, limit, total),
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateReceiptRequest
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
		if errors.Is(err, ErrInvalidItems) {
			httpx.Fail(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("create receipt failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) Print(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(RenderText(rec)))
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (Receipt, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid receipt ID")
		return Receipt{}, false
	}

	rec, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Fail(w, http.StatusNotFound, "receipt not found")
			return Receipt{}, false
		}
		h.logger.Error("get receipt failed", "error", err, "id", id)
		httpx.RespondError(w, err)
		return Receipt{}, false
	}
	return rec, true
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
