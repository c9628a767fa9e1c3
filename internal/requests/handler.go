package requests

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/batikthread/batikthread/internal/platform/httpx"
	"github.com/batikthread/batikthread/internal/shared"
)

type Handler struct {
	service  *Service
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{service: service, validate: validator.New(), logger: logger}
}

// MountPublicRoutes exposes the challenge endpoint and the submission form.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Get("/custom-request/challenge", h.challenge)
	r.Post("/custom-request", h.submit)
}

// MountAdminRoutes exposes the review queue.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/custom-requests", h.list)
	r.Get("/custom-requests/{id}", h.get)
	r.Patch("/custom-requests/{id}", h.review)
	r.Delete("/custom-requests/{id}", h.remove)
}

type listResponse struct {
	Requests   []CustomRequest   `json:"requests"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) challenge(w http.ResponseWriter, r *http.Request) {
	token, err := h.service.Challenge(r.Context())
	if err != nil {
		h.logger.Error("issue challenge", "error", err)
		httpx.Fail(w, http.StatusInternalServerError, "could not issue challenge")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"challenge_token": token})
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "missing or invalid fields")
		return
	}

	cr, err := h.service.Submit(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrSubmissionRejected) {
			httpx.Fail(w, http.StatusUnprocessableEntity, "submission could not be processed")
			return
		}
		h.logger.Error("submit custom request", "error", err)
		httpx.Fail(w, http.StatusInternalServerError, "could not submit request")
		return
	}
	httpx.JSON(w, http.StatusCreated, cr)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	f := ListFilters{Limit: limit, Offset: (page - 1) * limit}
	if raw := r.URL.Query().Get("status"); raw != "" {
		st := Status(raw)
		switch st {
		case StatusPending, StatusReviewed, StatusApproved, StatusRejected, StatusCompleted:
			f.Status = &st
		default:
			httpx.Fail(w, http.StatusBadRequest, "unknown status filter")
			return
		}
	}

	items, total, err := h.service.List(r.Context(), f)
	if err != nil {
		h.logger.Error("list custom requests", "error", err)
		httpx.Fail(w, http.StatusInternalServerError, "could not list requests")
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse{
		Requests:   items,
		Pagination: shared.NewPagination(page, limit, total),
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request id")
		return
	}
	cr, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Fail(w, http.StatusNotFound, "request not found")
			return
		}
		h.logger.Error("get custom request", "error", err, "id", id)
		httpx.Fail(w, http.StatusInternalServerError, "could not load request")
		return
	}
	httpx.JSON(w, http.StatusOK, cr)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request id")
		return
	}
	var req ReviewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "missing or invalid fields")
		return
	}

	cr, err := h.service.Review(r.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.Fail(w, http.StatusNotFound, "request not found")
		case errors.Is(err, ErrInvalidTransition):
			httpx.Fail(w, http.StatusUnprocessableEntity, "status change not allowed")
		default:
			h.logger.Error("review custom request", "error", err, "id", id)
			httpx.Fail(w, http.StatusInternalServerError, "could not update request")
		}
		return
	}
	httpx.JSON(w, http.StatusOK, cr)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Fail(w, http.StatusNotFound, "request not found")
			return
		}
		h.logger.Error("delete custom request", "error", err, "id", id)
		httpx.Fail(w, http.StatusInternalServerError, "could not delete request")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
