package cart

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/batikthread/batikthread/internal/catalog"
	"github.com/batikthread/batikthread/internal/platform/httpx"
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

func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/cart", h.Create)
	r.Get("/cart/{token}", h.Show)
	r.Put("/cart/{token}/lines", h.PutLine)
	r.Delete("/cart/{token}/lines/{productID}/{size}", h.RemoveLine)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Create(r.Context())
	if err != nil {
		h.logger.Error("create cart failed", "error", err)
		httpx.Fail(w, http.StatusInternalServerError, "failed to create cart")
		return
	}
	httpx.JSON(w, http.StatusCreated, view)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Get(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		if errors.Is(err, ErrCartNotFound) {
			httpx.Fail(w, http.StatusNotFound, "cart not found")
			return
		}
		h.logger.Error("get cart failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) PutLine(w http.ResponseWriter, r *http.Request) {
	var req PutLineRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.service.PutLine(r.Context(), chi.URLParam(r, "token"), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrCartNotFound):
			httpx.Fail(w, http.StatusNotFound, "cart not found")
		case errors.Is(err, ErrInvalidLine), errors.Is(err, ErrProductUnavailable):
			httpx.Fail(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.logger.Error("put cart line failed", "error", err)
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid product ID")
		return
	}
	size := catalog.Size(chi.URLParam(r, "size"))

	view, err := h.service.RemoveLine(r.Context(), chi.URLParam(r, "token"), productID, size)
	if err != nil {
		if errors.Is(err, ErrCartNotFound) {
			httpx.Fail(w, http.StatusNotFound, "cart not found")
			return
		}
		h.logger.Error("remove cart line failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}
