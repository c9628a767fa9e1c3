package checkout

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/batikthread/batikthread/internal/cart"
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
	r.Post("/checkout", h.Checkout)
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Checkout(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, cart.ErrCartNotFound):
			httpx.Fail(w, http.StatusNotFound, "cart not found")
		case errors.Is(err, ErrEmptyCart):
			httpx.Fail(w, http.StatusUnprocessableEntity, "cart is empty")
		case errors.Is(err, catalog.ErrInsufficientStock):
			httpx.Fail(w, http.StatusConflict, "insufficient stock for one or more items")
		case errors.Is(err, ErrPaymentDeclined):
			httpx.Fail(w, http.StatusPaymentRequired, "payment declined")
		default:
			h.logger.Error("checkout failed", "error", err)
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}
