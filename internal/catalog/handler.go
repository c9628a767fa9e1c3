package catalog

import (
	"context"
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

// MountPublicRoutes attaches the shop-facing catalog routes.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Get("/products", h.ListPublic)
	r.Get("/products/{id}", h.Show)
}

// MountAdminRoutes attaches the back-office product routes.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/products", h.ListAll)
	r.Post("/products", h.Create)
	r.Put("/products/{id}", h.Update)
	r.Put("/products/{id}/stock", h.ReplaceStock)
	r.Delete("/products/{id}", h.Delete)
}

// productView adds the derived stock fields the shop renders.
type productView struct {
	Product
	EffectiveStock int    `json:"effective_stock"`
	AvailableSizes []Size `json:"available_sizes"`
	LowStock       bool   `json:"low_stock"`
}

type listResponse struct {
	Products   []productView     `json:"products"`
	Pagination shared.Pagination `json:"pagination"`
}

func viewOf(p Product) productView {
	return productView{
		Product:        p,
		EffectiveStock: p.EffectiveStock(),
		AvailableSizes: p.AvailableSizes(),
		LowStock:       p.IsLowStock(),
	}
}

func (h *Handler) ListPublic(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.ListPublic)
}

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.ListAll)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, fetch func(context.Context, ListFilters) ([]Product, int, error)) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 24
	}

	filters := ListFilters{
		Gender: r.URL.Query().Get("gender"),
		Search: r.URL.Query().Get("search"),
		Limit:  limit,
		Offset: (page - 1) * limit,
	}

	products, total, err := fetch(r.Context(), filters)
	if err != nil {
		h.logger.Error("list products failed", "error", err)
		httpx.Fail(w, http.StatusInternalServerError, "failed to load products")
		return
	}

	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, viewOf(p))
	}
	httpx.JSON(w, http.StatusOK, listResponse{
		Products:   views,
		Pagination: shared.NewPagination(page, limit, total),
	})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Fail(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("get product failed", "error", err, "id", id)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(product))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
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
		if errors.Is(err, ErrInvalidSize) {
			httpx.Fail(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("create product failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, viewOf(created))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	var req UpdateProductRequest
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
		if errors.Is(err, ErrNotFound) {
			httpx.Fail(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("update product failed", "error", err, "id", id)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(updated))
}

func (h *Handler) ReplaceStock(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	var req ReplaceStockRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.service.ReplaceStock(r.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.Fail(w, http.StatusNotFound, "product not found")
		case errors.Is(err, ErrInvalidSize):
			httpx.Fail(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("replace stock failed", "error", err, "id", id)
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(updated))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Fail(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("delete product failed", "error", err, "id", id)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, nil)
}
