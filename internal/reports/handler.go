package reports

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/batikthread/batikthread/internal/platform/httpx"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/summary", h.summary)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.service.Summarize(r.Context())
	if err != nil {
		h.logger.Error("build summary", "error", err)
		httpx.Fail(w, http.StatusInternalServerError, "could not build summary")
		return
	}
	httpx.JSON(w, http.StatusOK, sum)
}
