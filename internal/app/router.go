package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/batikthread/batikthread/internal/auth"
	"github.com/batikthread/batikthread/internal/cart"
	"github.com/batikthread/batikthread/internal/catalog"
	"github.com/batikthread/batikthread/internal/checkout"
	"github.com/batikthread/batikthread/internal/observability"
	"github.com/batikthread/batikthread/internal/pricing"
	"github.com/batikthread/batikthread/internal/receipts"
	"github.com/batikthread/batikthread/internal/reports"
	"github.com/batikthread/batikthread/internal/requests"
	"github.com/batikthread/batikthread/internal/transactions"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger              *slog.Logger
	Config              *Config
	AuthHandler         *auth.Handler
	AuthMiddleware      *auth.Middleware
	CatalogHandler      *catalog.Handler
	PricingHandler      *pricing.Handler
	CartHandler         *cart.Handler
	CheckoutHandler     *checkout.Handler
	ReceiptsHandler     *receipts.Handler
	TransactionsHandler *transactions.Handler
	RequestsHandler     *requests.Handler
	ReportsHandler      *reports.Handler
	Metrics             *observability.Metrics
}

// NewRouter constructs the chi.Router for the storefront API.
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

	// Public storefront API.
	r.Group(func(r chi.Router) {
		params.CatalogHandler.MountPublicRoutes(r)
		params.CartHandler.MountRoutes(r)
	})

	// Checkout and the custom request form get a much tighter per-IP
	// budget than browsing does.
	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		params.CheckoutHandler.MountRoutes(r)
		params.RequestsHandler.MountPublicRoutes(r)
	})

	r.Route("/admin", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(params.AuthMiddleware.RequireAdmin)
			params.CatalogHandler.MountAdminRoutes(r)
			params.PricingHandler.MountAdminRoutes(r)
			params.ReceiptsHandler.MountRoutes(r)
			params.TransactionsHandler.MountRoutes(r)
			params.RequestsHandler.MountAdminRoutes(r)
			params.ReportsHandler.MountAdminRoutes(r)
		})
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
