package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/batikthread/batikthread/internal/app"
	"github.com/batikthread/batikthread/internal/auth"
	"github.com/batikthread/batikthread/internal/cart"
	"github.com/batikthread/batikthread/internal/catalog"
	"github.com/batikthread/batikthread/internal/checkout"
	"github.com/batikthread/batikthread/internal/observability"
	"github.com/batikthread/batikthread/internal/platform/cache"
	"github.com/batikthread/batikthread/internal/platform/db"
	"github.com/batikthread/batikthread/internal/pricing"
	"github.com/batikthread/batikthread/internal/receipts"
	"github.com/batikthread/batikthread/internal/reports"
	"github.com/batikthread/batikthread/internal/requests"
	"github.com/batikthread/batikthread/internal/transactions"
	"github.com/batikthread/batikthread/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	authService := auth.NewService(redisClient, cfg.AdminUser, cfg.AdminPasswordHash, cfg.AdminSessionTTL)
	authHandler := auth.NewHandler(logger, authService)
	authMiddleware := &auth.Middleware{Service: authService, Logger: logger}

	catalogRepo := catalog.NewRepository(pool)
	catalogService := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	pricingRepo := pricing.NewRepository(pool)
	pricingService := pricing.NewService(pricingRepo, redisClient, 10*time.Minute)
	pricingHandler := pricing.NewHandler(logger, pricingService)

	cartStore := cart.NewStore(redisClient, cfg.CartTTL)
	cartService := cart.NewService(cartStore, catalogService, pricingService)
	cartHandler := cart.NewHandler(logger, cartService)

	receiptsRepo := receipts.NewRepository(pool)
	receiptsService := receipts.NewService(receiptsRepo)
	receiptsHandler := receipts.NewHandler(logger, receiptsService)

	sweepQueue, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("connect job queue", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := sweepQueue.Close(); err != nil {
			logger.Warn("job queue close", slog.Any("error", err))
		}
	}()

	transactionsRepo := transactions.NewRepository(pool)
	transactionsService := transactions.NewService(transactionsRepo, logger, cfg.StaleTransactionAge)
	transactionsHandler := transactions.NewHandler(logger, transactionsService, sweepQueue)

	checkoutStore := checkout.NewStore(pool)
	checkoutService := checkout.NewService(logger, checkoutStore, cartService, pricingService, nil)
	checkoutHandler := checkout.NewHandler(logger, checkoutService)

	challengeStore := requests.NewChallengeStore(redisClient, cfg.ChallengeTTL)
	requestsRepo := requests.NewRepository(pool)
	requestsService := requests.NewService(requestsRepo, challengeStore, logger, cfg.MinSubmitDelay)
	requestsHandler := requests.NewHandler(logger, requestsService)

	reportsService := reports.NewService(pool, catalogService)
	reportsHandler := reports.NewHandler(reportsService, logger)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		AuthHandler:         authHandler,
		AuthMiddleware:      authMiddleware,
		CatalogHandler:      catalogHandler,
		PricingHandler:      pricingHandler,
		CartHandler:         cartHandler,
		CheckoutHandler:     checkoutHandler,
		ReceiptsHandler:     receiptsHandler,
		TransactionsHandler: transactionsHandler,
		RequestsHandler:     requestsHandler,
		ReportsHandler:      reportsHandler,
		Metrics:             metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
