package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fintrack/backend/docs"
	"github.com/fintrack/backend/internal/audit"
	"github.com/fintrack/backend/internal/config"
	"github.com/fintrack/backend/internal/database"
	"github.com/fintrack/backend/internal/handlers"
	mW "github.com/fintrack/backend/internal/middleware"
	"github.com/fintrack/backend/internal/observability"
	"github.com/fintrack/backend/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

// @title FinTrack Ledger API
// @version 1.0
// @description Small-business double-entry ledger: transactions, receipts and balances
// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg := config.Load()

	logger := observability.NewLogger(cfg.Log.Level)
	defer logger.Sync()

	if cfg.JWT.SecretKey == "" {
		logger.Fatal("JWT_SECRET_KEY must be set")
	}

	otel.SetTextMapPropagator(propagation.TraceContext{})

	docs.SwaggerInfo.Host = "localhost:" + cfg.Server.Port
	docs.SwaggerInfo.BasePath = "/api"

	db, err := database.InitDB(cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(migrateCtx, db); err != nil {
		cancel()
		logger.Fatal("failed to migrate database", zap.Error(err))
	}
	cancel()

	redisClient := database.InitRedis(cfg.Redis, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	metrics := observability.NewMetrics()
	auditLog := audit.NewLogger(logger)

	ledgerService := services.NewLedgerService(db, logger, auditLog, metrics)
	readService := services.NewReadService(db)
	authService := services.NewAuthService(db, redisClient, cfg.JWT, cfg.BcryptCost, logger)
	qrService := services.NewQRService(redisClient, logger)

	opts := handlers.Options{
		DefaultLimit: cfg.Pagination.DefaultLimit,
		MaxLimit:     cfg.Pagination.MaxLimit,
		Production:   cfg.IsProduction(),
	}
	ledgerHandler := handlers.NewLedgerHandler(ledgerService, logger, opts)
	readHandler := handlers.NewReadHandler(readService, logger, opts)
	qrHandler := handlers.NewQRHandler(ledgerService, qrService, logger, opts)

	authenticator := mW.NewAuthenticator(cfg.JWT.SecretKey, redisClient, logger)
	replayGuard := mW.NewReplayGuard(redisClient, logger)

	// Setup router
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger, metrics))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", mW.IdempotencyHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/health", handlers.Health(logger,
		handlers.HealthCheck{Name: "postgres", Critical: true, Probe: db.PingContext},
		handlers.HealthCheck{Name: "redis", Probe: func(ctx context.Context) error {
			if redisClient == nil {
				return errors.New("not configured")
			}
			return redisClient.Ping(ctx).Err()
		}},
	))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Post("/auth/register", authService.Register)
		r.Post("/auth/login", authService.Login)
		r.Post("/auth/logout", authService.Logout)

		// Protected endpoints
		r.Group(func(r chi.Router) {
			r.Use(authenticator.Middleware)
			r.Use(replayGuard.Middleware)

			r.Get("/auth/me", authService.Me)

			r.Get("/transactions", readHandler.ListTransactions)
			r.Post("/transactions", ledgerHandler.CreateTransaction)
			r.Get("/transactions/{id}", ledgerHandler.GetTransaction)
			r.Put("/transactions/{id}", ledgerHandler.UpdateTransaction)
			r.Delete("/transactions/{id}", ledgerHandler.DeleteTransaction)

			r.Get("/receipts", readHandler.ListReceipts)
			r.Post("/receipts", ledgerHandler.CreateReceipt)
			r.Get("/receipts/{id}", ledgerHandler.GetReceipt)
			r.Put("/receipts/{id}", ledgerHandler.UpdateReceipt)
			r.Delete("/receipts/{id}", ledgerHandler.DeleteReceipt)
			r.Get("/receipts/{id}/qr", qrHandler.ReceiptQR)

			r.Get("/accounts", readHandler.ListAccounts)
			r.Post("/accounts", readHandler.CreateAccount)
			r.Get("/accounts/{id}", readHandler.GetAccount)

			r.Get("/customers", readHandler.ListCustomers)
			r.Post("/customers", readHandler.CreateCustomer)
			r.Get("/customers/{id}", readHandler.GetCustomer)

			r.Get("/suppliers", readHandler.ListSuppliers)
			r.Post("/suppliers", readHandler.CreateSupplier)
			r.Get("/suppliers/{id}", readHandler.GetSupplier)

			r.Get("/invoices", readHandler.ListInvoices)
			r.Get("/invoices/{id}", readHandler.GetInvoice)

			r.Get("/reports/trial-balance", readHandler.TrialBalance)
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		logger.Info("server starting", zap.String("addr", server.Addr), zap.String("env", cfg.Server.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
