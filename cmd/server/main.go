package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rentledger/rentledger/internal/api"
	"github.com/rentledger/rentledger/internal/api/cron"
	v1 "github.com/rentledger/rentledger/internal/api/v1"
	"github.com/rentledger/rentledger/internal/config"
	"github.com/rentledger/rentledger/internal/logger"
	"github.com/rentledger/rentledger/internal/postgres"
	"github.com/rentledger/rentledger/internal/repository"
	"github.com/rentledger/rentledger/internal/service"
	"github.com/rentledger/rentledger/internal/validator"
	"go.uber.org/fx"
)

// @title RentLedger API
// @version 1.0
// @description Rental property billing service
// @BasePath /v1
// @schemes http https

func init() {
	// The whole application runs in UTC
	time.Local = time.UTC

	// Load .env if present, real environments configure via the process env
	_ = godotenv.Load()
}

func main() {
	app := fx.New(
		fx.Provide(
			validator.NewValidator,
			config.NewConfig,
			logger.NewLogger,

			// Postgres
			postgres.NewDB,
			providePostgresClient,

			// Repositories
			repository.NewLeaseRepository,
			repository.NewInvoiceRepository,
			repository.NewPaymentRepository,
			repository.NewUnitRepository,
			repository.NewUserRepository,
			repository.NewActivityRepository,

			// Services
			service.NewServiceParams,
			service.NewActivityService,
			service.NewLeaseService,
			service.NewInvoiceService,
			service.NewPaymentService,
			service.NewBillingService,

			// API
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(startServer),
	)
	app.Run()
}

func providePostgresClient(db *postgres.DB) postgres.IClient {
	return db
}

func provideHandlers(
	logger *logger.Logger,
	leaseService service.LeaseService,
	invoiceService service.InvoiceService,
	paymentService service.PaymentService,
	billingService service.BillingService,
	activityService service.ActivityService,
) api.Handlers {
	return api.Handlers{
		Lease:       v1.NewLeaseHandler(leaseService, logger),
		Invoice:     v1.NewInvoiceHandler(invoiceService, paymentService, logger),
		Payment:     v1.NewPaymentHandler(paymentService, logger),
		Billing:     v1.NewBillingHandler(billingService, logger),
		Activity:    v1.NewActivityHandler(activityService, logger),
		BillingCron: cron.NewBillingCronHandler(billingService, logger),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration) *gin.Engine {
	return api.NewRouter(handlers, cfg)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	db *postgres.DB,
	log *logger.Logger,
) {
	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infof("starting server on %s", cfg.Server.Address)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalf("failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down server")
			if err := server.Shutdown(ctx); err != nil {
				return err
			}
			db.Close()
			return nil
		},
	})
}
