package api

import (
	"github.com/gin-gonic/gin"
	"github.com/rentledger/rentledger/internal/api/cron"
	v1 "github.com/rentledger/rentledger/internal/api/v1"
	"github.com/rentledger/rentledger/internal/config"
	"github.com/rentledger/rentledger/internal/rest/middleware"
	"github.com/rentledger/rentledger/internal/types"
)

type Handlers struct {
	Lease       *v1.LeaseHandler
	Invoice     *v1.InvoiceHandler
	Payment     *v1.PaymentHandler
	Billing     *v1.BillingHandler
	Activity    *v1.ActivityHandler
	BillingCron *cron.BillingCronHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration) *gin.Engine {
	if cfg.Deployment.Mode != types.ModeLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.ErrorHandler())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1Group := router.Group("/v1")
	v1Group.Use(middleware.OrganizationContextMiddleware)
	registerV1Routes(v1Group, handlers)

	cronGroup := router.Group("/cron")
	cronGroup.Use(middleware.OrganizationContextMiddleware)
	registerCronRoutes(cronGroup, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	leases := router.Group("/leases")
	{
		leases.POST("", handlers.Lease.CreateLease)
		leases.GET("", handlers.Lease.ListLeases)
		leases.GET("/:id", handlers.Lease.GetLease)
		leases.PUT("/:id", handlers.Lease.UpdateLease)
		leases.DELETE("/:id", handlers.Lease.DeleteLease)
		leases.POST("/:id/status", handlers.Lease.ChangeLeaseStatus)
		leases.POST("/:id/renew", handlers.Lease.RenewLease)
		leases.GET("/:id/balance", handlers.Lease.GetLeaseBalance)
		leases.GET("/:id/activity", handlers.Activity.ListLeaseActivity)
	}

	invoices := router.Group("/invoices")
	{
		invoices.POST("", handlers.Invoice.CreateInvoice)
		invoices.GET("", handlers.Invoice.ListInvoices)
		invoices.GET("/:id", handlers.Invoice.GetInvoice)
		invoices.PUT("/:id", handlers.Invoice.UpdateInvoice)
		invoices.POST("/:id/status", handlers.Invoice.ChangeInvoiceStatus)
		invoices.POST("/:id/void", handlers.Invoice.VoidInvoice)
		invoices.POST("/:id/items", handlers.Invoice.AddInvoiceItem)
		invoices.PUT("/:id/items/:item_id", handlers.Invoice.UpdateInvoiceItem)
		invoices.DELETE("/:id/items/:item_id", handlers.Invoice.RemoveInvoiceItem)
		invoices.GET("/:id/allocations", handlers.Invoice.ListInvoiceAllocations)
		invoices.GET("/:id/activity", handlers.Activity.ListInvoiceActivity)
	}

	payments := router.Group("/payments")
	{
		payments.POST("/allocations", handlers.Payment.AllocatePayment)
	}

	billing := router.Group("/billing")
	{
		billing.POST("/invoices/generate", handlers.Billing.BatchGenerateInvoices)
		billing.POST("/leases/:id/invoices", handlers.Billing.GenerateLeaseInvoice)
	}
}

func registerCronRoutes(router *gin.RouterGroup, handlers Handlers) {
	billing := router.Group("/billing")
	{
		billing.POST("/overdue", handlers.BillingCron.MarkOverdueInvoices)
	}
}
