package main

import (
	"context"
	"errors"
	"strings"

	"github.com/smsm300/fox-kiro-v5/internal/admin"
	"github.com/smsm300/fox-kiro-v5/internal/audit"
	"github.com/smsm300/fox-kiro-v5/internal/auth"
	"github.com/smsm300/fox-kiro-v5/internal/config"
	"github.com/smsm300/fox-kiro-v5/internal/core"
	"github.com/smsm300/fox-kiro-v5/internal/database"
	"github.com/smsm300/fox-kiro-v5/internal/inventory"
	"github.com/smsm300/fox-kiro-v5/internal/ledger"
	"github.com/smsm300/fox-kiro-v5/internal/logger"
	"github.com/smsm300/fox-kiro-v5/internal/models"
	"github.com/smsm300/fox-kiro-v5/internal/offline"
	"github.com/smsm300/fox-kiro-v5/internal/party"
	"github.com/smsm300/fox-kiro-v5/internal/quotation"
	"github.com/smsm300/fox-kiro-v5/internal/reports"
	"github.com/smsm300/fox-kiro-v5/internal/shift"
	"github.com/smsm300/fox-kiro-v5/internal/treasury"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel)
	database.Init(cfg)

	// Sync plumbing. With no upstream configured the client is nil and the
	// store runs standalone.
	var upstream offline.Upstream
	if cfg.UpstreamURL != "" {
		upstream = offline.NewClient(cfg.UpstreamURL, cfg.UpstreamTimeout)
	}
	monitor := offline.NewMonitor(upstream, cfg.ProbeInterval)
	queue := offline.NewQueue(database.DB)
	syncMgr := offline.NewManager(upstream, offline.NewGormStore(database.DB, queue), monitor)
	snapshots := offline.NewSnapshotCache()
	monitor.Subscribe(func(online bool) {
		if online {
			go offline.RefreshSnapshots(context.Background(), upstream, snapshots)
		}
	})
	monitor.Start(context.Background())

	svc := ledger.NewService(database.DB, queue, monitor, syncMgr)

	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	guard := offline.Guard(monitor)

	// Ledger
	protected.Post("/transactions/sales", ledger.CreateSaleHandler(svc))
	protected.Post("/transactions/purchases", ledger.CreatePurchaseHandler(svc))
	protected.Post("/transactions/expenses", ledger.CreateExpenseHandler(svc))
	protected.Post("/transactions/returns", ledger.CreateReturnHandler(svc))
	protected.Post("/transactions/adjustments", ledger.CreateAdjustmentHandler(svc))
	protected.Get("/transactions", ledger.ListHandler())

	// Owner money movements
	ownerOnly := auth.RequireRole(models.RoleAdmin, models.RoleAccountant)
	protected.Post("/transactions/capital", ownerOnly, ledger.CreateCapitalHandler(svc))
	protected.Post("/transactions/withdrawals", ownerOnly, ledger.CreateWithdrawalHandler(svc))

	// Treasury
	protected.Get("/treasury/summary", treasury.SummaryHandler())

	// Shifts
	protected.Post("/shifts/open", shift.OpenHandler())
	protected.Post("/shifts/:id/close", shift.CloseHandler())
	protected.Get("/shifts/current", shift.CurrentHandler())
	protected.Get("/shifts", shift.ListHandler())

	// Sync & catalog
	protected.Get("/sync/status", offline.StatusHandler(monitor, queue, syncMgr))
	protected.Post("/sync/run", offline.RunHandler(monitor, syncMgr))
	protected.Get("/catalog/:resource", offline.CatalogHandler(monitor, upstream, snapshots))

	// Inventory
	protected.Get("/products", inventory.ListProductsHandler())
	protected.Post("/products", inventory.CreateProductHandler())
	protected.Put("/products/:id", inventory.UpdateProductHandler())
	protected.Delete("/products/:id", guard, inventory.DeleteProductHandler())
	protected.Post("/products/import", inventory.ImportProductsHandler())

	// Counterparties
	protected.Get("/customers", party.ListCustomersHandler())
	protected.Post("/customers", party.CreateCustomerHandler())
	protected.Put("/customers/:id", party.UpdateCustomerHandler())
	protected.Delete("/customers/:id", guard, party.DeleteCustomerHandler())
	protected.Post("/customers/:id/settle-debt", party.SettleCustomerDebtHandler(queue, monitor, syncMgr))

	protected.Get("/suppliers", party.ListSuppliersHandler())
	protected.Post("/suppliers", party.CreateSupplierHandler())
	protected.Put("/suppliers/:id", party.UpdateSupplierHandler())
	protected.Delete("/suppliers/:id", guard, party.DeleteSupplierHandler())
	protected.Post("/suppliers/:id/settle-debt", party.SettleSupplierDebtHandler(queue, monitor, syncMgr))

	// Quotations
	protected.Post("/quotations", quotation.CreateHandler())
	protected.Get("/quotations", quotation.ListHandler())
	protected.Post("/quotations/:id/convert", quotation.ConvertHandler(svc))

	// Reports
	reportRoutes := protected.Group("/reports")
	reportRoutes.Use(auth.RequireRole(models.RoleAdmin, models.RoleAccountant))
	reportRoutes.Get("/monthly", reports.MonthlyHandler())
	reportRoutes.Get("/daily", reports.DailyHandler())
	reportRoutes.Get("/export", reports.ExportHandler())

	// Activity log
	protected.Get("/activity-logs", auth.RequireRole(models.RoleAdmin), audit.ListHandler())

	// Admin
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))
	adminRoutes.Post("/users", auth.CreateUserHandler())
	adminRoutes.Get("/users", auth.ListUsersHandler())
	adminRoutes.Delete("/users/:id", guard, auth.DeleteUserHandler())
	adminRoutes.Get("/backup", guard, admin.BackupHandler())
	adminRoutes.Post("/restore", guard, admin.RestoreHandler())
	adminRoutes.Post("/clear-transactions", guard, admin.ClearTransactionsHandler())
	adminRoutes.Post("/factory-reset", guard, admin.FactoryResetHandler())

	protected.Get("/settings", admin.GetSettingsHandler())
	protected.Put("/settings", auth.RequireRole(models.RoleAdmin), admin.UpdateSettingsHandler())

	logger.L.Info("server starting", "port", cfg.HTTPPort, "standalone", monitor.Standalone())
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		logger.L.Error("server stopped", "err", err)
	}
}

// errorHandler maps domain sentinels and fiber errors to HTTP responses.
func errorHandler(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, core.ErrShiftAlreadyOpen),
		errors.Is(err, core.ErrShiftNotOpen),
		errors.Is(err, core.ErrShiftRequired),
		errors.Is(err, core.ErrCreditLimit),
		errors.Is(err, core.ErrAlreadyReturned),
		errors.Is(err, core.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, core.ErrOfflineUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, core.ErrSyncReplayFailure):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}

	logger.L.Error("unexpected error", "path", c.Path(), "err", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}
