package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go-inventory-ledger/internal/config"
	"go-inventory-ledger/internal/handler"
	"go-inventory-ledger/internal/lock"
	"go-inventory-ledger/internal/middleware"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/internal/ws"
	"go-inventory-ledger/pkg/database"
	"go-inventory-ledger/pkg/jwt"
	"go-inventory-ledger/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.New(cfg.AppEnv, cfg.LogLevel)
	defer log.Sync()
	zap.ReplaceGlobals(log)

	decimal.MarshalJSONWithoutQuotes = true

	// 2. Setup database
	db, err := database.Connect(cfg, log)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Product locks: Redis when configured so several API instances
	// serialize on the same product, otherwise in-process.
	var locker lock.Locker = lock.NewLocal()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("redis connection failed", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		defer rdb.Close()
		locker = lock.NewRedis(rdb, cfg.LockTTL)
		log.Info("using redis product locks", zap.String("addr", cfg.RedisAddr))
	}

	// 4. Setup WebSocket hub
	hub := ws.NewHub(log)
	go hub.Run(ctx)

	// 5. Dependency injection
	productRepo := repository.NewProductRepo(db)
	supplierRepo := repository.NewSupplierRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	userRepo := repository.NewUserRepo(db)

	tokens := jwt.NewManager(cfg.JWTSecret, cfg.JWTTTL)

	ledgerService := service.NewLedgerService(db, productRepo, txRepo, locker, hub, log,
		service.WithMaxAttempts(cfg.LedgerMaxAttempts))
	catalogService := service.NewCatalogService(productRepo, supplierRepo, txRepo, ledgerService, log)
	supplierService := service.NewSupplierService(supplierRepo, productRepo, log)
	reportService := service.NewReportService(db, productRepo, supplierRepo, txRepo, log)
	stockService := service.NewStockService(productRepo, txRepo, userRepo)
	authService := service.NewAuthService(userRepo, tokens, log)
	userService := service.NewUserService(userRepo, log)

	if err := authService.SeedUsers(ctx,
		service.SeedAccount{Name: "Administrator", Email: cfg.SeedAdminEmail, Password: cfg.SeedAdminPassword, Role: model.RoleAdmin},
		service.SeedAccount{Name: "Warehouse Manager", Email: cfg.SeedManagerEmail, Password: cfg.SeedManagerPassword, Role: model.RoleManager},
	); err != nil {
		log.Warn("failed to seed users", zap.Error(err))
	}

	authHandler := handler.NewAuthHandler(authService)
	txHandler := handler.NewTransactionHandler(ledgerService)
	productHandler := handler.NewProductHandler(catalogService)
	supplierHandler := handler.NewSupplierHandler(supplierService)
	reportHandler := handler.NewReportHandler(reportService)
	stockHandler := handler.NewStockHandler(stockService)
	userHandler := handler.NewUserHandler(userService)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: cfg.AppName,
	})

	app.Use(requestid.New())
	app.Use(logger.FiberMiddleware(log))
	app.Use(recover.New())
	app.Use(cors.New())

	// 7. Routes
	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)

	protected := api.Group("", middleware.RequireAuth(tokens, userRepo))
	protected.Get("/auth/me", authHandler.Me)

	staff := middleware.RequireRole(model.RoleAdmin, model.RoleManager)
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	protected.Get("/dashboard", adminOnly, stockHandler.GetDashboard)
	protected.Get("/stock-management", staff, stockHandler.GetSummary)

	protected.Get("/transactions", staff, txHandler.GetTransactions)
	protected.Get("/transactions/:id", staff, txHandler.GetTransaction)
	protected.Post("/transactions", staff, txHandler.CreateTransaction)

	protected.Get("/reports", staff, reportHandler.GetReport)
	protected.Get("/reports/export", staff, reportHandler.ExportReport)

	products := protected.Group("/products", staff)
	products.Get("/", productHandler.GetProducts)
	products.Post("/", productHandler.CreateProduct)
	products.Get("/trash", productHandler.GetTrashedProducts)
	products.Get("/:id", productHandler.GetProduct)
	products.Put("/:id", productHandler.UpdateProduct)
	products.Delete("/:id", productHandler.DeleteProduct)
	products.Post("/:id/restore", productHandler.RestoreProduct)
	products.Delete("/:id/force", productHandler.ForceDeleteProduct)

	suppliers := protected.Group("/suppliers", adminOnly)
	suppliers.Get("/", supplierHandler.GetSuppliers)
	suppliers.Post("/", supplierHandler.CreateSupplier)
	suppliers.Get("/trash", supplierHandler.GetTrashedSuppliers)
	suppliers.Get("/:id", supplierHandler.GetSupplier)
	suppliers.Put("/:id", supplierHandler.UpdateSupplier)
	suppliers.Delete("/:id", supplierHandler.DeleteSupplier)
	suppliers.Post("/:id/restore", supplierHandler.RestoreSupplier)
	suppliers.Delete("/:id/force", supplierHandler.ForceDeleteSupplier)

	users := protected.Group("/users", adminOnly)
	users.Get("/", userHandler.GetUsers)
	users.Post("/", userHandler.CreateUser)
	users.Put("/:id/role", userHandler.UpdateUserRole)
	users.Delete("/:id", userHandler.DeleteUser)

	// WebSocket route, authenticated with ?token=
	app.Use("/ws", ws.Upgrade, middleware.RequireAuth(tokens, userRepo))
	app.Get("/ws", hub.Handler())

	// 8. Graceful shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	log.Info("server exited")
}
