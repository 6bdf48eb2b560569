package main

import (
	"repairshop-service/internal/handler"
	mid "repairshop-service/internal/middleware"
	"repairshop-service/internal/service"
	"repairshop-service/pkg/config"
	"repairshop-service/pkg/database"
	"repairshop-service/pkg/jwtutil"
	"repairshop-service/pkg/logger"
	"repairshop-service/prometheus"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load .env file; missing file is fine, env vars may be set elsewhere
	_ = godotenv.Load()

	appConfig, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	if err := logger.InitLogger(appConfig); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting repairshop-service",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port))

	jwtutil.Initialize(&appConfig.JWT)
	log.Info("JWT utility initialized")

	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	db, err := database.Open(appConfig)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Services get their dependencies at construction; no hidden singletons
	registry := service.NewPlanRegistry(db)
	if err := registry.SeedDefaultPlans(); err != nil {
		log.Fatal("Failed to seed default plans", zap.Error(err))
	}
	tenants := service.NewTenantService(db, registry)
	jobs := service.NewJobService(db, registry)
	inventory := service.NewInventoryService(db, registry)
	profit := service.NewProfitService(db)

	jobHandler := handler.NewJobHandler(jobs)
	inventoryHandler := handler.NewInventoryHandler(inventory)
	profitHandler := handler.NewProfitHandler(profit)
	tenantHandler := handler.NewTenantHandler(tenants, registry)
	adminHandler := handler.NewAdminHandler(registry)

	e := echo.New()

	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/health", handler.Health)

	// Public routes
	e.POST("/api/tenants/signup", tenantHandler.Signup)
	e.GET("/api/tenants/check-subdomain/:subdomain", tenantHandler.CheckSubdomain)
	e.GET("/api/public/track/:job_number/:token", jobHandler.Track)

	// Tenant routes
	api := e.Group("/api", mid.AuthMiddleware)

	api.GET("/tenant", tenantHandler.GetCurrentTenant)
	api.GET("/tenant/plan", tenantHandler.GetCurrentPlan)
	api.PUT("/tenant/settings", tenantHandler.UpdateSettings, mid.RequireAdmin)

	api.POST("/users", tenantHandler.CreateUser, mid.RequireAdmin)
	api.GET("/users", tenantHandler.ListUsers)
	api.DELETE("/users/:id", tenantHandler.DeleteUser, mid.RequireAdmin)

	api.POST("/branches", tenantHandler.CreateBranch, mid.RequireAdmin)
	api.GET("/branches", tenantHandler.ListBranches)
	api.DELETE("/branches/:id", tenantHandler.DeleteBranch, mid.RequireAdmin)

	api.POST("/jobs", jobHandler.CreateJob)
	api.GET("/jobs", jobHandler.ListJobs)
	api.GET("/jobs/stats", jobHandler.JobStats)
	api.GET("/jobs/:id", jobHandler.GetJob)
	api.PUT("/jobs/:id/diagnosis", jobHandler.SetDiagnosis)
	api.PUT("/jobs/:id/approve", jobHandler.Approve)
	api.PUT("/jobs/:id/pending-parts", jobHandler.MarkPendingParts)
	api.PUT("/jobs/:id/repair", jobHandler.SetRepair)
	api.PUT("/jobs/:id/deliver", jobHandler.Deliver)
	api.PUT("/jobs/:id/close", jobHandler.Close)
	api.PUT("/jobs/:id/status", jobHandler.SetStatus)
	api.POST("/jobs/:id/photos", jobHandler.AddPhoto)
	api.DELETE("/jobs/:id/photos/:photo_id", jobHandler.RemovePhoto)
	api.GET("/jobs/:id/tracking-link", jobHandler.TrackingLink)

	api.GET("/inventory", inventoryHandler.ListItems)
	api.POST("/inventory", inventoryHandler.CreateItem)
	api.GET("/inventory/:id", inventoryHandler.GetItem)
	api.PUT("/inventory/:id", inventoryHandler.UpdateItem)
	api.DELETE("/inventory/:id", inventoryHandler.DeleteItem)
	api.POST("/inventory/:id/adjust", inventoryHandler.AdjustStock)
	api.GET("/inventory/:id/usage-history", inventoryHandler.UsageHistory)

	api.GET("/profit/summary", profitHandler.Summary, mid.RequireAdmin)
	api.GET("/profit/job-wise", profitHandler.JobWise, mid.RequireAdmin)
	api.GET("/profit/party-wise", profitHandler.PartyWise, mid.RequireAdmin)
	api.GET("/profit/pending-expenses", profitHandler.PendingExpenses, mid.RequireAdmin)
	api.PUT("/profit/bulk-expense", profitHandler.BulkExpense, mid.RequireAdmin)
	api.GET("/customers/:mobile/ledger", profitHandler.Ledger, mid.RequireAdmin)
	api.POST("/customers/payments", profitHandler.RecordPayment, mid.RequireAdmin)

	// Platform operator routes
	admin := e.Group("/api/super-admin", mid.SuperAdminMiddleware)
	admin.GET("/stats", adminHandler.PlatformStats)
	admin.GET("/plans", adminHandler.ListPlans)
	admin.POST("/plans", adminHandler.CreatePlan)
	admin.PUT("/plans/:id", adminHandler.UpdatePlan)
	admin.DELETE("/plans/:id", adminHandler.DeletePlan)
	admin.GET("/feature-options", adminHandler.FeatureOptions)
	admin.POST("/tenants/:id/assign-plan", adminHandler.AssignPlan)
	admin.PUT("/tenants/:id/active", adminHandler.SetTenantActive)

	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
