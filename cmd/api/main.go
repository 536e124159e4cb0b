package main

import (
	"os"

	_ "github.com/metrify/backend/api/swagger" // swagger docs
	"github.com/metrify/backend/internal/database"
	"github.com/metrify/backend/internal/handler"
	"github.com/metrify/backend/internal/middleware"
	"github.com/metrify/backend/internal/repository"
	"github.com/metrify/backend/internal/service"
	"github.com/metrify/backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// @title           MetriFy API
// @version         1.0
// @description     Business management API: product catalog, inventory ledger, sales import and profit reporting.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		logrus.Info("No configs/.env file found or error loading it")
	}

	if os.Getenv("GIN_MODE") == "release" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	// SQLite in development, Postgres in production.
	driver := envOr("DB_DRIVER", "sqlite")
	var dsn string
	switch driver {
	case "postgres":
		dsn = "postgres://" + envOr("DB_USER", "postgres") + ":" + envOr("DB_PASSWORD", "postgres") +
			"@" + envOr("DB_HOST", "localhost") + ":" + envOr("DB_PORT", "5432") +
			"/" + envOr("DB_NAME", "metrify") + "?sslmode=" + envOr("DB_SSLMODE", "disable")
	default:
		dsn = envOr("DB_PATH", "metrify.db")
	}

	db, err := database.NewConnection(driver, dsn)
	if err != nil {
		logrus.WithError(err).Fatal("Database connection failed")
	}
	logrus.WithField("driver", driver).Info("Connected to database")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	productRepo := repository.NewProductRepository(db)
	adjustmentRepo := repository.NewAdjustmentRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	userRepo := repository.NewUserRepository(db)

	catalogService := service.NewCatalogService(productRepo, auditRepo, txManager)
	inventoryService := service.NewInventoryService(productRepo, adjustmentRepo, settingsRepo, auditRepo, txManager, wsHub)
	salesService := service.NewSalesService(saleRepo, productRepo, auditRepo, txManager)
	importService := service.NewImportService(saleRepo, productRepo, auditRepo, txManager, wsHub)
	reportService := service.NewReportService(saleRepo, productRepo, adjustmentRepo, settingsRepo)
	settingsService := service.NewSettingsService(settingsRepo, auditRepo, txManager)
	auditService := service.NewAuditService(auditRepo)
	userService := service.NewUserService(userRepo)

	catalogHandler := handler.NewCatalogHandler(catalogService)
	inventoryHandler := handler.NewInventoryHandler(inventoryService)
	salesHandler := handler.NewSalesHandler(salesService)
	importHandler := handler.NewImportHandler(importService)
	reportHandler := handler.NewReportHandler(reportService)
	settingsHandler := handler.NewSettingsHandler(settingsService)
	auditHandler := handler.NewAuditHandler(auditService)
	userHandler := handler.NewUserHandler(userService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	catalogHandler.RegisterRoutes(router.Group(""))
	inventoryHandler.RegisterRoutes(router.Group(""))
	salesHandler.RegisterRoutes(router.Group(""))
	importHandler.RegisterRoutes(router.Group(""))
	reportHandler.RegisterRoutes(router.Group(""))
	settingsHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	port := envOr("PORT", "8080")

	logrus.WithField("port", port).Info("Server listening")
	if err := router.Run(":" + port); err != nil {
		logrus.WithError(err).Fatal("Server failed")
	}
}
