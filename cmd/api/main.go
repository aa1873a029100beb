package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/participium/participium-api/api/swagger"
	"github.com/participium/participium-api/internal/handler"
	"github.com/participium/participium-api/internal/middleware"
	"github.com/participium/participium-api/internal/models"
	"github.com/participium/participium-api/internal/repository"
	"github.com/participium/participium-api/internal/service"
	"github.com/participium/participium-api/pkg/cache"
	"github.com/participium/participium-api/pkg/config"
	"github.com/participium/participium-api/pkg/database"
	"github.com/participium/participium-api/pkg/logger"
	corsmiddleware "github.com/participium/participium-api/pkg/middleware/cors"
	reqidmiddleware "github.com/participium/participium-api/pkg/middleware/requestid"
	"github.com/participium/participium-api/pkg/storage"
)

// @title Participium API
// @version 1.0.0
// @description Municipal problem reporting and workload-balanced assignment
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, catalog cache disabled", "error", err)
		redisClient = nil
	}

	localStorage, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init uploads storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	userRepo := repository.NewUserRepository(db)
	reportRepo := repository.NewReportRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	officeRepo := repository.NewOfficeRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	validate := validator.New()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})

	metricsSvc := service.NewMetricsService()

	notificationSvc := service.NewNotificationService(notificationRepo, logr, cfg.Notifications)
	notificationSvc.Start(context.Background())
	defer notificationSvc.Stop()

	assignmentSvc := service.NewAssignmentService(categoryRepo, officeRepo, companyRepo, logr)
	reportSvc := service.NewReportService(reportRepo, categoryRepo, assignmentSvc, notificationSvc, metricsSvc, validate, logr)
	messageSvc := service.NewMessageService(messageRepo, reportRepo, logr)

	var categorySvc *service.CategoryService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		categorySvc = service.NewCategoryService(categoryRepo, companyRepo, cacheRepo, cfg.Catalog.CacheTTL, logr)
	} else {
		categorySvc = service.NewCategoryService(categoryRepo, companyRepo, nil, cfg.Catalog.CacheTTL, logr)
	}

	exportSvc := service.NewExportService(reportRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	messageHandler := handler.NewMessageHandler(messageSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	categoryHandler := handler.NewCategoryHandler(categorySvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	photoHandler := handler.NewPhotoHandler(localStorage, signer, reportSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	api.GET("/categories", categoryHandler.List)
	api.POST("/categories", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin), categoryHandler.Create)
	api.GET("/categories/:id/companies", middleware.JWT(authSvc), categoryHandler.Companies)

	api.GET("/uploads/photos/:token", photoHandler.Download)
	api.POST("/uploads/photos", middleware.JWT(authSvc), photoHandler.Upload)

	reports := api.Group("/reports", middleware.JWT(authSvc))
	reports.POST("", middleware.RequireRoles(models.RoleCitizen), reportHandler.Create)
	reports.GET("", reportHandler.List)
	if cfg.Exports.Enabled {
		reports.GET("/export", middleware.RequireRoles(models.RolePROfficer, models.RoleAdmin), exportHandler.Export)
	}
	reports.GET("/:id", reportHandler.Get)
	reports.POST("/:id/approve", middleware.RequireRoles(models.RolePROfficer), reportHandler.Approve)
	reports.POST("/:id/reject", middleware.RequireRoles(models.RolePROfficer), reportHandler.Reject)
	reports.PATCH("/:id/status", middleware.RequireRoles(models.RoleTechnicalStaff, models.RoleExternalMaintainer), reportHandler.UpdateStatus)
	reports.POST("/:id/external-assignment", middleware.RequireRoles(models.RoleTechnicalStaff), reportHandler.AssignExternal)
	reports.GET("/:id/messages", messageHandler.List)
	reports.POST("/:id/messages", messageHandler.Send)
	reports.GET("/:id/photos", photoHandler.Links)

	notifications := api.Group("/notifications", middleware.JWT(authSvc))
	notifications.GET("", notificationHandler.List)
	notifications.POST("/:id/read", notificationHandler.MarkRead)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
