package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/acadflow/approval-api/api/swagger"
	"github.com/acadflow/approval-api/internal/handler"
	"github.com/acadflow/approval-api/internal/mailer"
	"github.com/acadflow/approval-api/internal/middleware"
	"github.com/acadflow/approval-api/internal/models"
	"github.com/acadflow/approval-api/internal/repository"
	"github.com/acadflow/approval-api/internal/service"
	"github.com/acadflow/approval-api/pkg/cache"
	"github.com/acadflow/approval-api/pkg/config"
	"github.com/acadflow/approval-api/pkg/database"
	"github.com/acadflow/approval-api/pkg/export"
	"github.com/acadflow/approval-api/pkg/logger"
	corsmiddleware "github.com/acadflow/approval-api/pkg/middleware/cors"
	reqidmiddleware "github.com/acadflow/approval-api/pkg/middleware/requestid"
)

// @title Approval API
// @version 1.0.0
// @description Retest/improvement application approval workflow
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	// Repositories.
	profileRepo := repository.NewProfileRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	otpRepo := repository.NewOTPRepository(redisClient)

	// Services.
	metricsSvc := service.NewMetricsService()
	tokens := service.NewTokenManager(cfg.JWT)
	otpMailer := mailer.NewResendMailer(cfg.Mail.ResendAPIKey, cfg.Mail.FromAddress, logr)
	otpSvc := service.NewOTPService(otpRepo, profileRepo, otpMailer, tokens, auditRepo,
		cfg.OTP.TTL, cfg.OTP.ResendCooldown, cfg.Identity.StudentEmailDomain, logr)
	catalogSvc := service.NewCatalogService(courseRepo, auditRepo, logr)
	identitySvc := service.NewIdentityService(profileRepo, catalogSvc, auditRepo, cfg.Identity.StudentEmailDomain, logr)
	applicationSvc := service.NewApplicationService(applicationRepo, courseRepo, auditRepo, logr)
	approvalSvc := service.NewApprovalService(applicationRepo, auditRepo, logr)
	exportSvc := service.NewExportService(applicationRepo, export.NewCSVExporter(), export.NewPDFExporter(), auditRepo, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(otpSvc, metricsSvc)
	profileHandler := handler.NewProfileHandler(identitySvc)
	courseHandler := handler.NewCourseHandler(catalogSvc, identitySvc)
	applicationHandler := handler.NewApplicationHandler(applicationSvc, approvalSvc, identitySvc, metricsSvc)
	exportHandler := handler.NewExportHandler(exportSvc, identitySvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

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
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "postgres": err.Error()})
			return
		}
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/otp/send", authHandler.SendOTP)
			auth.POST("/otp/verify", authHandler.VerifyOTP)
		}

		authed := api.Group("")
		authed.Use(middleware.JWT(tokens))
		{
			authed.GET("/profile", profileHandler.Get)
			authed.PUT("/profile/setup", profileHandler.Setup)

			authed.GET("/courses", courseHandler.List)
			authed.POST("/courses", middleware.RequireRoles(models.RoleClassTeacher), courseHandler.Register)

			authed.POST("/applications", middleware.RequireRoles(models.RoleStudent), applicationHandler.Submit)
			authed.GET("/applications", applicationHandler.List)
			authed.GET("/applications/:id", applicationHandler.Get)
			authed.POST("/applications/:id/decision", middleware.RequireApprover(), applicationHandler.Decide)

			authed.GET("/exports/approved", middleware.RequireRoles(models.RoleCoe), exportHandler.Approved)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
