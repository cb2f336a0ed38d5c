package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campusbook/appointment-api/api/swagger"
	"github.com/campusbook/appointment-api/internal/handler"
	"github.com/campusbook/appointment-api/internal/middleware"
	"github.com/campusbook/appointment-api/internal/models"
	"github.com/campusbook/appointment-api/internal/repository"
	"github.com/campusbook/appointment-api/internal/service"
	"github.com/campusbook/appointment-api/pkg/cache"
	"github.com/campusbook/appointment-api/pkg/config"
	"github.com/campusbook/appointment-api/pkg/database"
	"github.com/campusbook/appointment-api/pkg/logger"
	corsmiddleware "github.com/campusbook/appointment-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campusbook/appointment-api/pkg/middleware/requestid"
	"github.com/redis/go-redis/v9"
)

// @title CampusBook Appointment API
// @version 1.0.0
// @description Office-hours scheduling backend for professors and students
// @BasePath /
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
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	if cfg.Database.Migrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := database.Migrate(ctx, db, cfg.Database.MigrationsDir); err != nil {
			cancel()
			logr.Sugar().Fatalw("failed to run migrations", "error", err)
		}
		cancel()
		if version, err := database.MigrationVersion(context.Background(), db); err == nil {
			logr.Sugar().Infow("migrations applied", "version", version)
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			// The cache is an accelerator, not a dependency: run without it.
			logr.Sugar().Warnw("redis unavailable, running without cache", "error", err)
			redisClient = nil
		}
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close()

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	availabilitySvc := service.NewAvailabilityService(availabilityRepo, cacheRepo, validate, logr, cfg.Cache.AvailabilityTTL, metricsSvc)
	bookingSvc := service.NewBookingService(appointmentRepo, availabilityRepo, cacheRepo, validate, logr, metricsSvc)
	exportSvc := service.NewExportService(appointmentRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc)
	appointmentHandler := handler.NewAppointmentHandler(bookingSvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	availability := api.Group("/availability", middleware.JWT(authSvc))
	{
		availability.POST("", middleware.RequireRoles(models.RoleProfessor), availabilityHandler.Create)
		availability.GET("/professor/:professorId", availabilityHandler.ListByProfessor)
		availability.GET("/my-availability", middleware.RequireRoles(models.RoleProfessor), availabilityHandler.ListOwn)
		availability.DELETE("/:id", middleware.RequireRoles(models.RoleProfessor), availabilityHandler.Delete)
	}

	appointments := api.Group("/appointments", middleware.JWT(authSvc))
	{
		appointments.POST("/book", middleware.RequireRoles(models.RoleStudent), appointmentHandler.Book)
		appointments.PUT("/:id/cancel", middleware.RequireRoles(models.RoleProfessor), appointmentHandler.Cancel)
		appointments.GET("/my-appointments", middleware.RequireRoles(models.RoleStudent), appointmentHandler.ListMine)
		appointments.GET("/professor-appointments", middleware.RequireRoles(models.RoleProfessor), appointmentHandler.ListForProfessor)
		appointments.GET("/export", middleware.RequireRoles(models.RoleProfessor), appointmentHandler.Export)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
