package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/marchelxyz/GeoCheck-sub000/internal/config"
	"github.com/marchelxyz/GeoCheck-sub000/internal/database"
	"github.com/marchelxyz/GeoCheck-sub000/internal/handlers"
	"github.com/marchelxyz/GeoCheck-sub000/internal/middleware"
	"github.com/marchelxyz/GeoCheck-sub000/internal/services"
	"github.com/marchelxyz/GeoCheck-sub000/pkg/jwt"
	"github.com/marchelxyz/GeoCheck-sub000/pkg/notifier"
	"github.com/marchelxyz/GeoCheck-sub000/pkg/photostore"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting GeoCheck Scheduling Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Initialize repositories
	employeeRepo := database.NewEmployeeRepository(db)
	zoneRepo := database.NewZoneRepository(db)
	itemRepo := database.NewScheduleItemRepository(db)
	requestRepo := database.NewCheckInRequestRepository(db)
	resultRepo := database.NewCheckInResultRepository(db)

	// Initialize notifier gateway
	var pushNotifier notifier.Notifier
	if cfg.Notifier.Mode == "production" {
		logger.Info("Initializing push gateway in production mode...")
		pushNotifier = notifier.NewPushGateway(notifier.PushGatewayConfig{
			GatewayURL: cfg.Notifier.GatewayURL,
			APIKey:     cfg.Notifier.APIKey,
		})
	} else {
		logger.Info("Push gateway in development mode (notifications are recorded, not sent)")
		pushNotifier = notifier.NewMockGateway()
	}

	// Initialize photo storage
	photoStore, err := photostore.NewDiskStore(cfg.Photo.Dir)
	if err != nil {
		logger.Fatalf("Failed to initialize photo storage: %v", err)
	}

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)
	clock := services.NewLocalClock(cfg.CheckIn.TimezoneOffsetMinutes)

	checkInSvc := services.NewCheckInService(
		employeeRepo,
		requestRepo,
		resultRepo,
		zoneRepo,
		pushNotifier,
		logger,
		cfg.CheckIn.ReportDeadlineMinutes,
		cfg.Notifier.ActionBaseURL,
	)
	dailyScheduleSvc := services.NewDailyScheduleService(
		employeeRepo,
		itemRepo,
		clock,
		logger,
		cfg.CheckIn.MinCheckInGapMinutes,
		nil,
	)
	triggerSvc := services.NewTriggerService(
		employeeRepo,
		itemRepo,
		requestRepo,
		checkInSvc,
		clock,
		logger,
		nil,
	)
	sweeper := services.NewExpirySweeper(requestRepo, pushNotifier, logger, time.Minute)

	// Start background jobs
	cronService := services.NewCronService(
		dailyScheduleSvc,
		triggerSvc,
		clock,
		logger,
		cfg.CheckIn.DailyScheduleCronTime,
	)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}
	sweeper.Start()
	logger.Info("Background jobs started")

	// Initialize handlers
	checkInHandler := handlers.NewCheckInHandler(checkInSvc, requestRepo, photoStore, logger)
	employeeHandler := handlers.NewEmployeeHandler(employeeRepo, itemRepo, checkInSvc, clock, logger)
	zoneHandler := handlers.NewZoneHandler(zoneRepo, employeeRepo, logger)
	adminHandler := handlers.NewAdminHandler(cronService, sweeper)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	// CORS configuration
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Employee-facing check-in routes (JWT protected)
		checkins := v1.Group("/checkins")
		checkins.Use(middleware.AuthMiddleware(jwtService))
		{
			checkins.GET("/current", checkInHandler.GetCurrent)
			checkins.POST("/:id/location", checkInHandler.SubmitLocation)
			checkins.POST("/:id/photo", checkInHandler.SubmitPhoto)
			checkins.GET("/:id/result", checkInHandler.GetResult)
		}

		// Administrator routes (admin key protected)
		admin := v1.Group("/admin")
		admin.Use(middleware.AdminKeyMiddleware(cfg.Server.AdminKeyHash))
		{
			admin.POST("/employees", employeeHandler.Create)
			admin.GET("/employees", employeeHandler.List)
			admin.GET("/employees/:id", employeeHandler.Get)
			admin.PUT("/employees/:id/schedule", employeeHandler.UpdateSchedule)
			admin.POST("/employees/:id/checkins", employeeHandler.RequestCheckIn)
			admin.GET("/employees/:id/schedule-items", employeeHandler.GetScheduleItems)

			admin.POST("/zones", zoneHandler.Create)
			admin.GET("/zones", zoneHandler.List)
			admin.DELETE("/zones/:id", zoneHandler.Delete)
			admin.POST("/zones/:id/assignments", zoneHandler.Assign)
			admin.DELETE("/zones/:id/assignments", zoneHandler.Unassign)

			admin.GET("/jobs", adminHandler.GetJobStatus)
			admin.POST("/jobs/generate-schedules", adminHandler.RunDailyGeneration)
			admin.POST("/jobs/tick", adminHandler.RunTriggerTick)
			admin.POST("/jobs/sweep", adminHandler.RunExpirySweep)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	cronService.Stop()
	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		entry := logger.WithFields(fields)

		status := c.Writer.Status()
		switch {
		case len(c.Errors) > 0:
			entry.Error("Request failed with errors")
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
