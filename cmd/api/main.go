package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lumeo-studio/workspace-api/config"
	apierrors "github.com/lumeo-studio/workspace-api/pkg/api/errors"
	"github.com/lumeo-studio/workspace-api/pkg/api/handlers"
	custommw "github.com/lumeo-studio/workspace-api/pkg/api/middleware"
	"github.com/lumeo-studio/workspace-api/pkg/auth"
	"github.com/lumeo-studio/workspace-api/pkg/backup"
	"github.com/lumeo-studio/workspace-api/pkg/cache"
	"github.com/lumeo-studio/workspace-api/pkg/email"
	"github.com/lumeo-studio/workspace-api/pkg/metrics"
	custommiddleware "github.com/lumeo-studio/workspace-api/pkg/middleware"
	"github.com/lumeo-studio/workspace-api/pkg/slack"
	"github.com/lumeo-studio/workspace-api/pkg/store"
)

func newAdapter(cfg *config.Config) (store.Adapter, error) {
	switch cfg.StoreDriver {
	case "postgres":
		return store.NewPostgresAdapter(cfg.DatabaseURL)
	case "redis":
		return store.NewRedisAdapter(cfg.RedisURL)
	case "memory":
		return store.NewMemoryAdapter(), nil
	default:
		return store.NewSQLiteAdapter(cfg.SQLitePath)
	}
}

func main() {
	// Load configuration
	cfg := config.Load()
	log.Printf("🔧 Configuration loaded (environment: %s)", cfg.APIEnvironment)

	apierrors.DebugErrors = cfg.DebugErrors

	// Initialize Sentry for error tracking
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			TracesSampleRate: 1.0,
			AttachStacktrace: true,
		})
		if err != nil {
			log.Printf("⚠️  Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s)", cfg.SentryEnvironment)
			defer sentry.Flush(2 * time.Second)
		}
	} else {
		log.Printf("ℹ️  Sentry disabled (no DSN configured)")
	}

	// Initialize the state store
	adapter, err := newAdapter(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to open state store (%s): %v", cfg.StoreDriver, err)
	}
	defer adapter.Close()
	log.Printf("✅ State store ready (driver: %s)", cfg.StoreDriver)

	// Initialize Prometheus metrics
	prometheusMetrics := metrics.New()
	log.Printf("✅ Prometheus metrics initialized")

	mutator := store.NewMutator(adapter)
	mutator.OnConflict = func() { prometheusMetrics.StateConflicts.Inc() }

	// Redis cache backs the token blacklist; without it logout is a no-op.
	var cacheClient *cache.Client
	if cfg.RedisURL != "" {
		cacheClient, err = cache.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("❌ Failed to connect to Redis: %v", err)
		}
		defer cacheClient.Close()
		log.Printf("✅ Redis cache connected")
	} else {
		log.Printf("ℹ️  Redis disabled; token revocation unavailable")
	}
	blacklist := auth.NewTokenBlacklist(cacheClient)

	// Notification services
	emailService := email.NewService(cfg.EmailFrom, cfg.EmailFromName, cfg.NotifyEmail, cfg.StudioName, cfg.SendGridAPIKey)
	slackService := slack.NewService(slack.NewWebhookClient(cfg.SlackWebhookURL))

	// Scheduled state snapshots
	var backupService *backup.Service
	if cfg.BackupEnabled {
		backupService, err = backup.NewService(adapter, backup.Config{
			AWSAccessKeyID:     cfg.AWSAccessKeyID,
			AWSSecretAccessKey: cfg.AWSSecretAccessKey,
			AWSRegion:          cfg.AWSRegion,
			S3Bucket:           cfg.BackupS3Bucket,
			LocalBackupDir:     cfg.BackupLocalDir,
			RetentionDays:      cfg.BackupRetentionDays,
		})
		if err != nil {
			log.Fatalf("❌ Failed to initialize snapshot service: %v", err)
		}
		if err := backupService.Schedule(cfg.BackupSchedule); err != nil {
			log.Fatalf("❌ Failed to schedule snapshots: %v", err)
		}
	}

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	// Rate limiters
	globalRateLimiter := custommiddleware.NewRateLimiter(cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	loginRateLimiter := custommiddleware.NewRateLimiter(5, 2)
	intakeRateLimiter := custommiddleware.NewRateLimiter(20, 5)

	// Global middleware
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Printf("[%s] %s - Status: %d", c.Request().Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	if cfg.SentryDSN != "" {
		e.Use(sentryecho.New(sentryecho.Options{
			Repanic: true,
		}))
	}

	e.Use(prometheusMetrics.Middleware())
	e.Use(middleware.CORSWithConfig(custommiddleware.CORSConfig()))
	e.Use(middleware.Gzip())
	e.Use(custommiddleware.SecurityHeaders(custommiddleware.SecurityHeadersConfig{}))
	e.Use(globalRateLimiter.RateLimitMiddleware())

	// Handlers
	tokenTTL := time.Duration(cfg.TokenTTLHours) * time.Hour
	authHandler := handlers.NewAuthHandler(mutator, cfg.AdminSecret, tokenTTL, blacklist, prometheusMetrics)
	leadHandler := handlers.NewLeadHandler(mutator, emailService, slackService, prometheusMetrics)
	statsHandler := handlers.NewStatsHandler(mutator)
	eventHandler := handlers.NewEventHandler(mutator, prometheusMetrics)
	userHandler := handlers.NewUserHandler(mutator)
	trainingHandler := handlers.NewTrainingHandler(mutator)
	planHandler := handlers.NewPlanHandler(mutator)
	exportHandler := handlers.NewExportHandler(mutator)

	// Public endpoints
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"name":        fmt.Sprintf("%s Workspace API", cfg.StudioName),
			"status":      "running",
			"environment": cfg.APIEnvironment,
			"timestamp":   time.Now().Unix(),
		})
	})

	e.GET("/health", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		if _, err := adapter.Load(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status": "unhealthy",
				"store":  "down",
			})
		}
		return c.JSON(http.StatusOK, map[string]any{
			"status": "healthy",
			"store":  "up",
		})
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Public API: lead intake from the marketing site, admin login.
	api := e.Group("/api", custommw.NoStore())
	api.POST("/leads", leadHandler.Submit, intakeRateLimiter.RateLimitMiddleware())
	api.POST("/admin/login", authHandler.Login, loginRateLimiter.RateLimitMiddleware())

	// Admin API: everything behind the bearer token.
	admin := api.Group("/admin", custommw.BearerAuth(custommw.AuthConfig{
		Secret:       cfg.AdminSecret,
		Mutator:      mutator,
		Blacklist:    blacklist,
		AuthDisabled: cfg.AuthDisabled,
	}))

	admin.GET("/me", authHandler.Me)
	admin.POST("/logout", authHandler.Logout)

	admin.GET("/stats", statsHandler.Get)

	admin.GET("/leads", leadHandler.List)
	admin.GET("/leads/:id", leadHandler.Get)
	admin.PATCH("/leads/:id", leadHandler.Patch)
	admin.DELETE("/leads/:id", leadHandler.Delete)
	admin.POST("/leads/:id/comments", leadHandler.AddComment)

	admin.GET("/events", eventHandler.List)

	admin.GET("/training", trainingHandler.Overview)
	admin.PATCH("/training/profiles/:userId", trainingHandler.PatchProfile)
	admin.POST("/training/reviews", trainingHandler.SubmitReview)
	admin.GET("/training/reviews", trainingHandler.ListReviews)
	admin.PATCH("/training/assignments/:userId", trainingHandler.PatchAssignment)

	admin.GET("/plans", planHandler.Get)
	admin.PATCH("/plans", planHandler.Patch)

	admin.GET("/users", userHandler.List)
	admin.POST("/users", userHandler.Create)
	admin.PATCH("/users/:id", userHandler.Update)
	admin.DELETE("/users/:id", userHandler.Delete)

	admin.GET("/export/leads", exportHandler.Leads)

	// Start server
	address := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	log.Printf("🚀 %s Workspace API starting on %s", cfg.StudioName, address)
	log.Printf("🛡️  Rate limiting: %d req/min (burst: %d); login 5/min; intake 20/min", cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	if cfg.AuthDisabled {
		log.Printf("⚠️  Auth disabled: every request acts as the owner")
	}

	// Graceful shutdown
	go func() {
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	if backupService != nil {
		backupService.Stop()
		log.Println("✅ Snapshot scheduler stopped")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server gracefully stopped")
}
