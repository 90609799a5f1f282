// @title           PawPop Order Fulfillment API
// @version         1.0.0
// @description     Backend API for PawPop pet portraits. Turns paid Stripe checkouts into digital deliveries or Printify print orders, with an optional human review gate, order status tracking and admin operations.

// @contact.name   PawPop Support
// @contact.email  support@pawpop.art

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and an admin JWT.

package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"pawpop-backend/docs"
	"pawpop-backend/internal/cache"
	"pawpop-backend/internal/config"
	"pawpop-backend/internal/database"
	"pawpop-backend/internal/fal"
	"pawpop-backend/internal/handlers"
	"pawpop-backend/internal/jobs"
	"pawpop-backend/internal/metrics"
	"pawpop-backend/internal/middleware"
	"pawpop-backend/internal/payments"
	"pawpop-backend/internal/printify"
	"pawpop-backend/internal/queue"
	"pawpop-backend/internal/services"
	"pawpop-backend/internal/supabase"
)

const inlineTaskTimeout = 15 * time.Minute

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Update Swagger docs with dynamic base URL
	if cfg.BaseURL != "" {
		baseURL, err := url.Parse(cfg.BaseURL)
		if err == nil {
			docs.SwaggerInfo.Host = baseURL.Host
			if baseURL.Scheme == "https" {
				docs.SwaggerInfo.Schemes = []string{"https", "http"}
			} else {
				docs.SwaggerInfo.Schemes = []string{"http", "https"}
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	migrator, err := database.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize migrator: %v", err)
	}
	if err := migrator.Run(); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	migrator.Close()
	log.Println("Migrations completed successfully")

	dbClient, err := supabase.NewDatabaseClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database client: %v", err)
	}
	defer dbClient.Close()

	supabaseClient, err := supabase.NewClient(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Supabase client: %v", err)
	}

	storageClient, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey, cfg.SupabaseStorageBucket)
	if err != nil {
		log.Fatalf("Failed to initialize storage client: %v", err)
	}

	registry := metrics.New()
	notifier := supabase.NewOutboxNotifier(supabaseClient.Supabase, cfg.SupportEmail, logger)
	printifyClient := printify.NewClient(cfg.PrintifyAPIBaseURL, cfg.PrintifyAPIToken, cfg.PrintifyShopID)
	falClient := fal.NewClient(cfg.FalBaseURL, cfg.FalAPIKey)

	var sessions services.SessionSource
	if cfg.StripeSecretKey != "" {
		sessions = payments.NewSessionClient(cfg.StripeSecretKey, nil)
	} else {
		log.Println("Warning: STRIPE_SECRET_KEY not set. Orders without stored metadata cannot be recovered from Stripe.")
	}

	// Redis is optional. Without it the catalog is not cached and runs
	// for the same session are not serialised across processes.
	var (
		catalogCache services.CatalogCache
		locker       services.SessionLocker
	)
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Printf("Warning: Redis unavailable, continuing without cache and locks: %v", err)
		} else {
			defer rdb.Close()
			catalogCache = cache.NewCatalogCache(rdb, cfg.CatalogCacheTTL)
			locker = cache.NewSessionLocker(rdb)
			log.Printf("Connected to Redis at %s", cfg.RedisAddr)
		}
	}

	ledger := services.NewLedger(dbClient)
	reviewGate := services.NewReviewGate(dbClient, dbClient, ledger, notifier, config.HumanReviewEnabled, registry, logger)
	workflow := services.NewOrderWorkflow(services.WorkflowDeps{
		Store:    dbClient,
		Sessions: sessions,
		Upscale:  services.NewUpscaleStep(dbClient, falClient, cfg.UpscaleTimeout, logger),
		Review:   reviewGate,
		Builder:  services.NewFulfillmentBuilder(printifyClient, catalogCache, logger),
		Ledger:   ledger,
		Locker:   locker,
		Notifier: notifier,
		Metrics:  registry,
		Logger:   logger,
		LockTTL:  cfg.LockTTL,
	})

	taskHandler := queue.WorkflowHandler(workflow, services.ErrWorkflowBusy)

	var (
		wg    sync.WaitGroup
		tasks queue.Enqueuer
	)
	if len(cfg.KafkaBrokers) > 0 {
		producer := queue.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		tasks = producer

		consumer := queue.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, taskHandler, registry, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer consumer.Close()
			if err := consumer.Run(ctx); err != nil {
				logger.Error("task consumer stopped", "error", err)
			}
		}()
		log.Printf("Kafka task queue enabled on topic %s", cfg.KafkaTopic)
	} else {
		log.Println("KAFKA_BROKERS not set. Paid orders will be processed in-process.")
		tasks = queue.NewInlineRunner(taskHandler, inlineTaskTimeout, logger)
	}

	scheduler := jobs.NewScheduler(jobs.Config{
		RetryInterval:      cfg.RetrySweepInterval,
		RetryWorkers:       cfg.RetryWorkers,
		RetryMaxAttempts:   cfg.RetryMaxAttempts,
		RetryBaseBackoff:   cfg.RetryBaseBackoff,
		RetryMaxBackoff:    cfg.RetryMaxBackoff,
		RetryStallWindow:   cfg.RetryStallWindow,
		StaleAfter:         time.Duration(cfg.StaleOrderHours) * time.Hour,
		StaleInterval:      cfg.StaleCleanupInterval,
		EscalateAfter:      time.Duration(cfg.ReviewEscalationHours) * time.Hour,
		EscalationInterval: cfg.ReviewEscalationInterval,
	}, dbClient, workflow, reviewGate, registry, logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		scheduler.Run(ctx)
	}()

	router := handlers.NewRouter(handlers.Routes{
		Health:      handlers.NewHealthHandler(dbClient),
		Webhooks:    handlers.NewWebhookHandler(payments.NewWebhookVerifier(cfg.StripeWebhookSecret), cfg.PrintifyWebhookSecret, tasks, workflow, registry, logger),
		Orders:      handlers.NewOrderHandler(dbClient, printifyClient),
		AdminOrders: handlers.NewAdminOrderHandler(dbClient, workflow, workflow.Ledger(), logger),
		Reviews:     handlers.NewReviewHandler(reviewGate, storageClient, logger),
		AdminAuth:   middleware.AdminAuth(cfg.SupabaseJWTSecret),
		Metrics:     registry.Handler(),
		Swagger:     true,
	})

	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Warning: server shutdown: %v", err)
	}
	wg.Wait()
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	opts.Level = slog.LevelDebug
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
