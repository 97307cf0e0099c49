package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sentra-batch-backend/config"
	"sentra-batch-backend/internal/api"
	"sentra-batch-backend/internal/db"
	"sentra-batch-backend/internal/event"
	"sentra-batch-backend/internal/notification"
	"sentra-batch-backend/internal/store"
	"sentra-batch-backend/internal/sweep"

	"github.com/SherClockHolmes/webpush-go"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "sentra-backend ", log.LstdFlags)

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	// Check for VAPID keys
	if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		logger.Fatalf("VAPID keys must be configured. Please generate them and add them to your config file.")
	}

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB, store.Options{
		SlotWidth:      cfg.Pricing.BatchSlot,
		PrepLead:       cfg.Pricing.PrepLead,
		ValidityWindow: cfg.Pricing.ValidityWindow,
	})
	logger.Println("data store initialized")

	// Seed or update the venue catalog
	if cfg.Catalog != "" {
		catalog, err := store.LoadCatalog(cfg.Catalog)
		if err != nil {
			logger.Fatalf("failed to load catalog from %s: %v", cfg.Catalog, err)
		}
		if err := appStore.UpsertCatalog(ctx, catalog); err != nil {
			logger.Fatalf("failed to upsert catalog: %v", err)
		}
		logger.Printf("catalog loaded from %s", cfg.Catalog)
	}

	// Start the push notification worker pool
	pool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, &webpushOptions)
	pool.RefundExpiredFee = cfg.Pricing.RefundExpiredFee
	pool.Start(ctx)

	// Domain events are optional; without a broker we run with a no-op
	// publisher so the rest of the pipeline stays unchanged.
	var events event.Publisher = event.Noop{}
	if cfg.Events.URL != "" {
		amqpPublisher, err := event.NewAMQPPublisher(cfg.Events.URL)
		if err != nil {
			logger.Fatalf("failed to connect to event broker: %v", err)
		}
		defer amqpPublisher.Close()
		events = amqpPublisher
		logger.Println("event publisher connected")
	}

	// Run the lifecycle sweep in the background
	sweepSvc := sweep.NewService(cfg, appStore, pool, events)
	go sweepSvc.Run(ctx)

	// Initialize router
	handler := api.NewHandler(appStore, cfg, &webpushOptions, pool, events)
	router := api.NewRouter(handler)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	// Create a deadline to wait for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
