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

	"facility-booking-backend/config"
	"facility-booking-backend/internal/api"
	"facility-booking-backend/internal/db"
	"facility-booking-backend/internal/events"
	"facility-booking-backend/internal/slot"
	"facility-booking-backend/internal/store"
	"facility-booking-backend/internal/sweep"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "facility-backend ", log.LstdFlags)

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

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	// Change-event feed, when enabled.
	var publisher *events.Publisher
	var sender *events.KafkaSender
	if cfg.Stream.Enabled {
		sender = events.NewKafkaSender(cfg.Stream.Brokers, cfg.Stream.Topic)
		publisher = events.NewPublisher(sender, 256)
		publisher.Start(ctx)
		logger.Printf("change-event publisher started on topic %q", cfg.Stream.Topic)
	} else {
		logger.Println("change-event stream disabled")
	}

	// Run the completion sweep in the background.
	sweepSvc := sweep.NewService(cfg, appStore, publisher)
	go sweepSvc.Run(ctx)

	hours := slot.Hours{
		OpenMinute:  cfg.Hours.OpenMinute,
		CloseMinute: cfg.Hours.CustomCloseMinute,
	}
	slots := slot.Generate(cfg.Hours.OpenMinute, cfg.Hours.PresetCloseMinute, cfg.Hours.SlotStepMinutes)

	// Initialize router
	handler := api.NewHandler(appStore, publisher, hours, slots)
	router := api.NewRouter(handler, &cfg.Server)
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
	if sender != nil {
		if err := sender.Close(); err != nil {
			logger.Printf("error closing event sender: %v", err)
		}
	}

	logger.Println("Server gracefully stopped")
}
