package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go-asyncops/api"
	"go-asyncops/bus"
	"go-asyncops/config"
	"go-asyncops/logger"
	"go-asyncops/store"
	"go-asyncops/tasks"
	"go-asyncops/webhook"
)

func main() {
	logger.Init()
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var st store.Store
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("Failed to initialize Postgres store: %v", err)
		}
		defer pg.Close()
		st = pg
		logger.Info("Using Postgres store")
	} else {
		st = store.NewMemoryStore()
		logger.Info("Using in-memory store")
	}

	var eventBus bus.Bus
	if cfg.RedisAddr != "" {
		rb, err := bus.NewRedisBus(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Fatal("Failed to initialize Redis bus: %v", err)
		}
		defer rb.Close()
		eventBus = rb
		logger.Info("Using Redis event bus at %s", cfg.RedisAddr)
	} else {
		eventBus = bus.NewMemoryBus(cfg.BusBuffer)
	}

	registry := tasks.NewRegistry()
	scheduler := tasks.NewScheduler(registry, st, eventBus, cfg.OperationDelay)

	var wg sync.WaitGroup
	if cfg.WebhookURL != "" {
		webhook.New(eventBus, cfg.WebhookURL).Start(ctx, &wg)
		logger.Info("Webhook delivery worker started, sink %s", cfg.WebhookURL)
	} else {
		logger.Warn("WEBHOOK_URL not set, events will not be relayed")
	}

	server := api.NewServer(cfg.ServerAddr, st, scheduler, eventBus)

	go func() {
		logger.Info("Starting server on %s", cfg.ServerAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("Shutdown signal received")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	logger.Info("Delivery worker stopped")
}
