package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/molkiya/spectra/internal/api"
	"github.com/molkiya/spectra/internal/config"
	"github.com/molkiya/spectra/internal/hub"
	"github.com/molkiya/spectra/internal/reasoning"
	"github.com/molkiya/spectra/internal/service"
	"github.com/molkiya/spectra/internal/storage"
	"github.com/molkiya/spectra/internal/telemetry"
	"github.com/molkiya/spectra/internal/timer"
	"github.com/molkiya/spectra/pkg/logger"
)

const serviceName = "spectra"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Level(cfg.LogLevel), cfg.LogFormat)
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("Server failed", logger.Err(err))
		log.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx := context.Background()

	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.OTel)
	if err != nil {
		log.Warn("Tracing disabled", logger.Err(err))
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("Failed to flush traces", logger.Err(err))
		}
	}()

	// Redis is optional: without it sessions live in process memory only
	var remote storage.Backend
	rdb, err := storage.Connect(ctx, cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, using in-memory storage", logger.F("addr", cfg.Redis.Addr), logger.Err(err))
	} else {
		redisStore := storage.NewRedisStore(rdb, cfg.SessionTTL)
		defer redisStore.Close()
		remote = redisStore
		log.Info("Connected to Redis", logger.F("addr", cfg.Redis.Addr))
	}
	store := storage.NewFallbackStore(remote, storage.NewMemoryStorage(), log)
	if !store.Remote() {
		log.Warn("Sessions will not survive a restart")
	}

	var reasoner reasoning.Client
	if cfg.MockMode {
		reasoner = reasoning.NewMockClient()
		log.Info("Using mock reasoning responses")
	} else {
		reasoner = reasoning.NewHTTPClient(cfg.Reasoning, log)
	}

	h := hub.New(log)
	timers := timer.New(store, log, time.Second)
	orch := service.NewOrchestrator(store, h, timers, reasoner, log, service.Options{
		GameDuration:    cfg.EffectiveGameDuration(),
		NextPromptDelay: cfg.NextPromptDelay,
		GreetingDelay:   cfg.GreetingDelay,
	})

	handler := api.NewHandler(orch, h, api.Options{
		MockMode:       cfg.MockMode,
		DemoMode:       cfg.DemoMode,
		AllowedOrigins: cfg.AllowedOrigins,
	}, log)

	router := chi.NewRouter()
	router.Use(api.RequestIDMiddleware)
	router.Use(middleware.RealIP)
	router.Use(api.LoggingMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Mount("/", handler.Routes())

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting",
			logger.F("addr", server.Addr),
			logger.Int("game_duration", cfg.EffectiveGameDuration()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", logger.Err(err))
	}
	timers.StopAll()
	orch.Close()

	stats := h.Stats()
	log.Info("Server exited",
		logger.Int("frames_delivered", int(stats.Delivered)),
		logger.Int("consumers_pruned", int(stats.Pruned)),
	)
	return nil
}
