package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/annolex/internal/api"
	"github.com/dgallion1/annolex/internal/config"
	"github.com/dgallion1/annolex/internal/engine"
	"github.com/dgallion1/annolex/internal/pipeline"
	"github.com/dgallion1/annolex/internal/recognize"
	"github.com/dgallion1/annolex/internal/store"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage.
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Error("open store", "error", err)
		os.Exit(1)
	}

	// Initialize engine and recognition pipeline.
	hub := api.NewHub(log)
	eng := engine.New(st, log, cfg.SessionTTL, hub)
	eng.StartCleanup(ctx, 5*time.Minute)

	recognizer := recognize.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	orch := pipeline.NewOrchestrator(cfg, recognizer, eng, st, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(eng, orch, st, hub, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		// Stop accepting requests before tearing down the pipeline;
		// in-flight handlers may still submit jobs.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		recognizer.Close()
		st.Close()
	}()

	log.Info("starting annolex", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
