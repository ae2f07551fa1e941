package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/studyquest/progress-engine/internal/config"
	"github.com/studyquest/progress-engine/internal/connectivity"
	"github.com/studyquest/progress-engine/internal/engine"
	"github.com/studyquest/progress-engine/internal/logger"
	"github.com/studyquest/progress-engine/internal/queue"
	"github.com/studyquest/progress-engine/internal/remote"
	"github.com/studyquest/progress-engine/internal/server"
	"github.com/studyquest/progress-engine/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Configuration failed", "error", err)
		os.Exit(1)
	}

	logger.Init(logger.NewConfig(cfg.LogLevel, cfg.LogFormat, "progress-engine", "1.0.0", cfg.Environment, false))

	if err := run(cfg); err != nil {
		slog.Error("Agent failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.NewBoltStore(cfg.StorePath)
	if err != nil {
		return err
	}
	defer st.Close()

	dlw, err := queue.NewDeadLetterWriter(cfg.DeadLetterPath)
	if err != nil {
		return err
	}

	api := remote.NewClient(cfg.APIBaseURL, cfg.APIKey, cfg.RequestTimeout)

	// Fail open: the queue absorbs anything sent before the first probe
	// result lands.
	monitor := connectivity.NewMonitor(true)

	eng, err := engine.New(ctx, cfg.UserID, api, st, monitor, dlw)
	if err != nil {
		return err
	}
	defer eng.Close()

	probeURL := cfg.ProbeURL
	if probeURL == "" {
		probeURL = cfg.APIBaseURL
	}
	prober := connectivity.NewProber(monitor, probeURL, cfg.ProbeInterval, 0)
	go prober.Run(ctx)

	// Initial state before any event arrives.
	if err := eng.Refresh(ctx); err != nil {
		slog.Warn("Initial refresh failed, starting from cached defaults", "error", err)
	}
	eng.SyncPending(ctx)

	srv := server.NewServer(cfg.DiagnosticsPort, eng, st)
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Stop(shutdownCtx)
}
