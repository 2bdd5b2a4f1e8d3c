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

	"quality-plans/internal/catalog"
	"quality-plans/internal/config"
	"quality-plans/internal/plan"
	"quality-plans/internal/service/plans"
	"quality-plans/internal/service/report"
	"quality-plans/internal/storage/sqlstore"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustConfig()

	log := setupLogger(cfg.Env, cfg.ErrorLogPath)

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		log.Error("failed to load catalog", slog.String("err", err.Error()))
		os.Exit(1)
	}

	routing, err := plan.ParseRouting(cfg.FieldRouting)
	if err != nil {
		log.Error("invalid field routing", slog.String("err", err.Error()))
		os.Exit(1)
	}

	storage, err := sqlstore.Open(cfg.Storage)
	if err != nil {
		log.Error("failed to open db", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer storage.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := storage.Migrate(ctx); err != nil {
		log.Error("failed to migrate db", slog.String("err", err.Error()))
		os.Exit(1)
	}

	editService := plans.NewEditService(storage, cat, plan.WithRouting(routing))
	checklistService := report.NewChecklistService(storage)

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      routes(*cfg, log, storage, editService, checklistService),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	log.Info("server started",
		slog.String("address", cfg.Address),
		slog.String("env", cfg.Env),
		slog.String("storage", cfg.Storage.Driver),
		slog.String("field_routing", routing.String()),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed start server", slog.String("err", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop server", slog.String("err", err.Error()))
	}

	log.Info("server stopped")
}
