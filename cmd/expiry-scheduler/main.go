package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/reseller-panel/internal/app/scheduler"
	"github.com/magabrotheeeer/reseller-panel/internal/config"
	"github.com/magabrotheeeer/reseller-panel/internal/lib/logger"
	"github.com/magabrotheeeer/reseller-panel/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)
	log.Info("starting expiry-scheduler", slog.String("env", cfg.Env), slog.String("spec", cfg.Scheduler.Spec))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := scheduler.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize scheduler", sl.Err(err))
		os.Exit(1)
	}
	if err := app.Run(ctx); err != nil {
		log.Error("scheduler stopped with error", sl.Err(err))
		os.Exit(1)
	}
	log.Info("expiry-scheduler shutting down gracefully")
}
