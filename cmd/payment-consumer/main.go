package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/reseller-panel/internal/app/consumer"
	"github.com/magabrotheeeer/reseller-panel/internal/config"
	"github.com/magabrotheeeer/reseller-panel/internal/lib/logger"
	"github.com/magabrotheeeer/reseller-panel/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)
	log.Info("starting payment-consumer", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := consumer.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize consumer", sl.Err(err))
		os.Exit(1)
	}
	if err := app.Run(ctx); err != nil {
		log.Error("consumer stopped with error", sl.Err(err))
		os.Exit(1)
	}
	log.Info("payment-consumer shutting down gracefully")
}
