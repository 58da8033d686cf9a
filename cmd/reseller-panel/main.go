// Package main Reseller Panel API
//
// @title           Reseller Panel API
// @version         1.0
// @description     API панели реселлера: аккаунты, кредиты, тарифы, серверы и клиенты

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/reseller-panel/internal/app/panel"
	"github.com/magabrotheeeer/reseller-panel/internal/config"
	"github.com/magabrotheeeer/reseller-panel/internal/lib/logger"
	"github.com/magabrotheeeer/reseller-panel/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)

	log.Info("starting reseller-panel", slog.String("env", cfg.Env))
	log.Debug("config loaded", slog.String("config", cfg.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := panel.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	log.Info("reseller-panel stopped gracefully")
}
