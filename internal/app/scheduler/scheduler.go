// Package scheduler собирает процесс планировщика уведомлений об окончании подписок.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/reseller-panel/internal/config"
	"github.com/magabrotheeeer/reseller-panel/internal/events"
	"github.com/magabrotheeeer/reseller-panel/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/reseller-panel/internal/lib/sl"
	"github.com/magabrotheeeer/reseller-panel/internal/metrics"
	schedulerservice "github.com/magabrotheeeer/reseller-panel/internal/services/scheduler"
	"github.com/magabrotheeeer/reseller-panel/internal/storage/repository"
)

// App представляет приложение планировщика.
type App struct {
	schedulerService *schedulerservice.Service
	db               *repository.Storage
	conn             *amqp.Connection
	ch               *amqp.Channel
	spec             string
	logger           *slog.Logger
}

func waitForDB(ctx context.Context, db *repository.Storage) error {
	for range 10 {
		if err := db.CheckDatabaseReady(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(3 * time.Second):
		}
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.PanelQueues())
	if err != nil {
		closeResources(nil, conn, nil, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		closeResources(ch, conn, nil, logger)
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}

	if err := waitForDB(ctx, db); err != nil {
		closeResources(ch, conn, db, logger)
		return nil, err
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	service := schedulerservice.NewService(db, events.NewPublisher(ch, logger), logger, m)

	return &App{
		schedulerService: service,
		db:               db,
		conn:             conn,
		ch:               ch,
		spec:             cfg.Scheduler.Spec,
		logger:           logger,
	}, nil
}

// Run выполняет одну проверку сразу и затем работает по расписанию до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	defer closeResources(a.ch, a.conn, a.db, a.logger)

	if _, err := a.schedulerService.NotifyNearExpiry(ctx); err != nil {
		a.logger.Error("initial near-expiry scan failed", sl.Err(err))
	}
	return a.schedulerService.Run(ctx, a.spec)
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, db *repository.Storage, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if db != nil {
		if err := db.Close(); err != nil {
			logger.Error("failed to close storage", sl.Err(err))
		}
	}
}
