// Package consumer собирает процесс, который применяет платёжные события из очереди RabbitMQ.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/reseller-panel/internal/config"
	"github.com/magabrotheeeer/reseller-panel/internal/lib/apperr"
	"github.com/magabrotheeeer/reseller-panel/internal/lib/jwt"
	"github.com/magabrotheeeer/reseller-panel/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/reseller-panel/internal/lib/sl"
	"github.com/magabrotheeeer/reseller-panel/internal/metrics"
	"github.com/magabrotheeeer/reseller-panel/internal/models"
	"github.com/magabrotheeeer/reseller-panel/internal/services/account"
	"github.com/magabrotheeeer/reseller-panel/internal/storage"
	"github.com/magabrotheeeer/reseller-panel/internal/storage/repository"
)

// PaymentApplier применяет платёжное событие к аккаунту.
type PaymentApplier interface {
	ApplyPaymentEvent(ctx context.Context, ev models.PaymentEvent) error
}

// App представляет приложение потребителя платёжных событий.
type App struct {
	db      *repository.Storage
	conn    *amqp.Connection
	ch      *amqp.Channel
	queue   string
	workers int
	handler rabbitmq.Handler
	logger  *slog.Logger
}

// New подключает хранилище и брокер.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.PanelQueues())
	if err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}
	queue, _ := rabbitmq.QueueFor(rabbitmq.RoutingPayment)

	m := metrics.New(prometheus.DefaultRegisterer)
	// Токены этот процесс не выпускает.
	accounts := account.New(db, jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL), logger, m)

	return &App{
		db:      db,
		conn:    conn,
		ch:      ch,
		queue:   queue,
		workers: cfg.RabbitMQ.Workers,
		handler: PaymentHandler(accounts, logger),
		logger:  logger,
	}, nil
}

// PaymentHandler разбирает сообщение и применяет событие. Битый JSON,
// некорректное событие и неизвестный аккаунт отбрасываются без повторной доставки.
func PaymentHandler(applier PaymentApplier, logger *slog.Logger) rabbitmq.Handler {
	return func(ctx context.Context, body []byte) error {
		var ev models.PaymentEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("%w: malformed payment event: %v", rabbitmq.ErrDiscard, err)
		}
		err := applier.ApplyPaymentEvent(ctx, ev)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, apperr.ErrValidation), errors.Is(err, storage.ErrNotFound):
			return fmt.Errorf("%w: %w", rabbitmq.ErrDiscard, err)
		default:
			logger.Error("payment event will be retried", sl.Err(err))
			return err
		}
	}
}

// Run читает очередь до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	defer a.close()
	a.logger.Info("payment consumer started", slog.String("queue", a.queue), slog.Int("workers", a.workers))
	return rabbitmq.Consume(ctx, a.ch, a.queue, a.workers, a.logger, a.handler)
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
