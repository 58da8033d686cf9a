// Package events публикует доменные события панели в RabbitMQ.
package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/reseller-panel/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/reseller-panel/internal/lib/sl"
	"github.com/magabrotheeeer/reseller-panel/internal/models"
)

// Publisher публикует события сверки и уведомления об окончании подписки.
type Publisher struct {
	ch  rabbitmq.Channel
	log *slog.Logger
}

// NewPublisher создаёт издателя поверх открытого канала.
func NewPublisher(ch rabbitmq.Channel, log *slog.Logger) *Publisher {
	return &Publisher{ch: ch, log: log}
}

// PublishReconciliation отправляет событие о возможном расхождении с удалённым сервером.
func (p *Publisher) PublishReconciliation(ctx context.Context, ev models.ReconciliationEvent) error {
	return p.publish(ctx, rabbitmq.RoutingReconciliation, ev)
}

// PublishExpiryNotice отправляет уведомление о скором окончании подписки.
func (p *Publisher) PublishExpiryNotice(ctx context.Context, n models.ExpiryNotice) error {
	return p.publish(ctx, rabbitmq.RoutingNearExpiry, n)
}

// PublishPayment отправляет платёжное событие в очередь потребителя.
func (p *Publisher) PublishPayment(ctx context.Context, ev models.PaymentEvent) error {
	return p.publish(ctx, rabbitmq.RoutingPayment, ev)
}

func (p *Publisher) publish(ctx context.Context, routingKey string, msg any) error {
	const op = "events.publish"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if err := rabbitmq.PublishMessage(p.ch, rabbitmq.Exchange, routingKey, msg); err != nil {
		p.log.Error("failed to publish event", slog.String("routing_key", routingKey), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	p.log.Debug("event published", slog.String("routing_key", routingKey))
	return nil
}

// LogPublisher пишет события только в лог. Используется, когда брокер не настроен.
type LogPublisher struct {
	log *slog.Logger
}

// NewLogPublisher создаёт LogPublisher.
func NewLogPublisher(log *slog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

// PublishReconciliation логирует событие сверки.
func (p *LogPublisher) PublishReconciliation(_ context.Context, ev models.ReconciliationEvent) error {
	p.log.Warn("reconciliation required",
		slog.String("operation", ev.Operation),
		slog.Int64("server_id", ev.ServerID),
		slog.Int64("client_id", ev.ClientID),
		slog.String("username", ev.Username),
		slog.String("reason", ev.Reason),
	)
	return nil
}

// PublishExpiryNotice логирует уведомление.
func (p *LogPublisher) PublishExpiryNotice(_ context.Context, n models.ExpiryNotice) error {
	p.log.Info("client near expiry",
		slog.Int64("client_id", n.ClientID),
		slog.String("owner_id", n.OwnerID),
		slog.String("expiration_date", n.ExpirationDate.Format(models.DateLayout)),
	)
	return nil
}

// PublishPayment логирует платёжное событие.
func (p *LogPublisher) PublishPayment(_ context.Context, ev models.PaymentEvent) error {
	p.log.Info("payment event", slog.String("account_id", ev.AccountID), slog.String("status", string(ev.Status)))
	return nil
}
