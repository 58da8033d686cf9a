// Package rabbitmq содержит подключение к RabbitMQ, объявление топологии
// обменника панели, публикацию и потребление JSON-сообщений.
package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

// Exchange — direct-обменник событий панели.
const Exchange = "panel.events"

const (
	RoutingNearExpiry     = "near_expiry"
	RoutingReconciliation = "reconciliation"
	RoutingPayment        = "payment"
)

// QueueConfig описывает очередь и ключ маршрутизации, которым она привязана к Exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// PanelQueues возвращает очереди, которые объявляют процессы панели.
func PanelQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notification.near_expiry", RoutingKey: RoutingNearExpiry},
		{QueueName: "provisioning.reconciliation", RoutingKey: RoutingReconciliation},
		{QueueName: "payment.events", RoutingKey: RoutingPayment},
	}
}

// QueueFor возвращает имя очереди для ключа маршрутизации.
func QueueFor(routingKey string) (string, bool) {
	for _, q := range PanelQueues() {
		if q.RoutingKey == routingKey {
			return q.QueueName, true
		}
	}
	return "", false
}

// Connect подключается к брокеру, повторяя попытки с паузой delay.
func Connect(ctx context.Context, connection string, retries int, delay time.Duration) (*amqp.Connection, error) {
	const op = "rabbitmq.Connect"
	var conn *amqp.Connection
	var err error

	if retries < 1 {
		retries = 1
	}
	for range retries {
		conn, err = amqp.Dial(connection)
		if err == nil {
			return conn, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("%s: %w", op, err)
}

// SetupChannel открывает канал, объявляет Exchange и привязывает к нему очереди.
func SetupChannel(conn *amqp.Connection, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return nil, fmt.Errorf("%s: failed to set QoS: %w", op, err)
	}

	err = ch.ExchangeDeclare(Exchange, "direct", true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range queues {
		if _, err := ch.QueueDeclare(q.QueueName, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, q.QueueName, err)
		}
		if err := ch.QueueBind(q.QueueName, q.RoutingKey, Exchange, false, nil); err != nil {
			return nil, fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w", op, q.QueueName, q.RoutingKey, err)
		}
	}

	return ch, nil
}
