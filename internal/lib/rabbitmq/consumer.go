package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/reseller-panel/internal/lib/sl"
)

// Handler обрабатывает тело сообщения. Ошибка приводит к повторной доставке,
// если сообщение не помечено как невосстановимое через ErrDiscard.
type Handler func(ctx context.Context, body []byte) error

// ErrDiscard заставляет потребителя отклонить сообщение без повторной доставки.
var ErrDiscard = errors.New("discard message")

// Consume читает очередь до отмены ctx, обрабатывая не более workers сообщений одновременно.
// Возвращается после закрытия канала доставки или отмены ctx.
func Consume(ctx context.Context, ch *amqp.Channel, queueName string, workers int, log *slog.Logger, handler Handler) error {
	const op = "rabbitmq.Consume"
	delivery, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if workers < 1 {
		workers = 1
	}

	sem := make(chan struct{}, workers)
	for {
		select {
		case d, ok := <-delivery:
			if !ok {
				return nil
			}
			sem <- struct{}{}
			go func(d amqp.Delivery) {
				defer func() { <-sem }()
				settle(ctx, d, log, handler)
			}(d)
		case <-ctx.Done():
			return nil
		}
	}
}

func settle(ctx context.Context, d amqp.Delivery, log *slog.Logger, handler Handler) {
	err := handler(ctx, d.Body)
	switch {
	case err == nil:
		if ackErr := d.Ack(false); ackErr != nil {
			log.Error("failed to ack message", sl.Err(ackErr))
		}
	case errors.Is(err, ErrDiscard):
		log.Warn("discarding message", sl.Err(err))
		if nackErr := d.Nack(false, false); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
	default:
		log.Error("failed to handle message, requeue", sl.Err(err))
		if nackErr := d.Nack(false, true); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
	}
}
