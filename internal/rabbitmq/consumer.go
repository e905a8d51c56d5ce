package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/simple-iap/internal/lib/sl"
)

// Consumer часть amqp.Channel, нужная для чтения очереди.
type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// Handler обрабатывает одну доставку. Ошибка возвращает сообщение в очередь.
type Handler func(ctx context.Context, d amqp.Delivery) error

// ConsumeMessages читает очередь queueName до отмены ctx или закрытия канала доставок.
// Доставки обрабатываются последовательно, в порядке поступления.
func ConsumeMessages(ctx context.Context, ch Consumer, queueName string, handler Handler, log *slog.Logger) error {
	const op = "rabbitmq.ConsumeMessages"
	log = log.With(slog.String("op", op), slog.String("queue", queueName))

	deliveries, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for {
		select {
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("%s: %w", op, amqp.ErrClosed)
			}
			if err := handler(ctx, d); err != nil {
				log.Error("failed to handle message", slog.String("routing_key", d.RoutingKey), sl.Err(err))
				if nackErr := d.Nack(false, true); nackErr != nil {
					log.Error("failed to nack message", sl.Err(nackErr))
				}
				continue
			}
			if ackErr := d.Ack(false); ackErr != nil {
				log.Error("failed to ack message", sl.Err(ackErr))
			}
		case <-ctx.Done():
			return nil
		}
	}
}
