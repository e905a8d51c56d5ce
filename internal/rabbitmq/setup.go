package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// Очередь событий платформы и ключи маршрутизации, которые в нее попадают.
const (
	EventsQueue = "storekit.events"

	KeyTransactionsUpdated = "transactions.updated"
	KeyRestoreCompleted    = "restore.completed"
)

// QueueConfig описывает очередь и ключи, которыми она привязана к exchange.
type QueueConfig struct {
	QueueName   string
	RoutingKeys []string
}

// EventQueues топология событий от платформы. Обе категории событий идут
// через одну очередь, чтобы сохранялся порядок платформы.
func EventQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: EventsQueue, RoutingKeys: []string{KeyTransactionsUpdated, KeyRestoreCompleted}},
	}
}

// SetupChannel открывает канал, объявляет direct exchange и привязывает к нему очереди.
// Prefetch равен 1: события обрабатываются строго по одному.
func SetupChannel(conn *amqp.Connection, exchange string, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return nil, fmt.Errorf("%s: failed to set QoS: %w", op, err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeDirect,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			q.QueueName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, q.QueueName, err)
		}

		for _, key := range q.RoutingKeys {
			if err := ch.QueueBind(q.QueueName, key, exchange, false, nil); err != nil {
				return nil, fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w", op, q.QueueName, key, err)
			}
		}
	}

	return ch, nil
}
