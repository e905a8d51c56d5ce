package rabbitmq

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
)

// Publisher часть amqp.Channel, нужная для публикации.
type Publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// PublishOption дополняет публикуемое сообщение.
type PublishOption func(*amqp.Publishing)

// WithReply задает очередь ответа и correlation id для запроса с ответом.
func WithReply(replyTo, correlationID string) PublishOption {
	return func(p *amqp.Publishing) {
		p.ReplyTo = replyTo
		p.CorrelationId = correlationID
	}
}

// PublishMessage сериализует message в JSON и публикует его в exchange.
func PublishMessage(ch Publisher, exchange string, routingKey string, message any, opts ...PublishOption) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
	}
	for _, opt := range opts {
		opt(&msg)
	}

	if err := ch.Publish(exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
