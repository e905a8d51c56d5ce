// Package storekit реализует мост к подсистеме покупок платформы поверх RabbitMQ:
// команды каталога, очереди платежей и чека, а также чтение событий очереди транзакций.
package storekit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-playground/validator"
	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/simple-iap/internal/lib/sl"
	"github.com/magabrotheeeer/simple-iap/internal/models"
	"github.com/magabrotheeeer/simple-iap/internal/rabbitmq"
)

var (
	ErrNotStarted = errors.New("bridge is not started")
	ErrPlatform   = errors.New("platform error")
)

// Channel часть amqp.Channel, которой пользуется мост.
type Channel interface {
	rabbitmq.Publisher
	rabbitmq.Consumer
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
}

// Observer получает события очереди транзакций.
type Observer interface {
	HandleTransactions(ctx context.Context, txs []models.Transaction)
	HandleRestoreCompleted(ctx context.Context, err error)
}

// Bridge клиентская сторона подсистемы покупок.
type Bridge struct {
	ch               Channel
	exchange         string
	paymentsDisabled bool
	validate         *validator.Validate
	log              *slog.Logger

	mu         sync.Mutex
	replyQueue string
	calls      map[string]chan amqp.Delivery
}

// New создает мост. Перед запросами с ответом нужно вызвать Start.
func New(ch Channel, exchange string, paymentsDisabled bool, log *slog.Logger) *Bridge {
	return &Bridge{
		ch:               ch,
		exchange:         exchange,
		paymentsDisabled: paymentsDisabled,
		validate:         validator.New(),
		log:              log,
		calls:            make(map[string]chan amqp.Delivery),
	}
}

// Start объявляет эксклюзивную очередь ответов и читает ее до отмены ctx.
func (b *Bridge) Start(ctx context.Context) error {
	const op = "storekit.Start"

	q, err := b.ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	b.mu.Lock()
	b.replyQueue = q.Name
	b.mu.Unlock()

	go func() {
		if err := rabbitmq.ConsumeMessages(ctx, b.ch, q.Name, b.handleReply, b.log); err != nil {
			b.log.Error("reply consumer stopped", slog.String("op", op), sl.Err(err))
		}
	}()
	return nil
}

// Observe читает очередь событий платформы и передает их observer до отмены ctx.
func (b *Bridge) Observe(ctx context.Context, observer Observer) error {
	return rabbitmq.ConsumeMessages(ctx, b.ch, rabbitmq.EventsQueue, func(ctx context.Context, d amqp.Delivery) error {
		b.dispatch(ctx, observer, d)
		return nil
	}, b.log)
}

// RequestProducts запрашивает продукты каталога и ждет ответа платформы.
func (b *Bridge) RequestProducts(ctx context.Context, ids []string) ([]models.Product, error) {
	const op = "storekit.RequestProducts"

	d, err := b.call(ctx, KeyProductsRequest, productsRequest{ProductIDs: ids})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var reply productsReply
	if err := json.Unmarshal(d.Body, &reply); err != nil {
		return nil, fmt.Errorf("%s: decode reply: %w", op, err)
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("%s: %w: %s", op, ErrPlatform, reply.Error)
	}
	return reply.Products, nil
}

// CanMakePayments разрешены ли покупки. Настраивается конфигом.
func (b *Bridge) CanMakePayments() bool {
	return !b.paymentsDisabled
}

// AddPayment ставит платеж в очередь платформы.
func (b *Bridge) AddPayment(_ context.Context, product models.Product) error {
	const op = "storekit.AddPayment"
	if err := b.publish(KeyPaymentAdd, paymentRequest{ProductID: product.ID, Handle: product.Handle}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (b *Bridge) RestoreCompletedTransactions(_ context.Context) error {
	const op = "storekit.RestoreCompletedTransactions"
	if err := b.publish(KeyTransactionsRestore, restoreRequest{}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (b *Bridge) FinishTransaction(_ context.Context, tx models.Transaction) error {
	const op = "storekit.FinishTransaction"
	if err := b.publish(KeyTransactionFinish, finishRequest{TransactionID: tx.ID, ProductID: tx.ProductID}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RefreshReceipt просит платформу обновить чек и ждет завершения.
func (b *Bridge) RefreshReceipt(ctx context.Context) error {
	const op = "storekit.RefreshReceipt"

	d, err := b.call(ctx, KeyReceiptRefresh, refreshRequest{})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var reply statusReply
	if err := json.Unmarshal(d.Body, &reply); err != nil {
		return fmt.Errorf("%s: decode reply: %w", op, err)
	}
	if reply.Error != "" {
		return fmt.Errorf("%s: %w: %s", op, ErrPlatform, reply.Error)
	}
	return nil
}

func (b *Bridge) publish(key string, payload any, opts ...rabbitmq.PublishOption) error {
	return rabbitmq.PublishMessage(b.ch, b.exchange, key, payload, opts...)
}

// call публикует запрос и ждет ответа с тем же correlation id.
// Завершается ровно один раз: ответом или окончанием ctx.
func (b *Bridge) call(ctx context.Context, key string, payload any) (amqp.Delivery, error) {
	id := uuid.NewString()
	reply := make(chan amqp.Delivery, 1)

	b.mu.Lock()
	replyQueue := b.replyQueue
	if replyQueue == "" {
		b.mu.Unlock()
		return amqp.Delivery{}, ErrNotStarted
	}
	b.calls[id] = reply
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.calls, id)
		b.mu.Unlock()
	}()

	if err := b.publish(key, payload, rabbitmq.WithReply(replyQueue, id)); err != nil {
		return amqp.Delivery{}, err
	}

	select {
	case d := <-reply:
		return d, nil
	case <-ctx.Done():
		return amqp.Delivery{}, ctx.Err()
	}
}

func (b *Bridge) handleReply(_ context.Context, d amqp.Delivery) error {
	b.mu.Lock()
	reply, ok := b.calls[d.CorrelationId]
	b.mu.Unlock()

	if !ok {
		b.log.Warn("reply without waiting call", slog.String("correlation_id", d.CorrelationId))
		return nil
	}

	select {
	case reply <- d:
	default:
		b.log.Warn("duplicate reply dropped", slog.String("correlation_id", d.CorrelationId))
	}
	return nil
}

// dispatch разбирает событие платформы. Некорректные события пишутся в лог и
// подтверждаются, чтобы не возвращаться в очередь бесконечно.
func (b *Bridge) dispatch(ctx context.Context, observer Observer, d amqp.Delivery) {
	const op = "storekit.dispatch"
	log := b.log.With(slog.String("op", op), slog.String("routing_key", d.RoutingKey))

	switch d.RoutingKey {
	case rabbitmq.KeyTransactionsUpdated:
		var txs []models.Transaction
		if err := json.Unmarshal(d.Body, &txs); err != nil {
			log.Error("malformed transactions event", sl.Err(err))
			return
		}
		valid := txs[:0]
		for _, tx := range txs {
			if err := b.validate.Struct(tx); err != nil {
				log.Warn("invalid transaction skipped", slog.String("transaction_id", tx.ID), sl.Err(err))
				continue
			}
			valid = append(valid, tx)
		}
		observer.HandleTransactions(ctx, valid)
	case rabbitmq.KeyRestoreCompleted:
		var event statusReply
		if err := json.Unmarshal(d.Body, &event); err != nil {
			log.Error("malformed restore event", sl.Err(err))
			return
		}
		var restoreErr error
		if event.Error != "" {
			restoreErr = fmt.Errorf("%w: %s", ErrPlatform, event.Error)
		}
		observer.HandleRestoreCompleted(ctx, restoreErr)
	default:
		log.Warn("unknown event")
	}
}
