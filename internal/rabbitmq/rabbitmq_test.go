package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
}

func (p *fakePublisher) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	p.exchange, p.key, p.msg = exchange, key, msg
	return p.err
}

type fakeConsumer struct {
	deliveries chan amqp.Delivery
	err        error
}

func (c *fakeConsumer) Consume(string, string, bool, bool, bool, bool, amqp.Table) (<-chan amqp.Delivery, error) {
	return c.deliveries, c.err
}

// fakeAcker запоминает подтверждения по delivery tag
type fakeAcker struct {
	acks  chan uint64
	nacks chan uint64
}

func newFakeAcker() *fakeAcker {
	return &fakeAcker{acks: make(chan uint64, 10), nacks: make(chan uint64, 10)}
}

func (a *fakeAcker) Ack(tag uint64, _ bool) error {
	a.acks <- tag
	return nil
}

func (a *fakeAcker) Nack(tag uint64, _ bool, _ bool) error {
	a.nacks <- tag
	return nil
}

func (a *fakeAcker) Reject(tag uint64, _ bool) error {
	a.nacks <- tag
	return nil
}

func TestPublishMessage(t *testing.T) {
	t.Run("json body and reply options", func(t *testing.T) {
		pub := &fakePublisher{}
		msg := map[string]string{"product_id": "p1"}

		err := PublishMessage(pub, "storekit", "products.request", msg, WithReply("amq.gen-1", "corr-1"))
		require.NoError(t, err)

		assert.Equal(t, "storekit", pub.exchange)
		assert.Equal(t, "products.request", pub.key)
		assert.Equal(t, "application/json", pub.msg.ContentType)
		assert.Equal(t, amqp.Persistent, pub.msg.DeliveryMode)
		assert.Equal(t, "amq.gen-1", pub.msg.ReplyTo)
		assert.Equal(t, "corr-1", pub.msg.CorrelationId)
		assert.JSONEq(t, `{"product_id":"p1"}`, string(pub.msg.Body))
	})

	t.Run("marshal error", func(t *testing.T) {
		badMsg := struct {
			Ch chan int `json:"ch"`
		}{Ch: make(chan int)}

		err := PublishMessage(&fakePublisher{}, "", "q", badMsg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rabbitmq.PublishMessage")
	})

	t.Run("publish error", func(t *testing.T) {
		err := PublishMessage(&fakePublisher{err: amqp.ErrClosed}, "", "q", 1)
		assert.ErrorIs(t, err, amqp.ErrClosed)
	})
}

func TestConsumeMessages_AckAndNack(t *testing.T) {
	acker := newFakeAcker()
	deliveries := make(chan amqp.Delivery, 2)
	deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 1, Body: []byte(`{"ok":true}`)}
	deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 2, Body: []byte(`{"ok":false}`)}
	close(deliveries)

	handler := func(_ context.Context, d amqp.Delivery) error {
		var body struct {
			OK bool `json:"ok"`
		}
		if err := json.Unmarshal(d.Body, &body); err != nil {
			return err
		}
		if !body.OK {
			return errors.New("handler failed")
		}
		return nil
	}

	err := ConsumeMessages(context.Background(), &fakeConsumer{deliveries: deliveries}, "q", handler, newNoopLogger())
	assert.ErrorIs(t, err, amqp.ErrClosed)

	assert.Equal(t, uint64(1), <-acker.acks)
	assert.Equal(t, uint64(2), <-acker.nacks)
}

func TestConsumeMessages_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ConsumeMessages(ctx, &fakeConsumer{deliveries: make(chan amqp.Delivery)}, "q",
			func(context.Context, amqp.Delivery) error { return nil }, newNoopLogger())
	}()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestConsumeMessages_ConsumeError(t *testing.T) {
	err := ConsumeMessages(context.Background(), &fakeConsumer{err: amqp.ErrClosed}, "q",
		func(context.Context, amqp.Delivery) error { return nil }, newNoopLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rabbitmq.ConsumeMessages")
}

func TestEventQueues(t *testing.T) {
	queues := EventQueues()
	require.Len(t, queues, 1)
	assert.Equal(t, EventsQueue, queues[0].QueueName)
	assert.ElementsMatch(t, []string{KeyTransactionsUpdated, KeyRestoreCompleted}, queues[0].RoutingKeys)
}
