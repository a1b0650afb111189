package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/frahmantamala/teacher-contracts/internal"
)

// AMQPConsumer replays events read from a broker queue onto a local bus.
type AMQPConsumer struct {
	deliveries <-chan amqp.Delivery
	bus        *EventBus
	logger     *slog.Logger
	closers    []func() error
}

func NewAMQPConsumer(deliveries <-chan amqp.Delivery, bus *EventBus, logger *slog.Logger) *AMQPConsumer {
	return &AMQPConsumer{deliveries: deliveries, bus: bus, logger: logger}
}

// DialAMQPConsumer declares a durable queue bound to exchange for every
// routing key in keys and starts consuming it with manual acks.
func DialAMQPConsumer(url, exchange, queue string, keys []string, bus *EventBus, logger *slog.Logger) (*AMQPConsumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	fail := func(err error) (*AMQPConsumer, error) {
		_ = conn.Close()
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		return fail(fmt.Errorf("amqp channel: %w", err))
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fail(fmt.Errorf("amqp exchange declare %s: %w", exchange, err))
	}
	q, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		return fail(fmt.Errorf("amqp queue declare %s: %w", queue, err))
	}
	for _, key := range keys {
		if err := ch.QueueBind(q.Name, key, exchange, false, nil); err != nil {
			return fail(fmt.Errorf("amqp bind %s to %s: %w", key, q.Name, err))
		}
	}
	if err := ch.Qos(16, 0, false); err != nil {
		return fail(fmt.Errorf("amqp qos: %w", err))
	}

	deliveries, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return fail(fmt.Errorf("amqp consume %s: %w", q.Name, err))
	}

	c := NewAMQPConsumer(deliveries, bus, logger)
	c.closers = []func() error{ch.Close, conn.Close}
	logger.Info("amqp consumer connected", "exchange", exchange, "queue", q.Name, "keys", keys)
	return c, nil
}

// Run handles deliveries until ctx ends or the delivery channel closes.
// Messages that cannot be decoded are dropped; handler failures are
// requeued once.
func (c *AMQPConsumer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-c.deliveries:
			if !ok {
				return nil
			}
			c.handle(ctx, d)
		}
	}
}

func (c *AMQPConsumer) handle(ctx context.Context, d amqp.Delivery) {
	var event BaseEvent
	if err := json.Unmarshal(d.Body, &event); err != nil || event.Type == "" {
		c.logger.Warn("dropping undecodable delivery", "message_id", d.MessageId, "error", err)
		_ = d.Reject(false)
		return
	}

	if actorID, ok := d.Headers["actor_id"].(string); ok {
		role, _ := d.Headers["actor_role"].(string)
		ctx = internal.ContextWithActor(ctx, actorID, role)
	}

	if err := c.bus.PublishSync(ctx, event); err != nil {
		c.logger.Error("event handlers failed", "event_type", event.Type, "event_id", event.ID, "redelivered", d.Redelivered, "error", err)
		_ = d.Nack(false, !d.Redelivered)
		return
	}

	_ = d.Ack(false)
	c.logger.Debug("event consumed", "event_type", event.Type, "event_id", event.ID)
}

func (c *AMQPConsumer) Close() error {
	var firstErr error
	for _, closer := range c.closers {
		if err := closer(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
