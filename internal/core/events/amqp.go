package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/frahmantamala/teacher-contracts/internal"
)

// ChannelPublisher is the part of *amqp.Channel the forwarder needs.
type ChannelPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPForwarder republishes bus events to a topic exchange, routed by event
// type.
type AMQPForwarder struct {
	channel  ChannelPublisher
	exchange string
	timeout  time.Duration
	logger   *slog.Logger
	closers  []func() error
}

func NewAMQPForwarder(channel ChannelPublisher, exchange string, timeout time.Duration, logger *slog.Logger) *AMQPForwarder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AMQPForwarder{
		channel:  channel,
		exchange: exchange,
		timeout:  timeout,
		logger:   logger,
	}
}

// DialAMQPForwarder connects to the broker and declares the exchange.
func DialAMQPForwarder(url, exchange string, timeout time.Duration, logger *slog.Logger) (*AMQPForwarder, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp exchange declare %s: %w", exchange, err)
	}

	f := NewAMQPForwarder(ch, exchange, timeout, logger)
	f.closers = []func() error{ch.Close, conn.Close}
	logger.Info("amqp forwarder connected", "exchange", exchange)
	return f, nil
}

// Attach forwards every event published on bus.
func (f *AMQPForwarder) Attach(bus *EventBus) {
	bus.Subscribe(AllEvents, f.Handle)
}

func (f *AMQPForwarder) Handle(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.EventID(), err)
	}

	headers := amqp.Table{}
	if actorID := internal.ActorIDFromContext(ctx); actorID != "" {
		headers["actor_id"] = actorID
		headers["actor_role"] = internal.ActorRoleFromContext(ctx)
	}

	ctx, cancel := internal.WithTimeout(ctx, f.timeout)
	defer cancel()

	err = f.channel.PublishWithContext(
		ctx,
		f.exchange,
		event.EventType(),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.EventID(),
			Timestamp:    event.OccurredAt(),
			Type:         event.EventType(),
			Headers:      headers,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("amqp publish %s: %w", event.EventType(), err)
	}

	f.logger.Debug("event forwarded", "event_type", event.EventType(), "event_id", event.EventID(), "exchange", f.exchange)
	return nil
}

func (f *AMQPForwarder) Close() error {
	var firstErr error
	for _, c := range f.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
