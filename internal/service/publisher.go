// Package service publishes activity events to RabbitMQ.  Publishing is
// best effort: failures are logged and counted, never surfaced to the user
// whose action triggered the event.
package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/movie-catalog/internal/logging"
	"github.com/iliyamo/movie-catalog/internal/metrics"
	"github.com/iliyamo/movie-catalog/internal/queue"
)

// EventPublisher is implemented by AMQPPublisher and NopPublisher.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ActivityEvent) error
}

// AMQPPublisher dials the broker per event.  Event volume is a handful per
// user action, so no connection is kept open between publishes.
type AMQPPublisher struct {
	URL     string
	Timeout time.Duration
}

func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{URL: url, Timeout: 5 * time.Second}
}

// Publish declares the durable activity queue and sends ev as a persistent
// JSON message through the default exchange.
func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.ActivityEvent) (err error) {
	log := logging.Ctx(ctx)
	defer func() {
		if err != nil {
			metrics.EventsPublished.WithLabelValues("error").Inc()
			log.Warn().Err(err).Str("event", ev.Type).Msg("rabbitmq: publish failed")
			return
		}
		metrics.EventsPublished.WithLabelValues("ok").Inc()
	}()

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	conn, err := amqp.DialConfig(p.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(p.Timeout),
	})
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		queue.ActivityQueue, // name
		true,                // durable
		false,               // autoDelete
		false,               // exclusive
		false,               // noWait
		nil,                 // args
	); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	return ch.PublishWithContext(ctx,
		"",                  // default exchange
		queue.ActivityQueue, // routing key = queue name
		false,               // mandatory
		false,               // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    ev.ID,
			Type:         ev.Type,
			Timestamp:    ev.OccurredAt,
			Body:         body,
		},
	)
}

// NopPublisher drops events.  It is used when EVENTS_ENABLED=false.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.ActivityEvent) error { return nil }

// Emit builds an event and publishes it in the background so the request
// is never delayed by the broker.  The request's logger is carried over.
func Emit(ctx context.Context, pub EventPublisher, typ string, userID uint64, payload any) {
	if pub == nil {
		return
	}
	ev, err := queue.NewActivityEvent(typ, userID, payload)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("event", typ).Msg("build activity event")
		return
	}
	bg := logging.WithLogger(context.Background(), *logging.Ctx(ctx))
	go func() { _ = pub.Publish(bg, ev) }()
}
