package events

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	amqp "github.com/rabbitmq/amqp091-go"
)

// FormatConnectionString builds an AMQP dial URL from individual connection
// parameters, escaping the credentials and vhost as needed
func FormatConnectionString(host string, port int, vhost, user, password string) string {
	credentials := url.UserPassword(user, password).String()
	return fmt.Sprintf("amqp://%s@%s:%d/%s", credentials, host, port, url.PathEscape(vhost))
}

// Producer publishes events to a durable queue over an established AMQP
// connection
type Producer struct {
	ch    *amqp.Channel
	queue string
}

// NewProducer opens a channel on the given connection and declares the target
// queue, so that events published before any consumer exists are retained
func NewProducer(conn *amqp.Connection, queue string) (*Producer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	return &Producer{ch: ch, queue: queue}, nil
}

// Send publishes a single event, JSON-encoded, as a persistent message
func (p *Producer) Send(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	return nil
}
