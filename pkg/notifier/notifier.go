// Package notifier publishes realtime UI events to an AMQP fanout exchange.
// Delivery is strictly best-effort: every failure is logged and swallowed so
// a dead broker can never affect a send path.
package notifier

import (
	"encoding/json"
	"time"

	"github.com/streadway/amqp"

	"github.com/leadpulse-id/outreach-service/environments"
	"github.com/leadpulse-id/outreach-service/pkg/logger"
)

type Notifier struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

type Event struct {
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload"`
	Timestamp string         `json:"timestamp"`
}

// New connects to the broker and declares the fanout exchange. Returns an
// error when the broker is unreachable; callers run with a nil notifier then.
func New(cfg environments.BrokerConfig) (*Notifier, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := channel.ExchangeDeclare(
		cfg.Exchange,
		"fanout",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	logger.Infof("Connected to AMQP broker, exchange %q", cfg.Exchange)

	return &Notifier{
		conn:     conn,
		channel:  channel,
		exchange: cfg.Exchange,
	}, nil
}

// Publish emits one event. Safe on a nil receiver.
func (n *Notifier) Publish(eventType string, payload map[string]any) {
	if n == nil {
		return
	}

	event := Event{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().Format(time.RFC3339),
	}

	body, err := json.Marshal(event)
	if err != nil {
		logger.Warnf("Failed to marshal %s event: %v", eventType, err)
		return
	}

	err = n.channel.Publish(
		n.exchange,
		"", // fanout ignores routing keys
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		logger.Warnf("Failed to publish %s event: %v", eventType, err)
	}
}

func (n *Notifier) Close() error {
	if n == nil {
		return nil
	}
	if err := n.channel.Close(); err != nil {
		logger.Warnf("Failed to close AMQP channel: %v", err)
	}
	return n.conn.Close()
}
