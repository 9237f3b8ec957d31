package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

type RabbitClient struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	queue    string
	log      *zerolog.Logger
}

// NewRabbit connects and declares a durable direct exchange with the
// e-pass queue bound to it.
func NewRabbit(url, exchange, queue string, logger *zerolog.Logger) (*RabbitClient, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &RabbitClient{conn: conn, channel: ch, exchange: exchange, queue: queue, log: logger}

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		client.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		client.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(queue, RoutingKeyEpassIssued, exchange, false, nil); err != nil {
		client.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		client.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}

	logger.Info().Str("exchange", exchange).Str("queue", queue).Msg("rabbitmq initialized")
	return client, nil
}

func (c *RabbitClient) Close() {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.log.Info().Msg("rabbitmq connection closed")
}

func (c *RabbitClient) PublishEpassIssued(ctx context.Context, msg EpassMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = c.channel.PublishWithContext(ctx, c.exchange, RoutingKeyEpassIssued, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", RoutingKeyEpassIssued, err)
	}
	c.log.Debug().Str("registration_id", msg.RegistrationID).Msg("e-pass message published")
	return nil
}

func (c *RabbitClient) Consume(context.Context) (<-chan amqp.Delivery, error) {
	msgs, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", c.queue, err)
	}
	return msgs, nil
}
