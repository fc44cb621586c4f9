package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// ClientConfig параметры подключения к RabbitMQ.
type ClientConfig struct {
	URL            string
	ConnectionName string
	ConnectTimeout time.Duration
	Heartbeat      time.Duration
}

// RabbitClient обертка над подключением и каналом amqp091.
// Канал amqp091 безопасен для конкурентных публикаций, поэтому клиент
// используется воркерами как разделяемый read-only ресурс.
type RabbitClient struct {
	conn *amqp091.Connection
	ch   *amqp091.Channel
}

// NewClient устанавливает подключение к брокеру и открывает канал.
func NewClient(cfg ClientConfig) (*RabbitClient, error) {
	props := amqp091.NewConnectionProperties()
	if cfg.ConnectionName != "" {
		props.SetClientConnectionName(cfg.ConnectionName)
	}

	conn, err := amqp091.DialConfig(cfg.URL, amqp091.Config{
		Heartbeat:  cfg.Heartbeat,
		Dial:       amqp091.DefaultDial(cfg.ConnectTimeout),
		Properties: props,
	})
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	return &RabbitClient{conn: conn, ch: ch}, nil
}

// DeclareExchange идемпотентно объявляет direct exchange.
func (c *RabbitClient) DeclareExchange(name string, durable bool) error {
	return c.ch.ExchangeDeclare(name, "direct", durable, false, false, false, nil)
}

// DeclareQueue объявляет очередь и привязывает ее к exchange.
func (c *RabbitClient) DeclareQueue(queue, exchange, routingKey string, durable bool, args amqp091.Table) error {
	if _, err := c.ch.QueueDeclare(queue, durable, false, false, false, args); err != nil {
		return err
	}
	return c.ch.QueueBind(queue, routingKey, exchange, false, nil)
}

// Consume начинает получение сообщений с ручным подтверждением.
// Канал доставки закрывается при потере подключения к брокеру.
func (c *RabbitClient) Consume(queue string, prefetchCount int) (<-chan amqp091.Delivery, error) {
	if prefetchCount <= 0 {
		prefetchCount = 1
	}
	if err := c.ch.Qos(prefetchCount, 0, false); err != nil {
		return nil, err
	}
	return c.ch.Consume(queue, "", false, false, false, false, nil)
}

// Publish публикует persistent сообщение в exchange.
func (c *RabbitClient) Publish(ctx context.Context, exchange, routingKey, contentType string, body []byte) error {
	return c.ch.PublishWithContext(ctx, exchange, routingKey, false, false, amqp091.Publishing{
		ContentType:  contentType,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
}

// Ping проверяет, что подключение живо.
func (c *RabbitClient) Ping() error {
	if c.conn == nil || c.conn.IsClosed() {
		return errors.New("rabbitmq connection is closed")
	}
	return nil
}

// Close закрывает канал и подключение.
func (c *RabbitClient) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
