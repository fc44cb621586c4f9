package worker

import (
	"context"
	"encoding/json"

	"github.com/rabbitmq/amqp091-go"
	"github.com/wb-go/wbf/zlog"

	"NotifyDispatcher/internal/config"
	"NotifyDispatcher/internal/domain"
	"NotifyDispatcher/pkg/rabbitmq"
	"NotifyDispatcher/pkg/retry"
)

const unknownRequestID = "unknown"

// Consumer держит подписку на очередь канала и гонит сообщения через
// конвейер строго по одному.
type Consumer struct {
	dispatcher domain.Dispatcher
	tracker    domain.StatusTracker
	cfg        config.RabbitMQConfig
}

// NewConsumer создает новый экземпляр Consumer.
func NewConsumer(dispatcher domain.Dispatcher, tracker domain.StatusTracker, cfg config.RabbitMQConfig) *Consumer {
	return &Consumer{dispatcher: dispatcher, tracker: tracker, cfg: cfg}
}

// Start блокирует до отмены контекста: подключается к брокеру, объявляет
// топологию и обрабатывает сообщения. Потеря подключения лечится
// бесконечным reconnect с фиксированной задержкой, недоставленные на момент
// обрыва сообщения брокер отдаст заново (at-least-once).
func (c *Consumer) Start(ctx context.Context, channel domain.Channel) {
	queueName := channel.QueueName()
	for {
		client, deliveries, err := c.connect(ctx, channel)
		if err != nil {
			// единственный путь сюда это отмена контекста
			zlog.Logger.Info().Str("queue", queueName).Msg("consumer stopped")
			return
		}

		zlog.Logger.Info().Str("queue", queueName).Msg("consuming started")
		c.consumeLoop(ctx, deliveries)
		_ = client.Close()

		if ctx.Err() != nil {
			zlog.Logger.Info().Str("queue", queueName).Msg("consumer stopped")
			return
		}
		zlog.Logger.Warn().
			Str("queue", queueName).
			Dur("delay", c.cfg.ReconnectDelay).
			Msg("broker connection lost, reconnecting")
	}
}

// connect подключается к брокеру с бесконечными повторами раз в
// ReconnectDelay: брокер обязан рано или поздно вернуться.
func (c *Consumer) connect(ctx context.Context, channel domain.Channel) (*rabbitmq.RabbitClient, <-chan amqp091.Delivery, error) {
	var (
		client     *rabbitmq.RabbitClient
		deliveries <-chan amqp091.Delivery
	)

	strategy := retry.Strategy{Attempts: 0, Delay: c.cfg.ReconnectDelay, Backoff: 1}
	err := retry.DoWithContext(ctx, func() error {
		var err error
		client, deliveries, err = c.setup(channel)
		if err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to connect to rabbitmq, will retry")
		}
		return err
	}, strategy)
	if err != nil {
		return nil, nil, err
	}
	return client, deliveries, nil
}

// setup открывает подключение и объявляет топологию: exchange
// notifications.direct, очередь канала с dead-letter аргументами, а также
// сам dead-letter exchange с очередью failed.queue, чтобы отклоненные
// сообщения сохранялись для разбора.
func (c *Consumer) setup(channel domain.Channel) (*rabbitmq.RabbitClient, <-chan amqp091.Delivery, error) {
	client, err := rabbitmq.NewClient(rabbitmq.ClientConfig{
		URL:            c.cfg.URL,
		ConnectionName: c.cfg.ConnectionName + "-" + channel.String(),
		ConnectTimeout: c.cfg.ConnectTimeout,
		Heartbeat:      c.cfg.Heartbeat,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := c.declareTopology(client, channel.QueueName()); err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	deliveries, err := client.Consume(channel.QueueName(), c.cfg.PrefetchCount)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return client, deliveries, nil
}

func (c *Consumer) declareTopology(client *rabbitmq.RabbitClient, queueName string) error {
	if err := client.DeclareExchange(c.cfg.ExchangeName, false); err != nil {
		return err
	}
	if err := client.DeclareExchange(c.cfg.DLXName, true); err != nil {
		return err
	}
	if err := client.DeclareQueue(c.cfg.DLQName, c.cfg.DLXName, c.cfg.DLXRoutingKey, true, nil); err != nil {
		return err
	}

	queueArgs := amqp091.Table{
		"x-dead-letter-exchange":    c.cfg.DLXName,
		"x-dead-letter-routing-key": c.cfg.DLXRoutingKey,
	}
	return client.DeclareQueue(queueName, c.cfg.ExchangeName, queueName, true, queueArgs)
}

// consumeLoop обрабатывает сообщения до закрытия канала доставки или
// отмены контекста.
func (c *Consumer) consumeLoop(ctx context.Context, deliveries <-chan amqp091.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-deliveries:
			if !ok {
				return
			}
			c.Handle(ctx, msg)
		}
	}
}

// Handle разбирает сообщение, прогоняет его через конвейер и принимает
// решение ack/nack. Requeue не используется никогда, чтобы отравленное
// сообщение не зациклилось: отказ уходит в dead-letter exchange.
func (c *Consumer) Handle(ctx context.Context, msg amqp091.Delivery) {
	req := &domain.NotificationRequest{}
	if err := json.Unmarshal(msg.Body, req); err != nil {
		requestID := extractRequestID(msg.Body)
		zlog.Logger.Error().Err(err).Str("request_id", requestID).Msg("failed to unmarshal message")
		c.recordFailure(ctx, requestID, domain.ErrMalformedMessage)
		c.reject(msg)
		return
	}
	if req.RequestID == "" {
		req.RequestID = unknownRequestID
	}

	if err := c.dispatcher.Process(ctx, req); err != nil {
		c.reject(msg)
		return
	}

	if err := msg.Ack(false); err != nil {
		zlog.Logger.Error().Err(err).Str("request_id", req.RequestID).Msg("failed to ack message")
	}
}

// recordFailure best-effort запись статуса для сообщения, которое не дошло
// до конвейера.
func (c *Consumer) recordFailure(ctx context.Context, requestID string, cause error) {
	if err := c.tracker.Record(ctx, requestID, domain.StatusFailed, cause); err != nil {
		zlog.Logger.Error().Err(err).Str("request_id", requestID).Msg("failed to write delivery status")
	}
}

func (c *Consumer) reject(msg amqp091.Delivery) {
	if err := msg.Nack(false, false); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to nack message")
	}
}

// extractRequestID пытается достать request_id из сырого payload, чтобы
// запись статуса получила осмысленный ключ даже для битого сообщения.
func extractRequestID(body []byte) string {
	probe := struct {
		RequestID string `json:"request_id"`
	}{}
	if err := json.Unmarshal(body, &probe); err != nil || probe.RequestID == "" {
		return unknownRequestID
	}
	return probe.RequestID
}
