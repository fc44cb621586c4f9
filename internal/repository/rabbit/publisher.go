package rabbit

import (
	"context"
	"encoding/json"

	"github.com/wb-go/wbf/zlog"

	"NotifyDispatcher/internal/domain"
	"NotifyDispatcher/pkg/rabbitmq"
	"NotifyDispatcher/pkg/retry"
)

// Publisher публикует запросы на отправку уведомлений в exchange.
type Publisher struct {
	client      *rabbitmq.RabbitClient
	exchange    string
	contentType string
	strategy    retry.Strategy
}

// NewPublisher создает новый экземпляр Publisher.
func NewPublisher(client *rabbitmq.RabbitClient, exchange, contentType string, strategy retry.Strategy) *Publisher {
	return &Publisher{
		client:      client,
		exchange:    exchange,
		contentType: contentType,
		strategy:    strategy,
	}
}

// Publish сериализует запрос и публикует его с routing key очереди канала.
func (p *Publisher) Publish(ctx context.Context, req *domain.NotificationRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	routingKey := req.Channel.QueueName()
	err = retry.Do(func() error {
		return p.client.Publish(ctx, p.exchange, routingKey, p.contentType, body)
	}, p.strategy)
	if err != nil {
		zlog.Logger.Error().Err(err).
			Str("request_id", req.RequestID).
			Str("routing_key", routingKey).
			Msg("failed to publish notification")
		return err
	}

	zlog.Logger.Debug().
		Str("request_id", req.RequestID).
		Str("routing_key", routingKey).
		Msg("notification published")
	return nil
}
