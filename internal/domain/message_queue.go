package domain

import "context"

// MessageQueuePublisher интерфейс для публикации запросов в очередь.
type MessageQueuePublisher interface {
	// Publish публикует запрос с routing key очереди его канала
	Publish(ctx context.Context, req *NotificationRequest) error
}
