package domain

import "context"

// StatusTracker best-effort запись итогового статуса доставки. Ошибка записи
// логируется вызывающим и не влияет на решение ack/nack.
type StatusTracker interface {
	// Record пишет статус по ключу status:{request_id} с фиксированным TTL
	Record(ctx context.Context, requestID string, status Status, sendErr error) error
}

// StatusReader чтение статуса доставки для внешнего поллинга.
type StatusReader interface {
	// Get возвращает статус или ErrStatusNotFound
	Get(ctx context.Context, requestID string) (*DeliveryStatus, error)
}
