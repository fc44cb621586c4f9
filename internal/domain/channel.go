package domain

import "context"

// DeliveryChannel интерфейс канала доставки уведомлений.
type DeliveryChannel interface {
	// Channel возвращает канал, который обслуживает отправитель
	Channel() Channel
	// Send отправляет отрисованное уведомление получателю. Повторы внутри
	// канала не выполняются: дубль при redelivery от брокера допустим
	// семантикой at-least-once.
	Send(ctx context.Context, content RenderedContent, contact *ContactInfo, req *NotificationRequest) error
}
