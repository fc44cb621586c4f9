package domain

import "context"

// Dispatcher конвейер обработки одного запроса на уведомление.
type Dispatcher interface {
	// Process проводит запрос через Resolve -> Render -> Send и фиксирует
	// итоговый статус. Ненулевая ошибка означает, что сообщение должно
	// уйти в dead-letter.
	Process(ctx context.Context, req *NotificationRequest) error
}
