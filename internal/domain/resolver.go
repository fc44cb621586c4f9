package domain

import "context"

// Resolver интерфейс получения данных из внешних сервисов пользователей и
// шаблонов. Оба запроса независимы и могут выполняться параллельно.
type Resolver interface {
	// FetchContact получает контактные данные получателя
	FetchContact(ctx context.Context, userID string) (*ContactInfo, error)
	// FetchTemplate получает содержимое шаблона
	FetchTemplate(ctx context.Context, templateCode string) (*TemplateContent, error)
}
