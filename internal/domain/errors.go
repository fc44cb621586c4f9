package domain

import "errors"

// Ошибки уровня одного сообщения: перехватываются на границе консьюмера,
// превращаются в запись статуса и reject без requeue, процесс не роняют.
// Тексты ErrContactNotFound и ErrTemplateNotFound зафиксированы контрактом
// записи статуса, который читают внешние сервисы.
var (
	// ErrMalformedMessage тело сообщения из очереди не распарсилось.
	ErrMalformedMessage = errors.New("malformed message payload")
	// ErrContactNotFound сервис пользователей не отдал контакт.
	ErrContactNotFound = errors.New("Failed to get user contact info")
	// ErrTemplateNotFound сервис шаблонов не отдал шаблон.
	ErrTemplateNotFound = errors.New("Failed to get template")
	// ErrMissingRecipientAddress у получателя нет адреса для канала.
	ErrMissingRecipientAddress = errors.New("missing recipient address")
	// ErrGatewayNotConfigured push шлюз не был сконфигурирован при старте.
	ErrGatewayNotConfigured = errors.New("push gateway is not configured")
	// ErrDeliveryFailed транспорт или шлюз отклонил отправку.
	ErrDeliveryFailed = errors.New("delivery failed")
	// ErrUnknownChannel для канала сообщения нет зарегистрированного отправителя.
	ErrUnknownChannel = errors.New("unknown channel")
)

// ErrStatusNotFound статус по request_id не найден в хранилище.
var ErrStatusNotFound = errors.New("status not found")
