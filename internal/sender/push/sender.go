package push_sender

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/wb-go/wbf/zlog"
	"google.golang.org/api/option"

	"NotifyDispatcher/internal/domain"
)

// gateway часть messaging.Client, которую использует отправитель.
type gateway interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMSender канал доставки push уведомлений через Firebase Cloud Messaging.
type FCMSender struct {
	client gateway
}

// NewFCMSender инициализирует FCM клиент из JSON сервисного аккаунта.
// Пустые credentials не роняют процесс: возвращается отправитель, который
// завершает каждую отправку ошибкой GatewayNotConfigured.
func NewFCMSender(ctx context.Context, credentialsJSON string) (*FCMSender, error) {
	if credentialsJSON == "" {
		zlog.Logger.Warn().Msg("FCM credentials are not configured, push notifications will not work")
		return &FCMSender{}, nil
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsJSON([]byte(credentialsJSON)))
	if err != nil {
		return nil, fmt.Errorf("failed to init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to init fcm client: %w", err)
	}

	zlog.Logger.Info().Msg("FCM client initialized")
	return &FCMSender{client: client}, nil
}

// Channel возвращает обслуживаемый канал.
func (s *FCMSender) Channel() domain.Channel {
	return domain.ChannelPush
}

// Send отправляет push уведомление на устройство получателя. Отказ шлюза
// (невалидный токен, кривой payload) заворачивается в DeliveryFailed с
// сохранением исходного текста.
func (s *FCMSender) Send(ctx context.Context, content domain.RenderedContent, contact *domain.ContactInfo, req *domain.NotificationRequest) error {
	if contact == nil || contact.DeviceToken == "" {
		return domain.ErrMissingRecipientAddress
	}
	if s.client == nil {
		return domain.ErrGatewayNotConfigured
	}

	msg := buildMessage(content, contact, req)

	id, err := s.client.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, err)
	}

	zlog.Logger.Debug().Str("request_id", req.RequestID).Str("message_id", id).Msg("push sent")
	return nil
}

// buildMessage собирает FCM сообщение: заголовок и тело из отрисованного
// шаблона, data это variables плюс request_id и click_action из link.
func buildMessage(content domain.RenderedContent, contact *domain.ContactInfo, req *domain.NotificationRequest) *messaging.Message {
	notification := &messaging.Notification{
		Title: content.Subject,
		Body:  content.Body,
	}
	if req.Image != "" {
		notification.ImageURL = req.Image
	}

	data := make(map[string]string, len(req.Variables)+2)
	for k, v := range req.Variables {
		data[k] = v
	}
	data["request_id"] = req.RequestID
	if req.Link != "" {
		data["click_action"] = req.Link
	}

	return &messaging.Message{
		Notification: notification,
		Data:         data,
		Token:        contact.DeviceToken,
	}
}
