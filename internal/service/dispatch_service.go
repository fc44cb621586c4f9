package service

import (
	"context"
	"sync"

	"github.com/wb-go/wbf/zlog"

	"NotifyDispatcher/internal/domain"
	"NotifyDispatcher/internal/render"
)

// DispatchService проводит запрос через конвейер
// Resolving -> Rendering -> Sending -> Record. Ошибка любого шага терминальна
// для сообщения, автоматических повторов внутри одной доставки нет.
type DispatchService struct {
	resolver domain.Resolver
	tracker  domain.StatusTracker
	channels map[domain.Channel]domain.DeliveryChannel
}

// NewDispatchService создает сервис с зарегистрированными каналами доставки.
func NewDispatchService(resolver domain.Resolver, tracker domain.StatusTracker,
	channels ...domain.DeliveryChannel) *DispatchService {
	m := make(map[domain.Channel]domain.DeliveryChannel, len(channels))
	for _, ch := range channels {
		m[ch.Channel()] = ch
	}
	return &DispatchService{resolver: resolver, tracker: tracker, channels: m}
}

// Process обрабатывает один запрос и фиксирует ровно одну запись статуса:
// delivered при успехе, failed с текстом ошибки при любом сбое.
func (s *DispatchService) Process(ctx context.Context, req *domain.NotificationRequest) error {
	op := "Process:"
	if err := s.deliver(ctx, req); err != nil {
		zlog.Logger.Error().Err(err).
			Str("request_id", req.RequestID).
			Str("channel", req.Channel.String()).
			Msgf("%s delivery failed", op)
		s.record(ctx, req.RequestID, domain.StatusFailed, err)
		return err
	}

	zlog.Logger.Info().
		Str("request_id", req.RequestID).
		Str("channel", req.Channel.String()).
		Msgf("%s notification delivered", op)
	s.record(ctx, req.RequestID, domain.StatusDelivered, nil)
	return nil
}

func (s *DispatchService) deliver(ctx context.Context, req *domain.NotificationRequest) error {
	channel, ok := s.channels[req.Channel]
	if !ok {
		return domain.ErrUnknownChannel
	}

	contact, tmpl, err := s.resolve(ctx, req)
	if err != nil {
		return err
	}
	s.checkPreferences(req, contact)

	content := render.Render(tmpl, req.Variables)

	return channel.Send(ctx, content, contact, req)
}

// resolve запрашивает контакт и шаблон параллельно; запросы независимы,
// но ошибка любого из них прерывает обработку сообщения.
func (s *DispatchService) resolve(ctx context.Context, req *domain.NotificationRequest) (*domain.ContactInfo, *domain.TemplateContent, error) {
	var (
		wg         sync.WaitGroup
		contact    *domain.ContactInfo
		tmpl       *domain.TemplateContent
		contactErr error
		tmplErr    error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		contact, contactErr = s.resolver.FetchContact(ctx, req.UserID)
	}()
	go func() {
		defer wg.Done()
		tmpl, tmplErr = s.resolver.FetchTemplate(ctx, req.TemplateCode)
	}()
	wg.Wait()

	if contactErr != nil {
		return nil, nil, contactErr
	}
	if tmplErr != nil {
		return nil, nil, tmplErr
	}
	return contact, tmpl, nil
}

// checkPreferences логирует отключенный у пользователя канал; отправка при
// этом выполняется, как и раньше.
func (s *DispatchService) checkPreferences(req *domain.NotificationRequest, contact *domain.ContactInfo) {
	var disabled bool
	switch req.Channel {
	case domain.ChannelEmail:
		disabled = !contact.Preferences.Email
	case domain.ChannelPush:
		disabled = !contact.Preferences.Push
	}
	if disabled {
		zlog.Logger.Warn().
			Str("request_id", req.RequestID).
			Str("user_id", req.UserID).
			Str("channel", req.Channel.String()).
			Msg("channel disabled in user preferences, sending anyway")
	}
}

// record best-effort запись статуса: сбой хранилища логируется и не меняет
// решение ack/nack.
func (s *DispatchService) record(ctx context.Context, requestID string, st domain.Status, sendErr error) {
	if err := s.tracker.Record(ctx, requestID, st, sendErr); err != nil {
		zlog.Logger.Error().Err(err).Str("request_id", requestID).Msg("failed to write delivery status")
	}
}
