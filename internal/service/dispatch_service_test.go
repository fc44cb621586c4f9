package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"NotifyDispatcher/internal/domain"
	"NotifyDispatcher/internal/service"
)

// MockResolver мок для Resolver
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) FetchContact(ctx context.Context, userID string) (*domain.ContactInfo, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ContactInfo), args.Error(1)
}

func (m *MockResolver) FetchTemplate(ctx context.Context, templateCode string) (*domain.TemplateContent, error) {
	args := m.Called(ctx, templateCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TemplateContent), args.Error(1)
}

// MockTracker мок для StatusTracker
type MockTracker struct {
	mock.Mock
}

func (m *MockTracker) Record(ctx context.Context, requestID string, status domain.Status, sendErr error) error {
	args := m.Called(ctx, requestID, status, sendErr)
	return args.Error(0)
}

// MockChannel мок для DeliveryChannel
type MockChannel struct {
	mock.Mock
	channel domain.Channel
}

func (m *MockChannel) Channel() domain.Channel {
	return m.channel
}

func (m *MockChannel) Send(ctx context.Context, content domain.RenderedContent, contact *domain.ContactInfo, req *domain.NotificationRequest) error {
	args := m.Called(ctx, content, contact, req)
	return args.Error(0)
}

func emailRequest() *domain.NotificationRequest {
	return &domain.NotificationRequest{
		RequestID:    "r1",
		UserID:       "u1",
		TemplateCode: "welcome",
		Channel:      domain.ChannelEmail,
		Variables:    map[string]string{"name": "Ada"},
	}
}

func TestProcess_Delivered(t *testing.T) {
	ctx := context.Background()
	resolver := new(MockResolver)
	tracker := new(MockTracker)
	channel := &MockChannel{channel: domain.ChannelEmail}

	contact := &domain.ContactInfo{UserID: "u1", Email: "ada@x.com"}
	tmpl := &domain.TemplateContent{TemplateCode: "welcome", Subject: "Hi {{name}}", Body: "Welcome {{name}}!"}

	resolver.On("FetchContact", mock.Anything, "u1").Return(contact, nil)
	resolver.On("FetchTemplate", mock.Anything, "welcome").Return(tmpl, nil)

	rendered := domain.RenderedContent{Subject: "Hi Ada", Body: "Welcome Ada!"}
	req := emailRequest()
	channel.On("Send", mock.Anything, rendered, contact, req).Return(nil)
	tracker.On("Record", mock.Anything, "r1", domain.StatusDelivered, nil).Return(nil)

	svc := service.NewDispatchService(resolver, tracker, channel)

	err := svc.Process(ctx, req)

	assert.NoError(t, err)
	resolver.AssertExpectations(t)
	channel.AssertExpectations(t)
	tracker.AssertExpectations(t)
}

func TestProcess_TemplateLookupFails(t *testing.T) {
	ctx := context.Background()
	resolver := new(MockResolver)
	tracker := new(MockTracker)
	channel := &MockChannel{channel: domain.ChannelEmail}

	resolver.On("FetchContact", mock.Anything, "u1").
		Return(&domain.ContactInfo{UserID: "u1", Email: "ada@x.com"}, nil)
	resolver.On("FetchTemplate", mock.Anything, "welcome").Return(nil, domain.ErrTemplateNotFound)

	tracker.On("Record", mock.Anything, "r1", domain.StatusFailed, mock.MatchedBy(func(err error) bool {
		return err != nil && err.Error() == "Failed to get template"
	})).Return(nil)

	svc := service.NewDispatchService(resolver, tracker, channel)

	err := svc.Process(ctx, emailRequest())

	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
	tracker.AssertExpectations(t)
	// до отправки дело не дошло
	channel.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcess_ContactLookupFails(t *testing.T) {
	ctx := context.Background()
	resolver := new(MockResolver)
	tracker := new(MockTracker)
	channel := &MockChannel{channel: domain.ChannelEmail}

	resolver.On("FetchContact", mock.Anything, "u1").Return(nil, domain.ErrContactNotFound)
	resolver.On("FetchTemplate", mock.Anything, "welcome").
		Return(&domain.TemplateContent{Body: "Welcome"}, nil)

	tracker.On("Record", mock.Anything, "r1", domain.StatusFailed, mock.Anything).Return(nil)

	svc := service.NewDispatchService(resolver, tracker, channel)

	err := svc.Process(ctx, emailRequest())

	assert.ErrorIs(t, err, domain.ErrContactNotFound)
	channel.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcess_SendFails(t *testing.T) {
	ctx := context.Background()
	resolver := new(MockResolver)
	tracker := new(MockTracker)
	channel := &MockChannel{channel: domain.ChannelEmail}

	resolver.On("FetchContact", mock.Anything, "u1").
		Return(&domain.ContactInfo{UserID: "u1"}, nil)
	resolver.On("FetchTemplate", mock.Anything, "welcome").
		Return(&domain.TemplateContent{Body: "Welcome"}, nil)

	channel.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(domain.ErrMissingRecipientAddress)
	tracker.On("Record", mock.Anything, "r1", domain.StatusFailed, domain.ErrMissingRecipientAddress).Return(nil)

	svc := service.NewDispatchService(resolver, tracker, channel)

	err := svc.Process(ctx, emailRequest())

	assert.ErrorIs(t, err, domain.ErrMissingRecipientAddress)
	tracker.AssertExpectations(t)
}

func TestProcess_UnknownChannel(t *testing.T) {
	ctx := context.Background()
	resolver := new(MockResolver)
	tracker := new(MockTracker)

	tracker.On("Record", mock.Anything, "r1", domain.StatusFailed, domain.ErrUnknownChannel).Return(nil)

	svc := service.NewDispatchService(resolver, tracker)

	err := svc.Process(ctx, emailRequest())

	assert.ErrorIs(t, err, domain.ErrUnknownChannel)
	resolver.AssertNotCalled(t, "FetchContact", mock.Anything, mock.Anything)
	tracker.AssertExpectations(t)
}

// TestProcess_StatusWriteIsBestEffort сбой записи статуса не меняет исход
// обработки: доставленное сообщение все равно подтверждается.
func TestProcess_StatusWriteIsBestEffort(t *testing.T) {
	ctx := context.Background()
	resolver := new(MockResolver)
	tracker := new(MockTracker)
	channel := &MockChannel{channel: domain.ChannelPush}

	resolver.On("FetchContact", mock.Anything, "u1").
		Return(&domain.ContactInfo{UserID: "u1", DeviceToken: "tok"}, nil)
	resolver.On("FetchTemplate", mock.Anything, "welcome").
		Return(&domain.TemplateContent{Body: "Welcome"}, nil)
	channel.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	tracker.On("Record", mock.Anything, "r1", domain.StatusDelivered, nil).
		Return(errors.New("redis down"))

	req := emailRequest()
	req.Channel = domain.ChannelPush

	svc := service.NewDispatchService(resolver, tracker, channel)

	err := svc.Process(ctx, req)

	assert.NoError(t, err)
	tracker.AssertExpectations(t)
}

// TestProcess_SingleStatusWrite на один запрос приходится ровно одна запись
// статуса независимо от исхода.
func TestProcess_SingleStatusWrite(t *testing.T) {
	ctx := context.Background()
	resolver := new(MockResolver)
	tracker := new(MockTracker)
	channel := &MockChannel{channel: domain.ChannelEmail}

	resolver.On("FetchContact", mock.Anything, "u1").
		Return(&domain.ContactInfo{UserID: "u1", Email: "ada@x.com"}, nil)
	resolver.On("FetchTemplate", mock.Anything, "welcome").
		Return(&domain.TemplateContent{Subject: "s", Body: "b"}, nil)
	channel.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	tracker.On("Record", mock.Anything, "r1", domain.StatusDelivered, nil).Return(nil)

	svc := service.NewDispatchService(resolver, tracker, channel)

	assert.NoError(t, svc.Process(ctx, emailRequest()))
	tracker.AssertNumberOfCalls(t, "Record", 1)
}
