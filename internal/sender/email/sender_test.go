package email_sender

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"NotifyDispatcher/internal/domain"
)

func TestSend_MissingEmail(t *testing.T) {
	sender := NewSMTPSender("localhost", 587, "", "", "noreply@x.com", false)

	err := sender.Send(context.Background(),
		domain.RenderedContent{Subject: "Hi", Body: "Welcome"},
		&domain.ContactInfo{UserID: "u1"},
		nil)

	assert.ErrorIs(t, err, domain.ErrMissingRecipientAddress)
}

func TestSend_NilContact(t *testing.T) {
	sender := NewSMTPSender("localhost", 587, "", "", "noreply@x.com", false)

	err := sender.Send(context.Background(), domain.RenderedContent{}, nil, nil)

	assert.ErrorIs(t, err, domain.ErrMissingRecipientAddress)
}

func TestChannel(t *testing.T) {
	sender := NewSMTPSender("localhost", 587, "", "", "noreply@x.com", false)

	assert.Equal(t, domain.ChannelEmail, sender.Channel())
}

func TestComposeMessage(t *testing.T) {
	msg := string(composeMessage("noreply@x.com", "ada@x.com", domain.RenderedContent{
		Subject: "Hi Ada",
		Body:    "<b>Welcome Ada!</b>",
	}))

	assert.Contains(t, msg, "From: noreply@x.com\r\n")
	assert.Contains(t, msg, "To: ada@x.com\r\n")
	assert.Contains(t, msg, "Subject: Hi Ada\r\n")
	assert.Contains(t, msg, "Content-Type: text/html; charset=utf-8\r\n")
	assert.Contains(t, msg, "\r\n\r\n<b>Welcome Ada!</b>")
}

func TestComposeMessage_EmptySubject(t *testing.T) {
	msg := string(composeMessage("noreply@x.com", "ada@x.com", domain.RenderedContent{Body: "hello"}))

	assert.Contains(t, msg, "Subject: \r\n")
}
