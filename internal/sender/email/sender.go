package email_sender

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"sync"
	"time"

	"github.com/wb-go/wbf/zlog"

	"NotifyDispatcher/internal/domain"
)

// SMTPSender канал доставки email через SMTP.
type SMTPSender struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	SSL      bool

	Timeout time.Duration

	mu     sync.Mutex
	client *smtp.Client
}

// NewSMTPSender создает новый экземпляр SMTPSender. Подключение к серверу
// устанавливается лениво при первой отправке, чтобы временно недоступный
// SMTP не мешал старту воркера.
func NewSMTPSender(host string, port int, username, password, from string, ssl bool) *SMTPSender {
	return &SMTPSender{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		From:     from,
		SSL:      ssl,
		Timeout:  10 * time.Second,
	}
}

// Channel возвращает обслуживаемый канал.
func (s *SMTPSender) Channel() domain.Channel {
	return domain.ChannelEmail
}

// connect устанавливает соединение с SMTP сервером.
func (s *SMTPSender) connect() error {
	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	dialer := &net.Dialer{Timeout: s.Timeout}

	var conn net.Conn
	var err error

	if s.SSL {
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: s.Host})
	} else {
		conn, err = dialer.Dial("tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	clientChan := make(chan *smtp.Client, 1)
	errChan := make(chan error, 1)

	go func() {
		client, err := smtp.NewClient(conn, s.Host)
		if err != nil {
			_ = conn.Close()
			errChan <- err
			return
		}
		clientChan <- client
	}()

	var client *smtp.Client
	select {
	case client = <-clientChan:
	case err := <-errChan:
		return fmt.Errorf("smtp.NewClient failed: %w", err)
	case <-time.After(s.Timeout):
		_ = conn.Close()
		return fmt.Errorf("smtp.NewClient timed out (server did not send banner)")
	}

	if !s.SSL {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: s.Host}); err != nil {
				zlog.Logger.Warn().Err(err).Msg("STARTTLS not available")
			}
		}
	}

	// Пропускаем аутентификацию, если credentials пустые (для MailHog и других тестовых SMTP)
	if s.Username == "" && s.Password == "" {
		zlog.Logger.Debug().Msg("skipping smtp authentication (empty credentials)")
	} else {
		auth := smtp.CRAMMD5Auth(s.Username, s.Password)

		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				_ = client.Close()
				return fmt.Errorf("authentication failed: %w", err)
			}
		} else {
			zlog.Logger.Debug().Msg("smtp server does not support authentication, continuing without auth")
		}
	}

	s.client = client
	return nil
}

// ensureConnected проверяет и восстанавливает соединение с SMTP сервером.
func (s *SMTPSender) ensureConnected() error {
	if s.client != nil {
		if err := s.client.Noop(); err == nil {
			return nil
		}
	}
	return s.connect()
}

// Send отправляет email уведомление. Пустой email получателя это ошибка
// MissingRecipientAddress; сбой транспорта заворачивается в DeliveryFailed.
func (s *SMTPSender) Send(ctx context.Context, content domain.RenderedContent, contact *domain.ContactInfo, _ *domain.NotificationRequest) error {
	if contact == nil || contact.Email == "" {
		return domain.ErrMissingRecipientAddress
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureConnected(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, err)
	}

	msg := composeMessage(s.From, contact.Email, content)

	done := make(chan error, 1)

	go func() {
		done <- s.sendMessage(contact.Email, msg)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, err)
		}
		return nil
	}
}

// composeMessage собирает MIME сообщение с HTML телом.
func composeMessage(from, to string, content domain.RenderedContent) []byte {
	contentType := "text/html; charset=utf-8"
	return []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: %s\r\n\r\n%s",
		from,
		to,
		content.Subject,
		contentType,
		content.Body,
	))
}

// sendMessage отправляет сообщение через установленное SMTP соединение.
func (s *SMTPSender) sendMessage(recipient string, msg []byte) error {
	if err := s.client.Mail(s.From); err != nil {
		return err
	}
	if err := s.client.Rcpt(recipient); err != nil {
		return err
	}
	w, err := s.client.Data()
	if err != nil {
		return err
	}
	if _, err = w.Write(msg); err != nil {
		return err
	}

	return w.Close()
}

// Close закрывает SMTP соединение.
func (s *SMTPSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		_ = s.client.Quit()
		s.client = nil
	}

	return nil
}
