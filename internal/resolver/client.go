package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wb-go/wbf/zlog"

	"NotifyDispatcher/internal/domain"
)

const maxResponseBytes = 1 << 20 // 1 MB max

// Client ходит за контактами и шаблонами в сервисы пользователей и шаблонов.
// Кэширования нет намеренно: правки пользователя или шаблона должны быть
// видны немедленно, на каждое сообщение выполняются свежие запросы.
type Client struct {
	userBaseURL     string
	templateBaseURL string
	httpClient      *http.Client
}

// NewClient создает новый экземпляр Client.
func NewClient(userBaseURL, templateBaseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		userBaseURL:     strings.TrimRight(userBaseURL, "/"),
		templateBaseURL: strings.TrimRight(templateBaseURL, "/"),
		httpClient:      &http.Client{Timeout: timeout},
	}
}

// FetchContact получает контактные данные получателя.
func (c *Client) FetchContact(ctx context.Context, userID string) (*domain.ContactInfo, error) {
	url := fmt.Sprintf("%s/users/%s/contact", c.userBaseURL, userID)

	contact := &domain.ContactInfo{}
	if err := c.getJSON(ctx, url, contact, domain.ErrContactNotFound); err != nil {
		return nil, err
	}
	if contact.UserID == "" {
		contact.UserID = userID
	}
	return contact, nil
}

// FetchTemplate получает содержимое шаблона.
func (c *Client) FetchTemplate(ctx context.Context, templateCode string) (*domain.TemplateContent, error) {
	url := fmt.Sprintf("%s/templates/%s", c.templateBaseURL, templateCode)

	tmpl := &domain.TemplateContent{}
	if err := c.getJSON(ctx, url, tmpl, domain.ErrTemplateNotFound); err != nil {
		return nil, err
	}
	if tmpl.TemplateCode == "" {
		tmpl.TemplateCode = templateCode
	}
	return tmpl, nil
}

// getJSON выполняет GET и декодирует ответ в dst. Любой сбой, включая
// не-2xx статус, фатален для текущего сообщения и возвращается как
// lookupErr, текст которого уходит в запись статуса.
func (c *Client) getJSON(ctx context.Context, url string, dst interface{}, lookupErr error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return lookupErr
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("url", url).Msg("resolver request failed")
		return lookupErr
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		zlog.Logger.Warn().Int("status", resp.StatusCode).Str("url", url).Msg("resolver returned non-2xx")
		return lookupErr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		zlog.Logger.Error().Err(err).Str("url", url).Msg("failed to read resolver response")
		return lookupErr
	}
	if err := json.Unmarshal(body, dst); err != nil {
		zlog.Logger.Error().Err(err).Str("url", url).Msg("failed to unmarshal resolver response")
		return lookupErr
	}
	return nil
}
