package domain

type Channel string

// String возвращает строковое представление канала.
func (c Channel) String() string {
	return string(c)
}

// IsValid проверяет, является ли канал валидным.
func (c Channel) IsValid() bool {
	switch c {
	case ChannelEmail, ChannelPush:
		return true
	default:
		return false
	}
}

// QueueName возвращает имя очереди канала, оно же routing key.
func (c Channel) QueueName() string {
	return string(c) + ".queue"
}

type Status string

// String возвращает строковое представление статуса.
func (s Status) String() string {
	return string(s)
}

// IsValid проверяет, является ли статус валидным.
func (s Status) IsValid() bool {
	switch s {
	case StatusDelivered, StatusFailed:
		return true
	default:
		return false
	}
}

const (
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
)

const (
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
)

// NotificationRequest запрос на отправку уведомления, прочитанный из очереди.
// После разбора не изменяется и принадлежит обрабатывающему его воркеру.
type NotificationRequest struct {
	RequestID    string            `json:"request_id"`
	UserID       string            `json:"user_id"`
	TemplateCode string            `json:"template_code"`
	Channel      Channel           `json:"channel"`
	Variables    map[string]string `json:"variables"`
	Image        string            `json:"image,omitempty"`
	Link         string            `json:"link,omitempty"`
}

// Preferences настройки уведомлений пользователя по каналам.
type Preferences struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
}

// ContactInfo контактные данные получателя, запрашиваются заново на каждое
// сообщение у сервиса пользователей.
type ContactInfo struct {
	UserID      string      `json:"user_id"`
	Email       string      `json:"email"`
	DeviceToken string      `json:"device_token"`
	Preferences Preferences `json:"preferences"`
}

// TemplateContent содержимое шаблона из сервиса шаблонов. Subject и Body
// могут содержать плейсхолдеры вида {{name}}.
type TemplateContent struct {
	TemplateCode string `json:"template_code"`
	Subject      string `json:"subject"`
	Body         string `json:"body"`
}

// RenderedContent шаблон после подстановки переменных. Для push канала
// Subject играет роль заголовка.
type RenderedContent struct {
	Subject string
	Body    string
}

// DeliveryStatus итог обработки одного запроса, хранится в Redis по ключу
// status:{request_id} и читается внешними сервисами при поллинге.
type DeliveryStatus struct {
	NotificationID string  `json:"notification_id"`
	Status         Status  `json:"status"`
	Timestamp      string  `json:"timestamp"`
	Error          *string `json:"error"`
}
