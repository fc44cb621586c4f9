package handlers

// CreateRequest тело запроса на постановку уведомления в очередь.
type CreateRequest struct {
	UserID       string            `json:"user_id" validate:"required"`
	TemplateCode string            `json:"template_code" validate:"required"`
	Channel      string            `json:"channel" validate:"required"`
	Variables    map[string]string `json:"variables"`
	Image        string            `json:"image"`
	Link         string            `json:"link"`
}

// CreateResponse ответ с присвоенным request_id.
type CreateResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}
