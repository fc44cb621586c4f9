package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"NotifyDispatcher/internal/domain"
)

type Handler struct {
	publisher domain.MessageQueuePublisher
	statuses  domain.StatusReader
}

func NewHandlersSet(publisher domain.MessageQueuePublisher, statuses domain.StatusReader) *Handler {
	return &Handler{
		publisher: publisher,
		statuses:  statuses,
	}
}

var validate = validator.New()

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "обязательное поле"
	default:
		return "некорректное значение"
	}
}

// CreateNotificationHandler ставит уведомление в очередь и возвращает
// присвоенный request_id для последующего поллинга статуса.
func (h *Handler) CreateNotificationHandler(c *gin.Context) {
	var req CreateRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный JSON: " + err.Error()})
		return
	}

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			errorsMap := make(map[string]string)
			for _, e := range verrs {
				errorsMap[e.Field()] = validationMessage(e)
			}

			c.JSON(http.StatusBadRequest, gin.H{
				"message": "Ошибка валидации",
				"errors":  errorsMap,
			})
			return
		}
	}

	ch := domain.Channel(req.Channel)
	if !ch.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Канал отправки %s не поддерживается", req.Channel),
		})
		return
	}

	variables := req.Variables
	if variables == nil {
		variables = map[string]string{}
	}

	notification := &domain.NotificationRequest{
		RequestID:    uuid.New().String(),
		UserID:       req.UserID,
		TemplateCode: req.TemplateCode,
		Channel:      ch,
		Variables:    variables,
		Image:        req.Image,
		Link:         req.Link,
	}

	if err := h.publisher.Publish(c.Request.Context(), notification); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": CreateResponse{
		RequestID: notification.RequestID,
		Status:    "queued",
	}})
}

// GetStatusHandler возвращает статус доставки по request_id.
func (h *Handler) GetStatusHandler(c *gin.Context) {
	idStr := c.Param("id")
	if idStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}

	record, err := h.statuses.Get(c.Request.Context(), idStr)
	if err != nil {
		if errors.Is(err, domain.ErrStatusNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Статус не найден"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": record})
}

// HealthHandler подтверждает, что шлюз жив.
func (h *Handler) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
