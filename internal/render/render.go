package render

import (
	"strings"

	"NotifyDispatcher/internal/domain"
)

// Render подставляет переменные вида {{key}} в subject и body шаблона.
// Имя переменной трактуется как литеральная строка, а не шаблон regexp,
// чтобы недоверенное имя не превратилось в паттерн. Плейсхолдеры без
// соответствующей переменной остаются в тексте как есть, это не ошибка.
// Отрисовка никогда не завершается ошибкой; пустой subject допустим.
func Render(t *domain.TemplateContent, vars map[string]string) domain.RenderedContent {
	subject := t.Subject
	body := t.Body

	for key, value := range vars {
		placeholder := "{{" + key + "}}"
		subject = strings.ReplaceAll(subject, placeholder, value)
		body = strings.ReplaceAll(body, placeholder, value)
	}

	return domain.RenderedContent{Subject: subject, Body: body}
}
