// Package response формирует единый формат ответов об ошибках.
package response

import (
	"log"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yourusername/contest-api/internal/pkg/errors"
)

// RequestIDKey - ключ ID запроса в контексте Gin
const RequestIDKey = "request_id"

// ErrorBody - тело ответа при ошибке
type ErrorBody struct {
	Error     string                `json:"error"`
	Code      string                `json:"code"`
	Details   []apperrors.Violation `json:"details,omitempty"`
	RequestID string                `json:"request_id,omitempty"`
}

// Error отправляет ошибку клиенту и прерывает цепочку обработчиков.
// Внутренние ошибки логируются с ID запроса, клиент получает общее сообщение.
func Error(c *gin.Context, err error) {
	appErr := apperrors.Convert(err)
	requestID := c.GetString(RequestIDKey)
	if appErr.Kind == apperrors.KindInternal {
		log.Printf("[HTTP] Внутренняя ошибка %s %s (request_id=%s): %v", c.Request.Method, c.Request.URL.Path, requestID, err)
	}
	c.AbortWithStatusJSON(appErr.HTTPStatusCode(), ErrorBody{
		Error:     appErr.Message,
		Code:      appErr.Code,
		Details:   appErr.Details,
		RequestID: requestID,
	})
}

// BindError отвечает 400 на тело или query, которые не удалось разобрать
func BindError(c *gin.Context, err error) {
	Error(c, apperrors.BadRequest("VALIDATION_ERROR", "Invalid request: %v", err))
}
