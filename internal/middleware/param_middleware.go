package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/contest-api/internal/handler/response"
	apperrors "github.com/yourusername/contest-api/internal/pkg/errors"
)

// ExtractUintParam создает middleware для извлечения и валидации числового параметра URL.
// paramName - имя параметра в URL (например, "id").
// contextKey - ключ, под которым значение будет сохранено в контексте Gin.
func ExtractUintParam(paramName, contextKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param(paramName), 10, 32)
		if err != nil || id == 0 {
			response.Error(c, apperrors.BadRequest("INVALID_ID", "Invalid %s", paramName))
			return
		}
		c.Set(contextKey, uint(id))
		c.Next()
	}
}
