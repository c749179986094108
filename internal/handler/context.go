package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/contest-api/internal/domain/entity"
	"github.com/yourusername/contest-api/internal/middleware"
	"github.com/yourusername/contest-api/internal/service"
)

// Ключи контекста, которые заполняет ExtractUintParam
const (
	ContestIDKey = "contestID"
	PrizeIDKey   = "prizeID"
	UserIDKey    = "targetUserID"
)

// timeNow подменяется в тестах
var timeNow = time.Now

// principalFrom возвращает вызывающего; без токена это гость
func principalFrom(c *gin.Context) service.Principal {
	userID := c.GetUint(middleware.ContextUserID)
	if userID == 0 {
		return service.Guest()
	}
	role := c.GetString(middleware.ContextRole)
	if role == "" {
		role = entity.RoleGuest
	}
	return service.Principal{UserID: userID, Role: role}
}

// pageFrom читает page и limit из query; некорректные значения заменяются умолчаниями
func pageFrom(c *gin.Context) service.Page {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(service.DefaultPageSize)))
	return service.NewPage(page, limit)
}
