package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/parcel-trip-backend/internal/http/middleware"
	"github.com/ignatzorin/parcel-trip-backend/internal/interface/http/response"
	"github.com/ignatzorin/parcel-trip-backend/internal/pkg/apperror"
)

// currentUser достаёт пользователя, выставленного AuthMiddleware. При ошибке ответ уже отправлен.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		response.Error(c, apperror.ErrNotAuthenticated)
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	if !ok || userID == uuid.Nil {
		response.Error(c, apperror.ErrNotAuthenticated)
		return uuid.Nil, false
	}
	return userID, true
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "параметр "+name+" должен быть валидным UUID")
		return uuid.Nil, false
	}
	return id, true
}

func parseIntQuery(c *gin.Context, key string, defaultValue int) int {
	valueStr := c.Query(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func parseFloatQuery(c *gin.Context, key string) (float64, bool) {
	value, err := strconv.ParseFloat(c.Query(key), 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
