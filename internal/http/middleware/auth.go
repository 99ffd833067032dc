package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/parcel-trip-backend/internal/interface/http/response"
	"github.com/ignatzorin/parcel-trip-backend/internal/service"
)

// Context ключи для gin.Context.
const (
	ContextUserIDKey = "user_id"
	ContextEmailKey  = "email"
)

const knownUserTTL = 10 * time.Minute

// UserEnsurer создаёт локальную запись пользователя при первом обращении.
type UserEnsurer interface {
	Ensure(ctx context.Context, id uuid.UUID, email string) error
}

// AuthMiddleware проверяет JWT access токен и заводит пользователя в локальной БД.
// Уже известные пользователи кэшируются, чтобы не писать в БД на каждый запрос.
func AuthMiddleware(tokens *service.TokenManager, users UserEnsurer, cache *service.CacheService) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			response.Unauthorized(c, "требуется авторизация")
			return
		}

		identity, err := tokens.ParseAccess(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			response.Unauthorized(c, "токен невалиден")
			return
		}

		key := service.KnownUserCacheKey(identity.UserID)
		if email, ok := cache.Get(key); !ok || email != identity.Email {
			if err := users.Ensure(c.Request.Context(), identity.UserID, identity.Email); err != nil {
				cache.Delete(key)
				response.Error(c, err)
				return
			}
			cache.Set(key, identity.Email, knownUserTTL)
		}

		c.Set(ContextUserIDKey, identity.UserID)
		c.Set(ContextEmailKey, identity.Email)
		c.Next()
	}
}
