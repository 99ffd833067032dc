package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/ignatzorin/parcel-trip-backend/internal/interface/http/response"
	"github.com/ignatzorin/parcel-trip-backend/internal/logger"
)

// RateLimitMiddleware ограничивает количество запросов. Ключ - пользователь,
// если он уже определён, иначе IP. prefix разделяет счётчики разных групп маршрутов.
func RateLimitMiddleware(prefix string, limit int64, period time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		limit = 10
	}
	if period <= 0 {
		period = 1 * time.Minute
	}

	rate := limiter.Rate{
		Period: period,
		Limit:  limit,
	}
	store := memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: prefix, CleanUpInterval: period})
	instance := limiter.New(store, rate)

	return func(c *gin.Context) {
		key := c.ClientIP()
		if v, ok := c.Get(ContextUserIDKey); ok {
			if id, ok := v.(uuid.UUID); ok {
				key = id.String()
			}
		}

		lctx, err := instance.Get(c, key)
		if err != nil {
			logger.Log.WithError(err).Error("Ошибка rate limiter")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", lctx.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", lctx.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", lctx.Reset))

		if lctx.Reached {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.Response{
				Success: false,
				Error: &response.ErrorInfo{
					Code:    "RATE_LIMITED",
					Message: "слишком много запросов, попробуйте позже",
				},
			})
			return
		}

		c.Next()
	}
}
