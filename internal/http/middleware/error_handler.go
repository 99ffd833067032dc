package middleware

import (
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/parcel-trip-backend/internal/interface/http/response"
	"github.com/ignatzorin/parcel-trip-backend/internal/logger"
	"github.com/ignatzorin/parcel-trip-backend/internal/pkg/apperror"
)

// ErrorHandler превращает panic и ошибки, добавленные через c.Error, в конверт ответа.
// Внутренние причины только логируются.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Log.WithFields(logrus.Fields{
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
					"panic":  r,
					"stack":  string(debug.Stack()),
				}).Error("Panic при обработке запроса")
				response.Error(c, apperror.New(apperror.ErrCodeInternal, "внутренняя ошибка сервера"))
			}
		}()

		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}
		response.Error(c, c.Errors.Last().Err)
	}
}
