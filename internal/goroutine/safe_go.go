package goroutine

import (
	"context"
	"runtime/debug"

	"github.com/sirupsen/logrus"
)

// Logger интерфейс для логирования ошибок
type Logger interface {
	WithFields(fields logrus.Fields) *logrus.Entry
}

// RecoveryHandler обрабатывает panic в горутинах
type RecoveryHandler struct {
	logger Logger
}

// NewRecoveryHandler создает новый обработчик
func NewRecoveryHandler(logger Logger) *RecoveryHandler {
	return &RecoveryHandler{logger: logger}
}

func (rh *RecoveryHandler) recover(name string) {
	if r := recover(); r != nil {
		rh.logger.WithFields(logrus.Fields{
			"goroutine": name,
			"panic":     r,
			"stack":     string(debug.Stack()),
		}).Error("Panic в горутине")
	}
}

// SafeGo запускает горутину с обработкой panic
func (rh *RecoveryHandler) SafeGo(name string, fn func()) {
	go func() {
		defer rh.recover(name)
		fn()
	}()
}

// SafeGoWithContext запускает горутину с контекстом и обработкой panic
func (rh *RecoveryHandler) SafeGoWithContext(ctx context.Context, name string, fn func(context.Context)) {
	go func() {
		defer rh.recover(name)
		fn(ctx)
	}()
}

// DefaultRecoveryHandler - глобальный обработчик, пишет в стандартный логгер logrus
var DefaultRecoveryHandler = NewRecoveryHandler(logrus.StandardLogger())

// SetLogger заменяет логгер глобального обработчика.
func SetLogger(l Logger) {
	DefaultRecoveryHandler = NewRecoveryHandler(l)
}

// SafeGo - упрощенная функция для запуска безопасной горутины
func SafeGo(name string, fn func()) {
	DefaultRecoveryHandler.SafeGo(name, fn)
}

// SafeGoWithContext - упрощенная функция для запуска безопасной горутины с контекстом
func SafeGoWithContext(ctx context.Context, name string, fn func(context.Context)) {
	DefaultRecoveryHandler.SafeGoWithContext(ctx, name, fn)
}
