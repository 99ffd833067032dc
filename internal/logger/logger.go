package logger

import (
	"io"

	"github.com/sirupsen/logrus"
)

var Log = logrus.New()

// Init инициализирует структурированный логгер.
// В production пишем JSON, в остальных окружениях текст с полными метками времени.
func Init(level, env string) *logrus.Logger {
	Log = logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	if env == "production" {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		SetTextFormatter()
	}
	return Log
}

// SetTextFormatter устанавливает текстовый формат логов (для development).
func SetTextFormatter() {
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

// Discard возвращает логгер без вывода, для тестов.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
