package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log является глобальным экземпляром логгера для всего приложения.
// До вызова Init это обычный logrus.New(), чтобы пакеты и тесты могли писать логи без подготовки.
var Log = logrus.New()

// Init настраивает глобальный логгер.
// Вызывается один раз при старте приложения в main.go.
func Init() {
	Log = logrus.New()

	// 1. Уровень логирования из переменной окружения.
	// По умолчанию - "info". Для отладки можно выставить "debug".
	logLevel, ok := os.LookupEnv("LOG_LEVEL")
	if !ok {
		logLevel = "info"
	}
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)

	// 2. Форматтер.
	// "json" - для продакшена и сбора логов.
	// "text" - для удобной разработки.
	logFormat := strings.ToLower(os.Getenv("LOG_FORMAT"))
	if logFormat == "json" {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	}

	// 3. Куда писать. Stdout всегда, файл с ротацией - если задан LOG_FILE.
	Log.SetOutput(output(os.Getenv("LOG_FILE")))
}

func output(path string) io.Writer {
	if path == "" {
		return os.Stdout
	}
	// 10MB на файл, 3 бэкапа, неделя хранения
	return io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     7,
	})
}

// Component returns an entry pre-tagged with the component name.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
