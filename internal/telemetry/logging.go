// Package telemetry — настройка структурированного логирования.
//
// Все бинарники Faktura логируют через log/slog. Формат и уровень
// управляются переменными окружения LOG_FORMAT и LOG_LEVEL.
package telemetry

import (
	"log/slog"
	"os"
)

// LogLevel определяет уровень логирования из переменной окружения LOG_LEVEL.
// Возможные значения: DEBUG, INFO, WARN, ERROR. По умолчанию: INFO.
func LogLevel() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger инициализирует глобальный логгер.
//
// LOG_FORMAT:
//   - "json" (по умолчанию) — JSON для production
//   - "text" — человекочитаемый формат для разработки
func SetupLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     LogLevel(),
		AddSource: LogLevel() == slog.LevelDebug,
	}

	var handler slog.Handler
	if os.Getenv("LOG_FORMAT") == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
