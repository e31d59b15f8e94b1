package logging

import (
	"log/slog"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// StandardLogger provides a standardized structured logging interface for
// services, adapters and handlers.
type StandardLogger struct {
	logger *slog.Logger
}

// NewStandardLogger creates a JSON slog logger honoring the configured level.
func NewStandardLogger(logLevel string, environment string) *StandardLogger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: getSlogLevel(logLevel),
	})
	logger := slog.New(handler).With("environment", environment)
	return &StandardLogger{logger: logger}
}

// WithComponent returns a logger scoped to a component name.
func (s *StandardLogger) WithComponent(componentName string) *slog.Logger {
	return s.logger.With("component", componentName)
}

// WithOperation returns a logger scoped to an operation name.
func (s *StandardLogger) WithOperation(operationName string) *slog.Logger {
	return s.logger.With("operation", operationName)
}

// WithIndicator returns a logger scoped to an indicator.
func (s *StandardLogger) WithIndicator(indicator string) *slog.Logger {
	return s.logger.With("indicator", indicator)
}

// WithError returns a logger carrying an error attribute.
func (s *StandardLogger) WithError(err error) *slog.Logger {
	return s.logger.With("error", err.Error())
}

// Logger exposes the underlying slog logger.
func (s *StandardLogger) Logger() *slog.Logger {
	return s.logger
}

// LogStartup emits the standard service startup record.
func (s *StandardLogger) LogStartup(serviceName, version string, port int) {
	s.logger.Info("service starting",
		"service", serviceName,
		"version", version,
		"port", port,
	)
}

// LogShutdown emits the standard service shutdown record.
func (s *StandardLogger) LogShutdown(serviceName, reason string) {
	s.logger.Info("service stopping",
		"service", serviceName,
		"reason", reason,
	)
}

func getSlogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ConfigureLogrus aligns the logrus level (used by the database layer for
// connection lifecycle logs) with the configured log level.
func ConfigureLogrus(logLevel string) {
	parsed, err := logrus.ParseLevel(strings.ToLower(logLevel))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logrus.SetLevel(parsed)
	logrus.SetFormatter(&logrus.JSONFormatter{})
}
