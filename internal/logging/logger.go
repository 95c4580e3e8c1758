// Package logging builds the process logger and carries correlation IDs
// through contexts.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/genome360-risk-client/internal/domain"
)

// Redacted replaces health values that reach a log entry.
const Redacted = "[REDACTED]"

// NewLogger builds a logger from configuration. The returned closer releases
// the log file when output is "file"; it is a no-op otherwise.
func NewLogger(config domain.LoggingConfig) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(config.Format, "text") {
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	}

	var closer io.Closer = nopCloser{}
	switch strings.ToLower(config.Output) {
	case "", "stderr":
		logger.SetOutput(os.Stderr)
	case "stdout":
		logger.SetOutput(os.Stdout)
	case "file":
		if config.Filename == "" {
			return nil, nil, fmt.Errorf("logging output is file but no filename is set")
		}
		f, err := os.OpenFile(config.Filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logger.SetOutput(f)
		closer = f
	default:
		return nil, nil, fmt.Errorf("invalid logging output: %s", config.Output)
	}

	logger.AddHook(NewRedactionHook())
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// RedactionHook scrubs entry fields named after input fields so health
// values never leave the process through logs. Field names may still be
// logged under other keys.
type RedactionHook struct {
	sensitive map[string]bool
}

// NewRedactionHook covers every registry field plus the generic "value" key.
func NewRedactionHook() *RedactionHook {
	sensitive := map[string]bool{"value": true}
	for _, spec := range domain.Fields() {
		sensitive[string(spec.Name)] = true
	}
	return &RedactionHook{sensitive: sensitive}
}

// Levels implements logrus.Hook.
func (h *RedactionHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook.
func (h *RedactionHook) Fire(entry *logrus.Entry) error {
	for key := range entry.Data {
		if h.sensitive[strings.ToLower(key)] {
			entry.Data[key] = Redacted
		}
	}
	return nil
}

type correlationKey struct{}

// WithCorrelationID stores id on ctx.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID extracts the id stored on ctx, generating one if absent.
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.New().String()
}

// FromContext returns an entry tagged with the context's correlation id.
func FromContext(ctx context.Context, logger *logrus.Logger) *logrus.Entry {
	return logger.WithField("correlation_id", CorrelationID(ctx))
}
