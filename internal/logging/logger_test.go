package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genome360-risk-client/internal/domain"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		config    domain.LoggingConfig
		wantLevel logrus.Level
		wantJSON  bool
	}{
		{"json debug", domain.LoggingConfig{Level: "debug", Format: "json"}, logrus.DebugLevel, true},
		{"text warn", domain.LoggingConfig{Level: "warn", Format: "text", Output: "stdout"}, logrus.WarnLevel, false},
		{"bad level falls back to info", domain.LoggingConfig{Level: "loud"}, logrus.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, closer, err := NewLogger(tt.config)
			require.NoError(t, err)
			defer closer.Close()

			assert.Equal(t, tt.wantLevel, logger.GetLevel())
			_, isJSON := logger.Formatter.(*logrus.JSONFormatter)
			assert.Equal(t, tt.wantJSON, isJSON)
		})
	}
}

func TestNewLogger_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genome360.log")

	logger, closer, err := NewLogger(domain.LoggingConfig{Level: "info", Output: "file", Filename: path})
	require.NoError(t, err)
	logger.Info("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"hello"`)
}

func TestNewLogger_InvalidOutput(t *testing.T) {
	_, _, err := NewLogger(domain.LoggingConfig{Output: "file"})
	assert.Error(t, err)

	_, _, err = NewLogger(domain.LoggingConfig{Output: "syslog"})
	assert.Error(t, err)
}

func TestRedactionHook(t *testing.T) {
	logger, closer, err := NewLogger(domain.LoggingConfig{Level: "info"})
	require.NoError(t, err)
	defer closer.Close()

	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.WithFields(logrus.Fields{
		"field":          "hba1c",
		"hba1c":          7.9,
		"value":          "7.9",
		"submission_id":  "abc",
		"SMOKING_STATUS": "current",
	}).Info("Field updated")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hba1c", entry["field"])
	assert.Equal(t, Redacted, entry["hba1c"])
	assert.Equal(t, Redacted, entry["value"])
	assert.Equal(t, Redacted, entry["SMOKING_STATUS"])
	assert.Equal(t, "abc", entry["submission_id"])
}

func TestCorrelationID(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "corr-1")
	assert.Equal(t, "corr-1", CorrelationID(ctx))

	generated := CorrelationID(context.Background())
	assert.Len(t, generated, 36)

	logger := logrus.New()
	assert.Equal(t, "corr-1", FromContext(ctx, logger).Data["correlation_id"])
}
