// File: internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/pagescope-cli/internal/config"
)

// syncBuffer adapts bytes.Buffer to zapcore.WriteSyncer.
type syncBuffer struct {
	bytes.Buffer
}

func (*syncBuffer) Sync() error { return nil }

func TestInitialize(t *testing.T) {

	t.Run("should initialize console logger with colors", func(t *testing.T) {
		ResetForTest()
		var buf syncBuffer

		cfg := config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "TestService",
			Colors: config.ColorConfig{
				Info: "green",
			},
		}
		Initialize(cfg, zapcore.Lock(&buf))
		logger := GetLogger()
		logger.Info("This is a test message.")

		output := buf.String()
		assert.Contains(t, output, "INFO", "Output should contain the log level")
		assert.Contains(t, output, "This is a test message.")
		assert.Contains(t, output, colorGreen, "Info level should be colorized green")
		assert.Contains(t, output, colorReset)
	})

	t.Run("should initialize json logger", func(t *testing.T) {
		ResetForTest()
		var buf syncBuffer

		cfg := config.LoggerConfig{
			Level:       "info",
			Format:      "json",
			ServiceName: "JSONTest",
		}
		Initialize(cfg, zapcore.Lock(&buf))
		logger := GetLogger()
		logger.Warn("This is a JSON message.", zap.String("key", "value"))

		var logEntry map[string]interface{}
		err := json.Unmarshal(buf.Bytes(), &logEntry)
		require.NoError(t, err, "Log output should be valid JSON")

		assert.Equal(t, "warn", logEntry["level"])
		assert.Equal(t, "JSONTest", logEntry["logger"])
		assert.Equal(t, "This is a JSON message.", logEntry["msg"])
		assert.Equal(t, "value", logEntry["key"])
	})

	t.Run("should respect the configured level", func(t *testing.T) {
		ResetForTest()
		var buf syncBuffer

		Initialize(config.LoggerConfig{Level: "warn", Format: "json", ServiceName: "LevelTest"}, zapcore.Lock(&buf))
		logger := GetLogger()
		logger.Info("dropped")
		logger.Warn("kept")

		output := buf.String()
		assert.NotContains(t, output, "dropped")
		assert.Contains(t, output, "kept")
	})

	t.Run("should fall back to info on invalid level", func(t *testing.T) {
		ResetForTest()
		var buf syncBuffer

		Initialize(config.LoggerConfig{Level: "chatty", Format: "json", ServiceName: "FallbackTest"}, zapcore.Lock(&buf))
		logger := GetLogger()
		logger.Debug("dropped at info level")
		logger.Info("kept")

		output := buf.String()
		assert.NotContains(t, output, "dropped at info level")
		assert.Contains(t, output, "kept")
	})

	t.Run("should only initialize once", func(t *testing.T) {
		ResetForTest()
		var first, second syncBuffer

		Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "OnceA"}, zapcore.Lock(&first))
		Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "OnceB"}, zapcore.Lock(&second))

		GetLogger().Info("routed to the first writer")

		assert.Contains(t, first.String(), "routed to the first writer")
		assert.Empty(t, second.String())
	})

	t.Run("should write to a log file if configured", func(t *testing.T) {
		ResetForTest()
		var buf syncBuffer
		logFile := filepath.Join(t.TempDir(), "pagescope-test.log")

		cfg := config.LoggerConfig{
			Level:   "debug",
			Format:  "json",
			LogFile: logFile,
			MaxSize: 1,
		}
		Initialize(cfg, zapcore.Lock(&buf))
		GetLogger().Info("written to file")
		Sync()

		contents, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(contents), "written to file")
	})
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	ResetForTest()
	logger := GetLogger()
	assert.NotNil(t, logger, "a fallback logger is always available")
}
