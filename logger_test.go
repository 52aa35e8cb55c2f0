package fastfetch

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNopLogger(t *testing.T) {
	var logger Logger = nopLogger{}
	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")
}

func TestZapLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewZapLogger(zap.New(core))

	logger.Debug("debug message", "k", 1)
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "fastfetch", entries[0].LoggerName)
	assert.Equal(t, int64(1), entries[0].ContextMap()["k"])
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}

func TestZapLoggerNil(t *testing.T) {
	logger := NewZapLogger(nil)
	logger.Info("discarded")
}

func TestLogrLogger(t *testing.T) {
	var lines []string
	base := funcr.New(func(prefix, args string) {
		lines = append(lines, prefix+" "+args)
	}, funcr.Options{Verbosity: 1})
	logger := NewLogrLogger(base)

	logger.Debug("debug message")
	logger.Warn("warn message", "k", "v")
	logger.Error("error message")

	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], `"level"=1`)
	assert.Contains(t, lines[1], `"level"="warn"`)
	assert.Contains(t, lines[1], `"k"="v"`)
	assert.Contains(t, lines[2], "error message")
	for _, l := range lines {
		assert.True(t, strings.HasPrefix(l, "fastfetch"), l)
	}
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	logger.Warn("warn message", "attempt", 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "warn message", entry["msg"])
	assert.Equal(t, float64(2), entry["attempt"])

	assert.NotNil(t, NewSlogLogger(nil).logger)
}

func TestClientLogsRetries(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	client := New(
		WithZapLogger(zap.New(core)),
		WithDoer(newScriptedDoer(fail(errConnRefused), fail(errConnRefused))),
		WithSleeper((&recordingSleeper{}).Sleep),
		WithDeduplication(false),
	)

	_, err := client.Fetch(context.Background(), testURL, WithRetries(1))
	require.Error(t, err)

	retries := logs.FilterMessage("Request failed, will retry").All()
	require.Len(t, retries, 1)
	assert.Equal(t, int64(1), retries[0].ContextMap()["attempt"])
	assert.Equal(t, errConnRefused.Error(), retries[0].ContextMap()["error"])

	failed := logs.FilterMessage("Request failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zapcore.ErrorLevel, failed[0].Level)
}

func TestClientLogsDeduplication(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	client := New(WithZapLogger(zap.New(core)), WithDoer(newScriptedDoer(respond(http.StatusOK, ""))))

	_, err := client.Fetch(context.Background(), testURL)
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("Deduplication miss - starting request").Len())
	assert.Equal(t, 1, logs.FilterMessage("Request completed").Len())
}
