package oteladapters_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/noop"

	"github.com/AntonStoeckl/library-inventory/oteladapters"
)

func Test_SlogBridgeLogger_AllLevels(t *testing.T) {
	// arrange
	var buf bytes.Buffer
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := context.Background()

	// act
	logger.DebugContext(ctx, "debug message")
	logger.InfoContext(ctx, "info message", "item_id", int64(42))
	logger.WarnContext(ctx, "warn message")
	logger.ErrorContext(ctx, "error message", "error", "boom")

	// assert
	output := buf.String()
	assert.Contains(t, output, `"level":"DEBUG","msg":"debug message"`)
	assert.Contains(t, output, `"msg":"info message","item_id":42`)
	assert.Contains(t, output, `"level":"WARN","msg":"warn message"`)
	assert.Contains(t, output, `"msg":"error message","error":"boom"`)
}

func Test_NewSlogBridgeLogger_UsesGlobalProvider(t *testing.T) {
	logger := oteladapters.NewSlogBridgeLogger("library-inventory")

	assert.NotPanics(t, func() { logger.InfoContext(context.Background(), "hello") })
}

func Test_OTelLogger_DoesNotPanic(t *testing.T) {
	logger := oteladapters.NewOTelLogger(noop.NewLoggerProvider().Logger("test"))
	ctx := context.Background()

	assert.NotPanics(t, func() {
		logger.DebugContext(ctx, "debug", "key", "value")
		logger.InfoContext(ctx, "info", "count", 3, "dangling")
		logger.WarnContext(ctx, "warn")
		logger.ErrorContext(ctx, "error", "error", errors.New("boom"))
	})
}

func Test_KeyValues_KeepsTypes(t *testing.T) {
	// act
	kvs := oteladapters.KeyValues([]any{
		"title", "Dune",
		"item_id", int64(7),
		"count", 3,
		"ratio", 0.5,
		"extended", true,
		"error", errors.New("boom"),
		42, "ignored",
		"dangling",
	})

	// assert
	expected := []log.KeyValue{
		log.String("title", "Dune"),
		log.Int64("item_id", 7),
		log.Int("count", 3),
		log.Float64("ratio", 0.5),
		log.Bool("extended", true),
		log.String("error", "boom"),
	}
	require.Len(t, kvs, len(expected))
	for i := range expected {
		assert.True(t, expected[i].Equal(kvs[i]), "attribute %s", expected[i].Key)
	}
}
