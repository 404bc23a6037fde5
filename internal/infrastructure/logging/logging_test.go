package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrettyHandler_Handle(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		level    slog.Level
		attrs    []slog.Attr
		contains []string
	}{
		{
			name:     "info with attribute",
			level:    slog.LevelInfo,
			attrs:    []slog.Attr{slog.Int("status", 201)},
			contains: []string{"INFO:", "request", `"status":201`},
		},
		{
			name:     "error value rendered as message",
			level:    slog.LevelError,
			attrs:    []slog.Attr{slog.Any("error", errors.New("disk full"))},
			contains: []string{"ERROR:", `"error":"disk full"`},
		},
		{
			name:     "no attributes",
			level:    slog.LevelWarn,
			contains: []string{"WARN:", "{}"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := NewPrettyHandler(&buf, PrettyHandlerOptions{SlogOpts: slog.HandlerOptions{Level: slog.LevelDebug}})

			record := slog.NewRecord(time.Now(), tt.level, "request", 0)
			record.AddAttrs(tt.attrs...)

			require.NoError(t, handler.Handle(ctx, record))
			for _, s := range tt.contains {
				assert.Contains(t, buf.String(), s)
			}
		})
	}
}

func TestPrettyHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewPrettyHandler(&buf, PrettyHandlerOptions{}))

	logger.With("component", "api").WithGroup("http").Info("served", "status", 200)

	out := buf.String()
	assert.Contains(t, out, `"component":"api"`)
	assert.Contains(t, out, `"http.status":200`)
}

func TestPrettyHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewPrettyHandler(&buf, PrettyHandlerOptions{SlogOpts: slog.HandlerOptions{Level: slog.LevelWarn}}))

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew(t *testing.T) {
	t.Run("json format", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(&buf, "info", FormatJSON)
		require.NoError(t, err)

		logger.Info("hello", "k", "v")
		assert.Contains(t, buf.String(), `"msg":"hello"`)
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := New(&bytes.Buffer{}, "verbose", FormatText)
		require.Error(t, err)
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := New(&bytes.Buffer{}, "info", "xml")
		require.Error(t, err)
	})
}
