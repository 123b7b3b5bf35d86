package testutil

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures log records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("dataset loaded", slog.Int("rows", 6))
		logger.Error("source fetch failed", slog.String("source", "primeira"))

		require.Len(t, handler.GetRecords(), 2)
		assert.True(t, handler.ContainsMessage("dataset loaded"))
		assert.True(t, handler.ContainsAttr("rows", int64(6)))
		assert.True(t, handler.ContainsAttr("source", "primeira"))
	})

	t.Run("filters by level", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Debug("debug msg")
		logger.Info("info msg")
		logger.Warn("warn msg")
		logger.Error("error msg")

		assert.Len(t, handler.GetRecordsByLevel(slog.LevelInfo), 1)
		assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)
	})

	t.Run("derived loggers share the buffer", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		child := logger.With(slog.String("component", "dataset_loader"))
		child.WithGroup("http").Info("request", slog.Int("status", 200))
		logger.Info("plain")

		records := handler.GetRecords()
		require.Len(t, records, 2)
		assert.Equal(t, "dataset_loader", records[0].Attrs["component"])
		assert.Equal(t, int64(200), records[0].Attrs["http.status"])
		assert.NotContains(t, records[1].Attrs, "component")
	})

	t.Run("clear", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("message 1")
		logger.Info("message 2")
		assert.Equal(t, 2, handler.Count())

		handler.Clear()
		assert.Zero(t, handler.Count())
	})

	t.Run("assertion helpers", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("cache refreshed", slog.String("component", "dashboard_service"))
		logger.Warn("calendar error", slog.Int("retry", 3))

		AssertLogContains(t, handler, slog.LevelInfo, "refreshed")
		AssertLogAttr(t, handler, "component", "dashboard_service")
		AssertNoErrors(t, handler)
	})

	t.Run("concurrent logging", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				logger.Info("concurrent log", slog.Int("goroutine", n))
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 10, handler.Count())
	})
}
