package notification

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cafepos/backend/internal/infrastructure/config"
)

func TestLogNotifier_NotifyReturnProcessed(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	notifier := NewLogNotifier(zap.New(core))

	n := sampleNotification()
	err := notifier.NotifyReturnProcessed(context.Background(), n)
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "return processed", entries[0].Message)
	assert.Equal(t, "notify", entries[0].LoggerName)

	fields := entries[0].ContextMap()
	assert.Equal(t, n.ReturnID.String(), fields["return_id"])
	assert.Equal(t, "maria", fields["actor"])
	assert.Contains(t, fields["summary"], "Return processed by maria")
	assert.Contains(t, fields["summary"], "House Blend Beans 0.750 kg")
}

func TestLogNotifier_NotifyReturnUndone(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	notifier := NewLogNotifier(zap.New(core))

	n := sampleNotification()
	err := notifier.NotifyReturnUndone(context.Background(), n)
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "return undone", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Contains(t, fields["summary"], "back in stock")
}

func TestNewNotifier(t *testing.T) {
	logger := zap.NewNop()

	t.Run("log mode", func(t *testing.T) {
		notifier, err := NewNotifier(config.NotificationConfig{Mode: "log"}, nil, logger)
		require.NoError(t, err)
		assert.IsType(t, &LogNotifier{}, notifier)
	})

	t.Run("empty mode defaults to log", func(t *testing.T) {
		notifier, err := NewNotifier(config.NotificationConfig{}, nil, logger)
		require.NoError(t, err)
		assert.IsType(t, &LogNotifier{}, notifier)
	})

	t.Run("redis mode without client", func(t *testing.T) {
		_, err := NewNotifier(config.NotificationConfig{Mode: "redis", Channel: "returns"}, nil, logger)
		require.Error(t, err)
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := NewNotifier(config.NotificationConfig{Mode: "carrier-pigeon"}, nil, logger)
		require.Error(t, err)
	})
}
