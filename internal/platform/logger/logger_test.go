package logger

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenlms/adapt-api/internal/config"
)

// Setup mutates the process default logger, so these subtests must not
// run in parallel with each other.
func TestSetup(t *testing.T) {
	tests := []struct {
		name      string
		logLevel  string
		wantLevel slog.Level
	}{
		{"debug level", "debug", slog.LevelDebug},
		{"info level", "info", slog.LevelInfo},
		{"warn level", "warn", slog.LevelWarn},
		{"error level", "error", slog.LevelError},
		{"mixed case", "DeBuG", slog.LevelDebug},
		{"invalid level falls back to info", "verbose", slog.LevelInfo},
		{"empty level falls back to info", "", slog.LevelInfo},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			logger, err := Setup(config.ServerConfig{LogLevel: tc.logLevel})
			require.NoError(t, err)
			require.NotNil(t, logger)

			ctx := context.Background()
			assert.True(t, logger.Enabled(ctx, tc.wantLevel))
			if tc.wantLevel > slog.LevelDebug {
				assert.False(t, logger.Enabled(ctx, tc.wantLevel-1))
			}

			// Setup installs the logger as the process default.
			assert.Equal(t, logger, slog.Default())
		})
	}
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	attached := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("returns the attached logger", func(t *testing.T) {
		t.Parallel()

		ctx := WithLogger(context.Background(), attached)
		assert.Equal(t, attached, FromContext(ctx))
	})

	t.Run("falls back to the default when none is attached", func(t *testing.T) {
		t.Parallel()

		assert.NotNil(t, FromContext(context.Background()))
	})
}

func TestFromContextOrDefault(t *testing.T) {
	t.Parallel()

	attached := slog.New(slog.NewTextHandler(io.Discard, nil))
	fallback := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("prefers the attached logger", func(t *testing.T) {
		t.Parallel()

		ctx := WithLogger(context.Background(), attached)
		assert.Equal(t, attached, FromContextOrDefault(ctx, fallback))
	})

	t.Run("uses the provided default otherwise", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, fallback, FromContextOrDefault(context.Background(), fallback))
	})

	t.Run("nil default falls back to the process logger", func(t *testing.T) {
		t.Parallel()

		assert.NotNil(t, FromContextOrDefault(context.Background(), nil))
	})
}
