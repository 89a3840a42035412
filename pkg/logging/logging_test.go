package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: " warn ", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestSetup(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := Setup(Options{Level: "warn", Format: "json", Output: &buf})
		require.NoError(t, err)

		logger.Info("hidden")
		slog.Warn("Store cleared", "keys", 4)

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "Store cleared", entry["msg"])
		assert.Equal(t, float64(4), entry["keys"])
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		_, err := Setup(Options{Level: "info", Output: &buf})
		require.NoError(t, err)

		slog.Info("Job saved", "job_number", "JOB-0001")
		assert.Contains(t, buf.String(), "Job saved")
		assert.Contains(t, buf.String(), "JOB-0001")
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := Setup(Options{Format: "xml"})
		assert.Error(t, err)
		_, err = Setup(Options{Level: "loud"})
		assert.Error(t, err)
	})
}
