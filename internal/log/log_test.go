package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	require.NotNil(t, New(Config{}))
}

func TestNewWithWriterText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{Level: slog.LevelDebug})

	logger.Info("ingested document", "id", "docs/deploy.md")

	out := buf.String()
	assert.Contains(t, out, "ingested document")
	assert.Contains(t, out, "id=docs/deploy.md")
}

func TestNewWithWriterJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{Level: slog.LevelInfo, JSON: true})

	logger.Info("routed turn", "decision", "kb_only")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "routed turn", record["msg"])
	assert.Equal(t, "kb_only", record["decision"])
}

func TestNewWithWriterAddSource(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{Level: slog.LevelInfo, AddSource: true})

	logger.Info("with source")

	assert.Contains(t, buf.String(), "log_test.go", "records carry file:line when AddSource is set")
}

func TestNewNopDiscards(t *testing.T) {
	t.Parallel()

	logger := NewNop()
	require.NotNil(t, logger)

	logger.Info("discarded")
	logger.Error("also discarded")
}

func TestWithNarrowsComponent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{Level: slog.LevelInfo})

	logger.With("component", "retriever").Info("searching")

	assert.Contains(t, buf.String(), "component=retriever")
}

func TestLevelFiltering(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		level     slog.Level
		wantDebug bool
	}{
		{name: "debug level keeps debug records", level: slog.LevelDebug, wantDebug: true},
		{name: "info level drops debug records", level: slog.LevelInfo, wantDebug: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := NewWithWriter(&buf, Config{Level: tt.level})

			logger.Debug("debug record")
			logger.Info("info record")

			out := buf.String()
			assert.Contains(t, out, "info record")
			if tt.wantDebug {
				assert.Contains(t, out, "debug record")
			} else {
				assert.NotContains(t, out, "debug record")
			}
		})
	}
}
