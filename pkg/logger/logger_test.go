package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_StructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.Info().Int64("account_id", 42).Msg("transfer committed")

	var output map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &output)
	require.NoError(t, err, "logger output should be valid JSON")

	assert.Equal(t, "transfer committed", output["message"])
	assert.Equal(t, float64(42), output["account_id"])
	assert.Equal(t, "info", output["level"])
	assert.Contains(t, output, "time", "should include timestamp")
}

func TestLevelFiltering(t *testing.T) {
	t.Run("debug level keeps debug", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithWriter("debug", &buf)
		log.Debug().Msg("debug msg")
		assert.NotEmpty(t, buf.String())
	})

	t.Run("info level filters debug", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithWriter("info", &buf)
		log.Debug().Msg("should not appear")
		assert.Empty(t, buf.String())
	})

	t.Run("warn level filters info", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithWriter("warn", &buf)
		log.Info().Msg("should not appear")
		assert.Empty(t, buf.String())
		log.Warn().Msg("warn msg")
		assert.NotEmpty(t, buf.String())
	})

	t.Run("unknown level defaults to info", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithWriter("loud", &buf)
		log.Debug().Msg("should not appear")
		assert.Empty(t, buf.String())
		log.Info().Msg("should appear")
		assert.NotEmpty(t, buf.String())
	})
}

func TestNew_PrettyMode(t *testing.T) {
	// Just ensure it doesn't panic — pretty mode writes to stdout.
	log := New("info", true)
	log.Info().Msg("pretty mode test")
}
