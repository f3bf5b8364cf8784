package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", "json")

	log.With("component", "billing").Info("intent created", "amount_cents", 49500)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "intent created", entry["msg"])
	assert.Equal(t, "billing", entry["component"])
	assert.Equal(t, float64(49500), entry["amount_cents"])
}

func TestNewWithWriter_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn", "text")

	log.Info("hidden")
	log.Debug("hidden")
	assert.Empty(t, buf.String())

	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestDiscard(t *testing.T) {
	log := Discard()
	log.Error("nothing happens")
}
