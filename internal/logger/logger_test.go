package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l, err := New(&buf, "info", "json")
	require.NoError(t, err)

	l.Info("🏠 房间已创建", "room", "ABC123")
	l.Debug("hidden")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "ABC123", line["room"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNew_InvalidOptions(t *testing.T) {
	t.Parallel()

	_, err := New(&bytes.Buffer{}, "loud", "text")
	assert.Error(t, err)

	_, err = New(&bytes.Buffer{}, "info", "xml")
	assert.Error(t, err)
}

func TestNew_LogfmtFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l, err := New(&buf, "DEBUG", "logfmt")
	require.NoError(t, err)

	l.Debug("tick", "round", 3)
	assert.Contains(t, buf.String(), "round=3")
}
