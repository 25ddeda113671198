package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger("debug", "json", &buf)
	require.NoError(t, err)

	Component(log, "gate").WithField("attempt", 3).Debug("probe failed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "gate", entry["component"])
	assert.Equal(t, float64(3), entry["attempt"])
	assert.Equal(t, "probe failed", entry["msg"])
	assert.Equal(t, "debug", entry["level"])
}

func TestNewLogger_Defaults(t *testing.T) {
	log, err := NewLogger("", "", &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}

func TestNewLogger_Invalid(t *testing.T) {
	_, err := NewLogger("chatty", "text", &bytes.Buffer{})
	assert.Error(t, err)

	_, err = NewLogger("info", "xml", &bytes.Buffer{})
	assert.Error(t, err)
}
