package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"hyperlane-registration/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithOutput(config.LogConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.WithField("seq", 1).Warn("shown")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, float64(1), entry["seq"])
}

func TestNewDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithOutput(config.LogConfig{}, &buf)
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.False(t, logger.ReportCaller)

	logger.Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestNewDebugReportsCaller(t *testing.T) {
	logger, err := NewWithOutput(config.LogConfig{Level: "debug"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.True(t, logger.ReportCaller)
}

func TestNewRejectsInvalid(t *testing.T) {
	_, err := NewWithOutput(config.LogConfig{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)

	_, err = NewWithOutput(config.LogConfig{Format: "xml"}, &bytes.Buffer{})
	assert.Error(t, err)
}
