package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tinylink.log")

	l, err := New(Config{Level: "info", Encoding: "json", File: path})
	require.NoError(t, err)

	l.Info("link created")
	l.Debug("below threshold")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"link created"`)
	assert.False(t, strings.Contains(string(data), "below threshold"))
}

func TestFromAppConfig(t *testing.T) {
	dev := FromAppConfig("development", "", "")
	assert.True(t, dev.Development)
	assert.Equal(t, "console", dev.Encoding)
	assert.Equal(t, "debug", dev.Level)

	prod := FromAppConfig("production", "", "/var/log/tinylink.log")
	assert.False(t, prod.Development)
	assert.Equal(t, "json", prod.Encoding)
	assert.Equal(t, "info", prod.Level)
	assert.Equal(t, "/var/log/tinylink.log", prod.File)

	assert.Equal(t, "warn", FromAppConfig("production", "warn", "").Level)
}

func TestL_DefaultsWithoutInit(t *testing.T) {
	assert.NotNil(t, L())
}
