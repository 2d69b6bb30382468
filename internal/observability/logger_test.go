package observability

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesKeyValues(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOptions(LoggerOptions{LogLevel: "debug", Console: &buf, NoColor: true})

	logger.ForComponent("discovery").Info("Page parsed", "page", 2, "posts", 20)

	out := buf.String()
	assert.Contains(t, out, "Page parsed")
	assert.Contains(t, out, "component=discovery")
	assert.Contains(t, out, "page=2")
	assert.Contains(t, out, "posts=20")
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOptions(LoggerOptions{LogLevel: "warn", Console: &buf, NoColor: true})

	logger.Info("hidden")
	logger.Warn("visible")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "visible")
}

func TestLoggerFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scraper.log")
	logger := NewLoggerWithOptions(LoggerOptions{LogPath: path, LogLevel: "info"})

	logger.Error("State flush failed", "url", "https://example.com/p.html")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"State flush failed"`)
	assert.Contains(t, string(data), `"url":"https://example.com/p.html"`)
}
