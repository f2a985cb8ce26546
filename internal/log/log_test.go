package log

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T, level Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(level)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
	})
	return &buf
}

func TestParseLevel(t *testing.T) {
	l, ok := ParseLevel(" debug ")
	assert.True(t, ok)
	assert.Equal(t, LevelDebug, l)

	l, ok = ParseLevel("Error")
	assert.True(t, ok)
	assert.Equal(t, LevelError, l)

	l, ok = ParseLevel("verbose")
	assert.False(t, ok)
	assert.Equal(t, LevelInfo, l)
}

func TestInfo_FormatsKeyValues(t *testing.T) {
	buf := capture(t, LevelInfo)

	Info("index rebuilt", "sections", 3, "range", "2024-01 to 2024-03", "dangling")

	out := buf.String()
	assert.Contains(t, out, "[INFO] index rebuilt")
	assert.Contains(t, out, " sections=3")
	assert.Contains(t, out, ` range="2024-01 to 2024-03"`)
	assert.NotContains(t, out, "dangling")
}

func TestError_PrependsErr(t *testing.T) {
	buf := capture(t, LevelInfo)

	Error("configure failed", errors.New("bad"), "field", "end")

	assert.Contains(t, buf.String(), "[ERROR] configure failed err=bad field=end")
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t, LevelError)

	Debug("hidden")
	Info("hidden too")
	assert.Empty(t, buf.String())

	SetLevel(LevelDebug)
	Debug("shown")
	assert.Contains(t, buf.String(), "[DEBUG] shown")
}
