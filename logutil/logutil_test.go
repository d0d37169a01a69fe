package logutil

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, slog.LevelInfo)

	Trace(l, "hidden")
	l.Debug("hidden")
	l.Info("shown", "budget", 4)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "budget=4")
	assert.NotContains(t, buf.String(), "source=")

	buf.Reset()
	l = NewLogger(&buf, LevelTrace)
	Trace(l, "step", "iteration", 3)
	assert.Contains(t, buf.String(), "level=TRACE")
	assert.Contains(t, buf.String(), "logutil.go")
}
