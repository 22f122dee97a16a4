package pipeline

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoOpProgressCallback(t *testing.T) {
	var cb ProgressCallback = NoOpProgressCallback{}
	cb.OnStart(3)
	cb.OnImage(1, 3, "a.png", &ImageResult{})
	cb.OnError("b.png", assert.AnError)
	cb.OnComplete()
}

func TestConsoleProgressCallback(t *testing.T) {
	var buf bytes.Buffer
	cb := NewConsoleProgressCallback(&buf, "grains: ").WithWidth(10).WithUpdateInterval(0)

	cb.OnStart(4)
	assert.Contains(t, buf.String(), "grains: 0/4 images")

	buf.Reset()
	cb.OnImage(2, 4, "a.png", &ImageResult{Measured: 7})
	out := buf.String()
	assert.Contains(t, out, "2/4")
	assert.Contains(t, out, "50.0%")
	assert.Contains(t, out, "7 grains")

	buf.Reset()
	cb.OnImage(3, 4, "b.png", nil)
	assert.Contains(t, buf.String(), "7 grains")

	buf.Reset()
	cb.OnError("c.png", assert.AnError)
	assert.Contains(t, buf.String(), "Error in c.png")

	buf.Reset()
	cb.OnComplete()
	assert.Contains(t, buf.String(), "grains: Completed")
}

func TestConsoleProgressCallback_Throttles(t *testing.T) {
	var buf bytes.Buffer
	cb := NewConsoleProgressCallback(&buf, "").WithUpdateInterval(time.Hour)
	cb.OnStart(10)

	buf.Reset()
	cb.OnImage(1, 10, "a", &ImageResult{})
	assert.NotEmpty(t, buf.String())

	buf.Reset()
	cb.OnImage(2, 10, "b", &ImageResult{})
	assert.Empty(t, buf.String())

	cb.OnImage(10, 10, "c", &ImageResult{})
	assert.Contains(t, buf.String(), "10/10")
}

func TestLogProgressCallback(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	cb := NewLogProgressCallback(logger, slog.LevelInfo)

	cb.OnStart(2)
	assert.Contains(t, buf.String(), "images=2")

	buf.Reset()
	cb.OnImage(1, 2, "a.png", &ImageResult{Measured: 3})
	assert.Contains(t, buf.String(), "image=a.png")
	assert.Contains(t, buf.String(), "measured=3")

	buf.Reset()
	cb.OnImage(2, 2, "b.png", nil)
	assert.Empty(t, buf.String())

	cb.OnError("b.png", assert.AnError)
	assert.Contains(t, buf.String(), "level=ERROR")

	buf.Reset()
	cb.OnComplete()
	assert.Contains(t, buf.String(), "batch completed")
}
