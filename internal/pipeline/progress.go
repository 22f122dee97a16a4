package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// ProgressCallback receives progress while a set of images is analyzed.
// Implementations must be safe for concurrent use.
type ProgressCallback interface {
	// OnStart is called once with the number of images.
	OnStart(total int)
	// OnImage is called after each image; res is nil when it failed.
	OnImage(done, total int, name string, res *ImageResult)
	// OnError is called for an image that could not be analyzed.
	OnError(name string, err error)
	// OnComplete is called after the last image.
	OnComplete()
}

// NoOpProgressCallback discards progress.
type NoOpProgressCallback struct{}

func (NoOpProgressCallback) OnStart(int)                             {}
func (NoOpProgressCallback) OnImage(int, int, string, *ImageResult) {}
func (NoOpProgressCallback) OnError(string, error)                  {}
func (NoOpProgressCallback) OnComplete()                            {}

// ConsoleProgressCallback draws a progress bar with a running grain count.
type ConsoleProgressCallback struct {
	writer         io.Writer
	prefix         string
	width          int
	updateInterval time.Duration

	mu         sync.Mutex
	startTime  time.Time
	lastUpdate time.Time
	grains     int
}

// NewConsoleProgressCallback creates a console reporter writing to w
// (os.Stderr when nil).
func NewConsoleProgressCallback(w io.Writer, prefix string) *ConsoleProgressCallback {
	if w == nil {
		w = os.Stderr
	}
	return &ConsoleProgressCallback{
		writer:         w,
		prefix:         prefix,
		width:          40,
		updateInterval: 100 * time.Millisecond,
	}
}

// WithWidth sets the progress bar width.
func (c *ConsoleProgressCallback) WithWidth(width int) *ConsoleProgressCallback {
	c.width = width
	return c
}

// WithUpdateInterval sets the minimum time between redraws.
func (c *ConsoleProgressCallback) WithUpdateInterval(interval time.Duration) *ConsoleProgressCallback {
	c.updateInterval = interval
	return c
}

func (c *ConsoleProgressCallback) OnStart(total int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.startTime = time.Now()
	c.lastUpdate = time.Time{}
	c.grains = 0
	_, _ = fmt.Fprintf(c.writer, "%s0/%d images\n", c.prefix, total)
}

func (c *ConsoleProgressCallback) OnImage(done, total int, _ string, res *ImageResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if res != nil {
		c.grains += res.Measured
	}
	now := time.Now()
	if now.Sub(c.lastUpdate) < c.updateInterval && done < total {
		return
	}
	c.lastUpdate = now
	if total <= 0 {
		return
	}

	filled := c.width * done / total
	bar := strings.Repeat("█", filled) + strings.Repeat("░", c.width-filled)
	status := fmt.Sprintf("\r%s[%s] %d/%d (%.1f%%) %d grains",
		c.prefix, bar, done, total, float64(done)/float64(total)*100, c.grains)
	if elapsed := now.Sub(c.startTime); elapsed > 0 && done > 0 {
		status += fmt.Sprintf(" %.1f img/s", float64(done)/elapsed.Seconds())
	}
	_, _ = fmt.Fprint(c.writer, status)
}

func (c *ConsoleProgressCallback) OnError(name string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, _ = fmt.Fprintf(c.writer, "\n%sError in %s: %v\n", c.prefix, name, err)
}

func (c *ConsoleProgressCallback) OnComplete() {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, _ = fmt.Fprintf(c.writer, "\n%sCompleted in %v\n", c.prefix, time.Since(c.startTime).Round(time.Millisecond))
}

// LogProgressCallback logs one record per image with slog.
type LogProgressCallback struct {
	logger    *slog.Logger
	level     slog.Level
	startTime time.Time
}

// NewLogProgressCallback creates a log-based reporter.
func NewLogProgressCallback(logger *slog.Logger, level slog.Level) *LogProgressCallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogProgressCallback{logger: logger, level: level}
}

func (l *LogProgressCallback) OnStart(total int) {
	l.startTime = time.Now()
	l.logger.Log(context.Background(), l.level, "batch started", "images", total)
}

func (l *LogProgressCallback) OnImage(done, total int, name string, res *ImageResult) {
	if res == nil {
		return
	}
	l.logger.Log(context.Background(), l.level, "image analyzed",
		"image", name,
		"done", done,
		"total", total,
		"measured", res.Measured,
		"discarded", res.Discarded,
		"failed", res.Failed,
	)
}

func (l *LogProgressCallback) OnError(name string, err error) {
	l.logger.Error("image failed", "image", name, "error", err)
}

func (l *LogProgressCallback) OnComplete() {
	l.logger.Log(context.Background(), l.level, "batch completed", "elapsed", time.Since(l.startTime).Round(time.Millisecond))
}
