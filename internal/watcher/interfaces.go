package watcher

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Watcher monitors build inputs for changes with debouncing and pause/resume support.
type Watcher interface {
	// Start begins watching, calling callback with each batch of changed files.
	Start(ctx context.Context, callback func(files []string)) error

	// Stop stops the watcher and cleans up resources.
	Stop() error

	// Pause stops firing callbacks but continues accumulating events.
	Pause()

	// Resume resumes firing callbacks. If events accumulated during pause, fires immediately.
	Resume()
}

// Builder runs a build in response to changed files.
type Builder interface {
	Build(ctx context.Context, files []string) error
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc func(ctx context.Context, files []string) error

// Build implements Builder.
func (f BuilderFunc) Build(ctx context.Context, files []string) error { return f(ctx, files) }

// Options configures a watcher.
type Options struct {
	// Extensions to monitor, e.g. []string{".js"}. Empty monitors every file.
	Extensions []string
	// Debounce is the quiet period before firing for event-driven watchers.
	Debounce time.Duration
	// Interval is the polling period for the polling watcher.
	Interval time.Duration
	Logger   *zap.Logger
}

const (
	defaultDebounce = 500 * time.Millisecond
	defaultInterval = 500 * time.Millisecond
)

func (o Options) withDefaults() Options {
	if o.Debounce <= 0 {
		o.Debounce = defaultDebounce
	}
	if o.Interval <= 0 {
		o.Interval = defaultInterval
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

func extensionSet(extensions []string) map[string]bool {
	set := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		set[ext] = true
	}
	return set
}
