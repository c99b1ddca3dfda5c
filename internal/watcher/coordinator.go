package watcher

import (
	"context"

	"go.uber.org/zap"
)

// Coordinator routes batches of changed files from a Watcher to a Builder.
// Builds run one at a time on the watcher's goroutine, and the watcher is
// paused while a build runs so changes made meanwhile form the next batch.
type Coordinator struct {
	files   Watcher
	builder Builder
	logger  *zap.Logger
}

// NewCoordinator creates a coordinator.
func NewCoordinator(files Watcher, builder Builder, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{files: files, builder: builder, logger: logger}
}

// Run starts the watcher and blocks until ctx is cancelled, then stops it.
func (c *Coordinator) Run(ctx context.Context) error {
	if err := c.files.Start(ctx, func(files []string) { c.handleFileChange(ctx, files) }); err != nil {
		c.cleanup()
		return err
	}

	<-ctx.Done()
	c.cleanup()
	return ctx.Err()
}

func (c *Coordinator) cleanup() {
	if err := c.files.Stop(); err != nil {
		c.logger.Warn("watcher stop failed", zap.Error(err))
	}
}

// handleFileChange runs one build for a batch of changed files.
func (c *Coordinator) handleFileChange(ctx context.Context, files []string) {
	if len(files) == 0 || ctx.Err() != nil {
		return
	}

	c.files.Pause()
	defer c.files.Resume()

	c.logger.Info("change detected", zap.Int("files", len(files)), zap.Strings("paths", files))
	if err := c.builder.Build(ctx, files); err != nil {
		c.logger.Error("build failed", zap.Error(err))
	}
}
