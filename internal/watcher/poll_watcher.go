package watcher

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/mvp-joe/stitch/internal/manifest"
)

// pollWatcher implements Watcher by comparing modification-time snapshots on
// a fixed interval. It works on any afero file system and where file
// notifications are unavailable.
type pollWatcher struct {
	fs          afero.Fs
	dirs        []string
	extensions  map[string]bool
	interval    time.Duration
	logger      *zap.Logger
	callback    func(files []string)
	cancel      context.CancelFunc
	last        manifest.Snapshot
	paused      bool
	accumulated map[string]bool
	mu          sync.Mutex // Protects paused and accumulated
	stopOnce    sync.Once
	doneCh      chan struct{}
}

// NewPollWatcher creates a polling watcher over dirs. The first snapshot is
// taken immediately so only later changes are reported.
func NewPollWatcher(fs afero.Fs, dirs []string, opts Options) (Watcher, error) {
	opts = opts.withDefaults()

	last, err := manifest.TakeSnapshot(fs, dirs...)
	if err != nil {
		return nil, err
	}

	return &pollWatcher{
		fs:          fs,
		dirs:        dirs,
		extensions:  extensionSet(opts.Extensions),
		interval:    opts.Interval,
		logger:      opts.Logger,
		last:        last,
		accumulated: make(map[string]bool),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins polling.
func (pw *pollWatcher) Start(ctx context.Context, callback func(files []string)) error {
	if callback == nil {
		return nil
	}

	pw.callback = callback
	ctx, pw.cancel = context.WithCancel(ctx)

	go pw.poll(ctx)
	return nil
}

// Stop stops polling and waits for the loop to exit.
func (pw *pollWatcher) Stop() error {
	pw.stopOnce.Do(func() {
		if pw.cancel != nil {
			pw.cancel()
			<-pw.doneCh
		} else {
			close(pw.doneCh)
		}
	})
	return nil
}

// Pause stops firing callbacks but continues accumulating changes.
func (pw *pollWatcher) Pause() {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	pw.paused = true
}

// Resume resumes firing callbacks. If changes accumulated during pause, fires immediately.
func (pw *pollWatcher) Resume() {
	pw.mu.Lock()
	wasPaused := pw.paused
	pw.paused = false
	pw.mu.Unlock()

	if wasPaused {
		pw.fire()
	}
}

func (pw *pollWatcher) poll(ctx context.Context) {
	defer close(pw.doneCh)

	ticker := time.NewTicker(pw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pw.check()
		}
	}
}

// check takes a new snapshot and fires for monitored paths that changed.
func (pw *pollWatcher) check() {
	cur, err := manifest.TakeSnapshot(pw.fs, pw.dirs...)
	if err != nil {
		pw.logger.Warn("failed to snapshot watched directories", zap.Error(err))
		return
	}
	changes := manifest.Diff(pw.last, cur)
	pw.last = cur

	pw.mu.Lock()
	for _, path := range changes.Paths() {
		if pw.monitored(path) {
			pw.accumulated[path] = true
		}
	}
	paused := pw.paused
	pw.mu.Unlock()

	if !paused {
		pw.fire()
	}
}

func (pw *pollWatcher) fire() {
	pw.mu.Lock()
	if len(pw.accumulated) == 0 {
		pw.mu.Unlock()
		return
	}
	files := make([]string, 0, len(pw.accumulated))
	for file := range pw.accumulated {
		files = append(files, file)
	}
	pw.accumulated = make(map[string]bool)
	pw.mu.Unlock()

	sort.Strings(files)
	if pw.callback != nil {
		pw.callback(files)
	}
}

func (pw *pollWatcher) monitored(path string) bool {
	if strings.HasPrefix(filepath.Base(path), tempPrefix) {
		return false
	}
	if len(pw.extensions) == 0 {
		return true
	}
	return pw.extensions[filepath.Ext(path)]
}
