package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mvp-joe/stitch/internal/pipeline"
	"github.com/mvp-joe/stitch/internal/watcher"
)

// ErrBuildFailed indicates no entry produced a bundle.
var ErrBuildFailed = errors.New("build failed")

var (
	quietFlag     bool
	watchFlag     bool
	pollFlag      bool
	ifChangedFlag bool
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Resolve and bundle every entry unit",
	Long: `Build discovers the source units and entry units of the project, resolves
the symbols each entry needs and writes one bundle per entry. Documentation
pages are written for every resolved symbol unless generate_docs is false.

Each run is recorded in the build ledger (see 'stitch history').

Examples:
  # Build the project in the current directory
  stitch build

  # Skip the build when no input changed since the last successful run
  stitch build --if-changed

  # Rebuild whenever a source or entry unit changes
  stitch build --watch

  # Watch by polling, for file systems without change notifications
  stitch build --watch --poll
`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable progress bars and non-error output")
	buildCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch for file changes and rebuild")
	buildCmd.Flags().BoolVar(&pollFlag, "poll", false, "Detect changes by polling instead of file system events")
	buildCmd.Flags().BoolVar(&ifChangedFlag, "if-changed", false, "Skip the build when no input changed since the last successful run")
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root, err := projectRoot()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	ledger, err := openLedger(cfg, root)
	if err != nil {
		return err
	}
	defer ledger.Close()

	p := pipeline.New(cfg, root,
		pipeline.WithLogger(logger),
		pipeline.WithProgress(NewCLIProgressReporter(quietFlag)),
		pipeline.WithLedger(ledger),
	)

	var report *pipeline.Report
	if ifChangedFlag {
		report, err = p.RunIfChanged(ctx)
	} else {
		report, err = p.Run(ctx)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	printSummary(report, root)

	if !watchFlag {
		return buildError(report)
	}
	return watch(ctx, p, root)
}

// buildError returns ErrBuildFailed when entries were built and none succeeded.
func buildError(report *pipeline.Report) error {
	if report.Skipped || len(report.Entries) == 0 || report.OK() > 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d entries failed", ErrBuildFailed, report.Failed(), len(report.Entries))
}

func printSummary(report *pipeline.Report, root string) {
	if quietFlag {
		return
	}
	fmt.Print(formatSummary(report, root))
}

// watch rebuilds on every input change until ctx is cancelled.
func watch(ctx context.Context, p *pipeline.Pipeline, root string) error {
	dirs, err := existingDirs(p.Fs(), p.InputDirs())
	if err != nil {
		return err
	}
	if len(dirs) == 0 {
		return errors.New("no source or entry directory exists to watch")
	}

	cfg := p.Config()
	var w watcher.Watcher
	if pollFlag {
		w, err = watcher.NewPollWatcher(p.Fs(), dirs, watcher.Options{
			Interval: cfg.Watch.PollInterval(),
			Logger:   logger,
		})
	} else {
		w, err = watcher.NewFileWatcher(dirs, watcher.Options{
			Debounce: cfg.Watch.Debounce(),
			Logger:   logger,
		})
	}
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	builder := watcher.BuilderFunc(func(ctx context.Context, files []string) error {
		logger.Info("rebuilding", zap.Int("changed", len(files)))
		report, err := p.RunIfChanged(ctx)
		if err != nil {
			return err
		}
		printSummary(report, root)
		return nil
	})

	if !quietFlag {
		fmt.Println("Watching for changes (Ctrl+C to stop)...")
	}
	err = watcher.NewCoordinator(w, builder, logger).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func existingDirs(fs afero.Fs, dirs []string) ([]string, error) {
	var out []string
	for _, dir := range dirs {
		ok, err := afero.DirExists(fs, dir)
		if err != nil {
			return nil, fmt.Errorf("failed to check %s: %w", dir, err)
		}
		if ok {
			out = append(out, dir)
		}
	}
	return out, nil
}
