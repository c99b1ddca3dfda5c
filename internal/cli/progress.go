package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mvp-joe/stitch/internal/pipeline"
)

// CLIProgressReporter implements pipeline.ProgressReporter with progress bars.
type CLIProgressReporter struct {
	quiet    bool
	out      io.Writer
	entryBar *progressbar.ProgressBar
}

// NewCLIProgressReporter creates a new CLI progress reporter writing to stderr.
func NewCLIProgressReporter(quiet bool) *CLIProgressReporter {
	return &CLIProgressReporter{quiet: quiet, out: os.Stderr}
}

func (c *CLIProgressReporter) OnDiscoveryStart() {
	if c.quiet {
		return
	}
	fmt.Fprintln(c.out, "Discovering units...")
}

func (c *CLIProgressReporter) OnDiscoveryComplete(units, entries int) {
	if c.quiet {
		return
	}
	fmt.Fprintf(c.out, "Found %d source units and %d entries\n", units, entries)
}

func (c *CLIProgressReporter) OnEntryProcessingStart(totalEntries int) {
	if c.quiet || totalEntries == 0 {
		return
	}
	c.entryBar = progressbar.NewOptions(totalEntries,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSetDescription("Bundling entries"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("entries/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(c.out)
		}),
	)
}

func (c *CLIProgressReporter) OnEntryProcessed(entry string) {
	if c.quiet {
		return
	}
	if c.entryBar != nil {
		c.entryBar.Add(1)
	}
}

func (c *CLIProgressReporter) OnDocsStart(pages int) {
	if c.quiet {
		return
	}
	if c.entryBar != nil {
		c.entryBar.Finish()
		c.entryBar = nil
	}
	fmt.Fprintf(c.out, "Writing %d documentation pages...\n", pages)
}

func (c *CLIProgressReporter) OnComplete(report *pipeline.Report) {
	if c.entryBar != nil {
		c.entryBar.Finish()
		c.entryBar = nil
	}
}
