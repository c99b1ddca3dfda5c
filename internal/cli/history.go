package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/stitch/internal/manifest"
)

var historyLimit int

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent builds from the build ledger",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
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

		runs, err := ledger.ListRuns(historyLimit)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), formatRuns(runs))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of runs to show")
}

// formatRuns renders runs newest first, one block per run.
func formatRuns(runs []*manifest.Run) string {
	if len(runs) == 0 {
		return mutedStyle.Render("No builds recorded") + "\n"
	}

	var b strings.Builder
	for _, run := range runs {
		status := run.Status
		switch run.Status {
		case manifest.StatusOK:
			status = okStyle.Render(status)
		case manifest.StatusPartial:
			status = warnStyle.Render(status)
		default:
			status = failStyle.Render(status)
		}
		fmt.Fprintf(&b, "%s  %s  %s  ok=%d failed=%d diagnostics=%d (%.1fs)\n",
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.ID, status,
			run.EntriesOK, run.EntriesFailed, run.Diagnostics,
			run.FinishedAt.Sub(run.StartedAt).Seconds())
		for _, e := range run.Entries {
			if e.Error != "" {
				fmt.Fprintf(&b, "    %s %s: %s\n", failStyle.Render("✗"), e.Entry, e.Error)
				continue
			}
			fmt.Fprintf(&b, "    %s %s -> %s (%d symbols)\n", okStyle.Render("✓"), e.Entry, e.Output, e.Symbols)
		}
	}
	return b.String()
}
