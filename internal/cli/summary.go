package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mvp-joe/stitch/internal/diag"
	"github.com/mvp-joe/stitch/internal/manifest"
	"github.com/mvp-joe/stitch/internal/pipeline"
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A")).Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E57373")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB74D"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8F98"))
)

// formatSummary renders a run report for the terminal. Paths are shown
// relative to root when possible.
func formatSummary(report *pipeline.Report, root string) string {
	var b strings.Builder

	if report.Skipped {
		b.WriteString(mutedStyle.Render("No input changes since the last successful build"))
		b.WriteString("\n")
		return b.String()
	}

	for _, e := range report.Entries {
		if e.Err != nil {
			fmt.Fprintf(&b, "%s %s: %v\n", failStyle.Render("✗"), e.Entry, e.Err)
			continue
		}
		fmt.Fprintf(&b, "%s %s -> %s (%d symbols)\n", okStyle.Render("✓"), e.Entry, relPath(root, e.Output), len(e.Order))
	}

	if len(report.DocPaths) > 0 {
		fmt.Fprintf(&b, "%s %d documentation files\n", okStyle.Render("✓"), len(report.DocPaths))
	}

	if len(report.Diagnostics) > 0 {
		counts := make(map[diag.Kind]int)
		for _, d := range report.Diagnostics {
			counts[d.Kind]++
		}
		parts := make([]string, 0, len(counts))
		for _, k := range diag.SortedKinds(counts) {
			parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
		}
		fmt.Fprintf(&b, "%s %d diagnostics: %s\n", warnStyle.Render("!"), len(report.Diagnostics), strings.Join(parts, ", "))
	}

	elapsed := report.FinishedAt.Sub(report.StartedAt).Seconds()
	line := fmt.Sprintf("Built %d of %d entries from %d units in %.1fs", report.OK(), len(report.Entries), report.Units, elapsed)
	switch report.Status() {
	case manifest.StatusOK:
		b.WriteString(okStyle.Render(line))
	case manifest.StatusPartial:
		b.WriteString(warnStyle.Render(line))
	default:
		b.WriteString(failStyle.Render(line))
	}
	b.WriteString("\n")
	return b.String()
}

func relPath(root, path string) string {
	if root == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
