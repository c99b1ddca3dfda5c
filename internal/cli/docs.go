package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/mvp-joe/stitch/internal/docs"
	"github.com/mvp-joe/stitch/internal/pipeline"
)

var (
	rawFlag    bool
	prefixFlag string
)

// docsCmd groups the documentation browsing commands
var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Browse generated documentation",
	Long: `Browse the documentation pages written by the last build.

Examples:
  # List documented symbols
  stitch docs list

  # Show the page of one symbol
  stitch docs show ChatManager
`,
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documented symbols",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		gen, err := docsGenerator()
		if err != nil {
			return err
		}
		syms, err := gen.Symbols()
		if err != nil {
			return err
		}
		for _, s := range filterPrefix(syms, prefixFlag) {
			fmt.Fprintln(cmd.OutOrStdout(), s)
		}
		return nil
	},
}

var docsShowCmd = &cobra.Command{
	Use:   "show <symbol>",
	Short: "Show the documentation page of a symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gen, err := docsGenerator()
		if err != nil {
			return err
		}
		page, err := gen.Page(args[0])
		if err != nil {
			return err
		}
		if rawFlag {
			fmt.Fprint(cmd.OutOrStdout(), page)
			return nil
		}
		out, err := renderMarkdown(page)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(docsCmd)
	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsShowCmd)
	docsListCmd.Flags().StringVar(&prefixFlag, "prefix", "", "Only list symbols starting with this prefix")
	docsShowCmd.Flags().BoolVar(&rawFlag, "raw", false, "Print the markdown source instead of rendering it")
}

func docsGenerator() (*docs.Generator, error) {
	root, err := projectRoot()
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return nil, err
	}
	return pipeline.New(cfg, root, pipeline.WithLogger(logger)).Docs(), nil
}

func renderMarkdown(page string) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := renderer.Render(page)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}

func filterPrefix(syms []string, prefix string) []string {
	if prefix == "" {
		return syms
	}
	var out []string
	for _, s := range syms {
		if strings.HasPrefix(s, prefix) {
			out = append(out, s)
		}
	}
	return out
}
