package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/stitch/internal/mcp"
	"github.com/mvp-joe/stitch/internal/pipeline"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for documentation lookup and entry resolution",
	Long: `Start the Model Context Protocol (MCP) server that lets coding assistants
read the generated documentation and resolve entry units.

The MCP server:
- Lists documented symbols (stitch_list_symbols)
- Returns the documentation page of a symbol (stitch_symbol_doc)
- Resolves an entry without writing a bundle (stitch_resolve)
- Communicates via stdio (standard MCP transport)

Documentation tools read the pages written by the last 'stitch build'.

Example:
  stitch mcp`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	// stdout carries the protocol
	fmt.Fprintf(os.Stderr, "stitch MCP server (%s)\n", root)

	p := pipeline.New(cfg, root, pipeline.WithLogger(logger))
	return mcp.NewServer(mcp.NewPipelineProject(p), Version, logger).Serve(cmd.Context())
}
