package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mvp-joe/stitch/internal/config"
	"github.com/mvp-joe/stitch/internal/manifest"
)

var (
	cfgFile string
	rootDir string
	verbose bool

	logger = zap.NewNop()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stitch",
	Short: "Bundle dependency-resolved scripts and document their symbols",
	Long: `stitch builds one script per entry unit by resolving the public symbols the
entry refers to, following references and inheritance across a directory of
one-symbol-per-file source units, and concatenating them in dependency order.
It can also write a markdown page for every resolved symbol from its doc comments.

Configuration is read from .stitch/config.yml in the project directory and
can be overridden with STITCH_* environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logCfg := zap.NewProductionConfig()
		if verbose {
			logCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = logCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .stitch/config.yml in the project directory)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "C", "", "project directory (default is the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// projectRoot returns the absolute project directory.
func projectRoot() (string, error) {
	if rootDir != "" {
		return filepath.Abs(rootDir)
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return dir, nil
}

// loadConfig loads and validates the project configuration.
func loadConfig(root string) (*config.Config, error) {
	var opts []config.LoaderOption
	if cfgFile != "" {
		opts = append(opts, config.WithConfigFile(cfgFile))
	}
	cfg, err := config.NewLoader(root, opts...).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// openLedger opens the build ledger named by cfg.
func openLedger(cfg *config.Config, root string) (*manifest.Store, error) {
	store, err := manifest.Open(config.Resolve(root, cfg.ManifestPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open build ledger: %w", err)
	}
	return store, nil
}
