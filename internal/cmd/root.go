// Package cmd implements the ocrrun CLI commands using Cobra.
// It exposes the OCR and accuracy-review operations, each of which runs an
// external script and reports what it printed.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmgilman/ocrrun/internal/config"
	ocrexec "github.com/jmgilman/ocrrun/internal/exec"
	"github.com/jmgilman/ocrrun/internal/pipeline"
	"github.com/jmgilman/ocrrun/internal/slogger"
)

var rootCmd = &cobra.Command{
	Use:   "ocrrun",
	Short: "Run OCR and accuracy reviews through external scripts",
	Long: `ocrrun drives an OCR toolchain from the command line.

Each operation launches the configured interpreter on an external script,
streams what the script prints, and reports the combined output. Lines the
script writes to standard error are marked with "ERROR: ".`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().String("config", "", "path to config file (default ~/.config/ocrrun/config.yaml)")
}

// setup loads configuration and stores shared dependencies in the command
// context for subcommands.
func setup(cmd *cobra.Command, _ []string) error {
	verbosity, err := cmd.Flags().GetCount("verbose")
	if err != nil {
		return fmt.Errorf("get verbose flag: %w", err)
	}

	logger := slogger.New(slogger.Config{Verbosity: verbosity, Output: cmd.ErrOrStderr()})
	ctx := slogger.WithLogger(cmd.Context(), logger)

	loader, err := newLoader(cmd)
	if err != nil {
		return err
	}

	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger.Debug("loaded config", "path", loader.Path())

	executor := ocrexec.New()
	p, err := pipeline.New(executor, toolsFromConfig(cfg), cfg.Scripts.Dir)
	if err != nil {
		return err
	}

	ctx = WithConfig(ctx, cfg)
	ctx = WithExecutor(ctx, executor)
	ctx = WithPipeline(ctx, p)
	cmd.SetContext(ctx)

	return nil
}

func newLoader(cmd *cobra.Command) (*config.Loader, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("get config flag: %w", err)
	}

	var loader *config.Loader
	if path != "" {
		loader, err = config.NewLoaderAt(path)
	} else {
		loader, err = config.NewLoader()
	}
	if err != nil {
		return nil, fmt.Errorf("init config loader: %w", err)
	}
	return loader, nil
}

func toolsFromConfig(cfg *config.Config) pipeline.Tools {
	return pipeline.Tools{
		Interpreter:  cfg.Interpreter.Program,
		OCRScript:    cfg.Scripts.OCR,
		ReviewScript: cfg.Scripts.Review,
	}
}

// isInteractive reports whether prompts can be shown.
func isInteractive() bool {
	return isTerminal(os.Stdin) && isTerminal(os.Stdout)
}
