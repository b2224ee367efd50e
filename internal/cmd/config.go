package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmgilman/ocrrun/internal/config"
	"github.com/jmgilman/ocrrun/internal/slogger"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "View and modify configuration",
	Long: `View and modify ocrrun configuration.

With no arguments, displays all configuration.
With one argument, displays the value for the specified key.
With two arguments, sets the value for the specified key.`,
	Example: `  # Show all config
  ocrrun config

  # Show the interpreter used to run scripts
  ocrrun config interpreter.program

  # Use python3 instead of python
  ocrrun config interpreter.program python3

  # Open config file in editor
  ocrrun config --edit`,
	Args: cobra.RangeArgs(0, 2),
	// Only the loader is needed, so an invalid config can still be fixed here.
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		logger := slogger.New(slogger.Config{Verbosity: verbosity, Output: cmd.ErrOrStderr()})
		ctx := slogger.WithLogger(cmd.Context(), logger)

		loader, err := newLoader(cmd)
		if err != nil {
			return err
		}
		cmd.SetContext(WithLoader(ctx, loader))
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		loader := LoaderFromContext(cmd.Context())
		if loader == nil {
			return errors.New("config loader not initialized")
		}

		editFlag, _ := cmd.Flags().GetBool("edit")
		if editFlag {
			return runEdit(loader)
		}

		switch len(args) {
		case 0:
			return runShowAll(cmd, loader)
		case 1:
			return runShowKey(cmd, loader, args[0])
		case 2:
			return runSetKey(cmd, loader, args[0], args[1])
		}

		return nil
	},
}

func runEdit(loader *config.Loader) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		return config.ErrNoEditor
	}

	// Ensure config exists (Load creates it if missing)
	if _, err := loader.Load(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	//nolint:gosec // G204: the editor is chosen by the user
	editorCmd := exec.Command(editor, loader.Path())
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	return editorCmd.Run()
}

func runShowAll(cmd *cobra.Command, loader *config.Loader) error {
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), string(out))
	return nil
}

func runShowKey(cmd *cobra.Command, loader *config.Loader, key string) error {
	if err := config.ValidateKey(key); err != nil {
		return err
	}

	// Load to ensure file exists
	if _, err := loader.Load(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	value, err := loader.Get(key)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch v := value.(type) {
	case nil:
		fmt.Fprintln(w, "")
	case string:
		fmt.Fprintln(w, v)
	case map[string]any, []any:
		out, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal value: %w", err)
		}
		fmt.Fprint(w, string(out))
	default:
		fmt.Fprintln(w, value)
	}

	return nil
}

func runSetKey(cmd *cobra.Command, loader *config.Loader, key, value string) error {
	// Load first to ensure file exists
	if _, err := loader.Load(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := loader.Set(key, value); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.Flags().Bool("edit", false, "open config file in $EDITOR")
}
