package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the interpreter and scripts are available",
	Long: `Verify that the configured interpreter resolves on PATH and that both
scripts exist. Relative script paths resolve against scripts.dir when it is
set, otherwise against the current directory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := requirePipeline(cmd.Context())
		if err != nil {
			return err
		}
		executor := ExecutorFromContext(cmd.Context())
		if executor == nil {
			return errors.New("executor not initialized")
		}

		tools := p.Tools()
		w := cmd.OutOrStdout()
		var missing []string

		if path, err := executor.LookPath(tools.Interpreter); err != nil {
			missing = append(missing, tools.Interpreter)
			fmt.Fprintf(w, "  %-12s missing (%s)\n", "interpreter", tools.Interpreter)
		} else {
			fmt.Fprintf(w, "  %-12s ok (%s)\n", "interpreter", path)
		}

		for _, s := range []struct{ name, path string }{
			{"ocr", tools.OCRScript},
			{"review", tools.ReviewScript},
		} {
			if info, err := os.Stat(p.ScriptPath(s.path)); err != nil || info.IsDir() {
				missing = append(missing, s.path)
				fmt.Fprintf(w, "  %-12s missing (%s)\n", s.name, s.path)
			} else {
				fmt.Fprintf(w, "  %-12s ok (%s)\n", s.name, s.path)
			}
		}

		if len(missing) > 0 {
			return errors.New("missing required dependencies: " + formatList(missing))
		}
		return nil
	},
}

// formatList joins strings with commas and "and" before the last item.
func formatList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		var builder strings.Builder
		for i, item := range items {
			if i == len(items)-1 {
				builder.WriteString("and ")
				builder.WriteString(item)
			} else {
				builder.WriteString(item)
				builder.WriteString(", ")
			}
		}
		return builder.String()
	}
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
