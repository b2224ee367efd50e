package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	ocrexec "github.com/jmgilman/ocrrun/internal/exec"
	"github.com/jmgilman/ocrrun/internal/flags"
	"github.com/jmgilman/ocrrun/internal/logging"
	"github.com/jmgilman/ocrrun/internal/names"
	"github.com/jmgilman/ocrrun/internal/pipeline"
	"github.com/jmgilman/ocrrun/internal/slogger"
	"github.com/jmgilman/ocrrun/internal/spinner"
)

// runFunc is one pipeline operation with its request already bound.
type runFunc func(ctx context.Context, p *pipeline.Pipeline, onLine func(ocrexec.Line)) (*ocrexec.Result, error)

func requirePipeline(ctx context.Context) (*pipeline.Pipeline, error) {
	p := PipelineFromContext(ctx)
	if p == nil {
		return nil, errors.New("pipeline not initialized")
	}
	return p, nil
}

func isTerminal(f *os.File) bool {
	return spinner.IsTerminal(f)
}

// addOutputFlags registers the flags shared by every run command.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("save-report", "", "also write the report to this file as it streams")
	cmd.Flags().BoolP("quiet", "q", false, "do not show progress while the script runs")
}

// addScriptOptFlag registers --script-opt for passing extra options through
// to the external script.
func addScriptOptFlag(cmd *cobra.Command) {
	cmd.Flags().StringArray("script-opt", nil, "extra script option as key=value or bare key (repeatable)")
}

// scriptOptions layers --script-opt pairs over the configured extra flags.
func scriptOptions(cmd *cobra.Command, configured map[string]any) (flags.Flags, error) {
	base, err := flags.FromConfig(configured)
	if err != nil {
		return nil, err
	}

	pairs, err := cmd.Flags().GetStringArray("script-opt")
	if err != nil {
		return nil, fmt.Errorf("get script-opt flag: %w", err)
	}
	cli, err := flags.FromPairs(pairs)
	if err != nil {
		return nil, fmt.Errorf("--script-opt: %w", err)
	}

	return flags.Merge(base, cli), nil
}

// runOperation runs fn with progress display and optional report mirroring,
// then prints the report. On a nonzero exit the returned error carries the
// exit status and the full report.
func runOperation(cmd *cobra.Command, operation string, fn runFunc) error {
	ctx := cmd.Context()
	log := slogger.L(ctx)

	p, err := requirePipeline(ctx)
	if err != nil {
		return err
	}

	label := names.RunLabel(operation)
	log.Info("starting run", "label", label)

	savePath, err := cmd.Flags().GetString("save-report")
	if err != nil {
		return fmt.Errorf("get save-report flag: %w", err)
	}
	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("get quiet flag: %w", err)
	}

	var report *logging.ReportWriter
	if savePath != "" {
		report, err = logging.NewReportWriter(savePath)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := report.Close(); cerr != nil {
				log.Error("close report file", "path", savePath, "error", cerr)
			}
		}()
	}

	var spin *spinner.Spinner
	if !quiet && isTerminal(os.Stderr) {
		spin = spinner.New(os.Stderr, label)
		spin.Start()
	}

	onLine := func(line ocrexec.Line) {
		if spin != nil {
			spin.Update(line.Text)
		}
		if report != nil {
			if _, werr := report.WriteString(line.Format()); werr != nil {
				log.Error("write report file", "path", savePath, "error", werr)
			}
		}
	}

	result, runErr := fn(ctx, p, onLine)

	if spin != nil {
		if err := spin.Stop(); err != nil {
			log.Debug("spinner stopped with error", "error", err)
		}
	}

	if runErr != nil {
		logFailure(ctx, label, runErr)
		return runErr
	}

	log.Info("run succeeded", "label", label, "run", result.RunID, "duration", result.Duration)
	return printReport(cmd.OutOrStdout(), result.Report)
}

func logFailure(ctx context.Context, label string, err error) {
	log := slogger.L(ctx)

	var exitErr *ocrexec.ExitError
	switch {
	case errors.As(err, &exitErr):
		log.Info("run failed", "label", label, "status", exitErr.Status)
	case errors.Is(err, ocrexec.ErrSpawn):
		log.Info("could not start script", "label", label)
	case errors.Is(err, ocrexec.ErrWait):
		log.Info("lost track of script", "label", label)
	}
}

func printReport(w io.Writer, report string) error {
	if _, err := io.WriteString(w, report); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
