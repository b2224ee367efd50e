package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmgilman/ocrrun/internal/config"
	ocrexec "github.com/jmgilman/ocrrun/internal/exec"
	"github.com/jmgilman/ocrrun/internal/pipeline"
	"github.com/jmgilman/ocrrun/internal/prompt"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Compare OCR results against ground truth",
	Long: `Run the accuracy review script on an OCR results CSV and a ground-truth JSON.

Boxes are matched when their intersection over union reaches the threshold,
a number between 0 and 1. The script prints its own report.

Missing paths are asked for on an interactive terminal.`,
	Example: `  # Review with the configured threshold
  ocrrun review --ocr-csv out/results.csv --ground-truth truth.json

  # Require tighter box overlap
  ocrrun review --ocr-csv out/results.csv --ground-truth truth.json --iou-threshold 0.75`,
	Args: cobra.NoArgs,
	RunE: runReviewCmd,
}

func runReviewCmd(cmd *cobra.Command, _ []string) error {
	req, err := buildReviewRequest(cmd, promptFor())
	if err != nil {
		return err
	}

	return runOperation(cmd, "review", func(ctx context.Context, p *pipeline.Pipeline, onLine func(ocrexec.Line)) (*ocrexec.Result, error) {
		return p.RunReview(ctx, req, onLine)
	})
}

// buildReviewRequest resolves the request from flags, config defaults and,
// when pr is non-nil, interactive prompts.
func buildReviewRequest(cmd *cobra.Command, pr prompt.Prompter) (*pipeline.ReviewRequest, error) {
	csvPath, err := cmd.Flags().GetString("ocr-csv")
	if err != nil {
		return nil, fmt.Errorf("get ocr-csv flag: %w", err)
	}
	truthPath, err := cmd.Flags().GetString("ground-truth")
	if err != nil {
		return nil, fmt.Errorf("get ground-truth flag: %w", err)
	}
	threshold, err := cmd.Flags().GetFloat64("iou-threshold")
	if err != nil {
		return nil, fmt.Errorf("get iou-threshold flag: %w", err)
	}

	var configured map[string]any
	if cfg := ConfigFromContext(cmd.Context()); cfg != nil {
		if !cmd.Flags().Changed("iou-threshold") {
			threshold = cfg.Review.IoUThreshold
		}
		configured = cfg.Review.ExtraFlags
	}

	opts, err := scriptOptions(cmd, configured)
	if err != nil {
		return nil, err
	}

	req := &pipeline.ReviewRequest{
		OCRCSVPath:          csvPath,
		GroundTruthJSONPath: truthPath,
		IoUThreshold:        threshold,
		Options:             opts,
	}

	if req.OCRCSVPath == "" {
		if pr == nil {
			return nil, errors.New("--ocr-csv is required")
		}
		if req.OCRCSVPath, err = pr.Input("OCR results CSV", "out/results.csv", prompt.NotEmpty); err != nil {
			return nil, err
		}
	}

	if req.GroundTruthJSONPath == "" {
		if pr == nil {
			return nil, errors.New("--ground-truth is required")
		}
		if req.GroundTruthJSONPath, err = pr.Input("Ground-truth JSON", "truth.json", prompt.NotEmpty); err != nil {
			return nil, err
		}
	}

	return req, nil
}

func init() {
	rootCmd.AddCommand(reviewCmd)
	addReviewFlags(reviewCmd)
}

func addReviewFlags(cmd *cobra.Command) {
	cmd.Flags().String("ocr-csv", "", "OCR results CSV produced by the ocr command")
	cmd.Flags().String("ground-truth", "", "ground-truth JSON to compare against")
	cmd.Flags().Float64("iou-threshold", config.DefaultIoUThreshold, "minimum intersection over union for a box match, 0 to 1")
	addScriptOptFlag(cmd)
	addOutputFlags(cmd)
}
