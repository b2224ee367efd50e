package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	ocrexec "github.com/jmgilman/ocrrun/internal/exec"
	"github.com/jmgilman/ocrrun/internal/pipeline"
	"github.com/jmgilman/ocrrun/internal/prompt"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr [pdf]",
	Short: "Run the OCR script over a PDF",
	Long: `Run the OCR script over a PDF file.

The script receives the PDF path, --output_folder and, when requested,
--no-csv. It writes its own result files into the output folder; ocrrun
only reports what it prints.

When the PDF path is omitted on an interactive terminal, ocrrun asks for it.`,
	Example: `  # OCR a scan into the configured output folder
  ocrrun ocr invoices/2024-03.pdf

  # Choose the output folder and skip CSV output
  ocrrun ocr scan.pdf --output-folder ./out --no-csv

  # Pass an extra option straight to the script
  ocrrun ocr scan.pdf --script-opt lang=deu

  # Keep a copy of everything the script printed
  ocrrun ocr scan.pdf --save-report ocr.log`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOCRCmd,
}

func runOCRCmd(cmd *cobra.Command, args []string) error {
	req, err := buildOCRRequest(cmd, args, promptFor())
	if err != nil {
		return err
	}

	return runOperation(cmd, "ocr", func(ctx context.Context, p *pipeline.Pipeline, onLine func(ocrexec.Line)) (*ocrexec.Result, error) {
		return p.RunOCR(ctx, req, onLine)
	})
}

// buildOCRRequest resolves the request from arguments, flags, config
// defaults and, when pr is non-nil, interactive prompts.
func buildOCRRequest(cmd *cobra.Command, args []string, pr prompt.Prompter) (*pipeline.OCRRequest, error) {
	req := &pipeline.OCRRequest{}
	if len(args) > 0 {
		req.PDFPath = args[0]
	}

	outputFolder, err := cmd.Flags().GetString("output-folder")
	if err != nil {
		return nil, fmt.Errorf("get output-folder flag: %w", err)
	}
	req.OutputFolder = outputFolder

	noCSV, err := cmd.Flags().GetBool("no-csv")
	if err != nil {
		return nil, fmt.Errorf("get no-csv flag: %w", err)
	}
	req.NoCSV = noCSV

	cfg := ConfigFromContext(cmd.Context())
	if req.OutputFolder == "" && cfg != nil {
		req.OutputFolder = cfg.OCR.OutputFolder
	}

	var configured map[string]any
	if cfg != nil {
		configured = cfg.OCR.ExtraFlags
	}
	if req.Options, err = scriptOptions(cmd, configured); err != nil {
		return nil, err
	}
	noCSVSet := cmd.Flags().Changed("no-csv")
	if !noCSVSet && cfg != nil {
		req.NoCSV = cfg.OCR.NoCSV
	}

	if req.PDFPath == "" {
		if pr == nil {
			return nil, errors.New("a PDF path is required")
		}
		req.PDFPath, err = pr.Input("PDF file", "path/to/document.pdf", prompt.NotEmpty)
		if err != nil {
			return nil, err
		}

		// Only ask about CSV output when neither the command line nor a
		// configured ocr.no_csv decided it.
		if !noCSVSet && !req.NoCSV {
			writeCSV, err := pr.Confirm("Write CSV output?", "The OCR script writes a CSV of recognized text unless told not to.")
			if err != nil {
				return nil, err
			}
			req.NoCSV = !writeCSV
		}
	}

	return req, nil
}

// promptFor returns a prompter when the session is interactive.
func promptFor() prompt.Prompter {
	if !isInteractive() {
		return nil
	}
	return prompt.New()
}

func init() {
	rootCmd.AddCommand(ocrCmd)
	addOCRFlags(ocrCmd)
}

func addOCRFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output-folder", "o", "", "folder for OCR results (default from config ocr.output_folder)")
	cmd.Flags().Bool("no-csv", false, "tell the OCR script not to write CSV output")
	addScriptOptFlag(cmd)
	addOutputFlags(cmd)
}
