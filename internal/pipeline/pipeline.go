// Package pipeline turns OCR and accuracy-review requests into invocations
// of the external scripts and runs them.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/jmgilman/ocrrun/internal/exec"
	"github.com/jmgilman/ocrrun/internal/flags"
	"github.com/jmgilman/ocrrun/internal/slogger"
)

// ErrInvalidRequest is returned when a request fails validation.
var ErrInvalidRequest = errors.New("invalid request")

var validate = validator.New()

// Tools locates the interpreter and the scripts it runs.
type Tools struct {
	Interpreter  string `validate:"required"`
	OCRScript    string `validate:"required"`
	ReviewScript string `validate:"required"`
}

// Invocation is a program together with its ordered arguments.
type Invocation struct {
	Program string
	Args    []string
}

// OCRRequest describes an OCR run over a single PDF.
type OCRRequest struct {
	PDFPath      string `validate:"required,file"`
	OutputFolder string `validate:"required"`
	NoCSV        bool
	// Options are appended after the fixed arguments.
	Options flags.Flags
}

// Validate checks the request fields.
func (r *OCRRequest) Validate() error {
	return validateStruct(r)
}

// Invocation builds the command line for the OCR script. --no-csv is only
// present when NoCSV is set.
func (r *OCRRequest) Invocation(tools Tools) Invocation {
	args := []string{tools.OCRScript, r.PDFPath, "--output_folder", r.OutputFolder}
	opts := flags.Merge(without(r.Options, "output_folder"), flags.Flags{"no-csv": r.NoCSV})
	args = append(args, flags.ToArgs(opts)...)
	return Invocation{Program: tools.Interpreter, Args: args}
}

// ReviewRequest describes an accuracy review of OCR results.
type ReviewRequest struct {
	OCRCSVPath          string  `validate:"required,file"`
	GroundTruthJSONPath string  `validate:"required,file"`
	IoUThreshold        float64 `validate:"gte=0,lte=1"`
	Options             flags.Flags
}

// Validate checks the request fields.
func (r *ReviewRequest) Validate() error {
	return validateStruct(r)
}

// Invocation builds the command line for the accuracy review script.
func (r *ReviewRequest) Invocation(tools Tools) Invocation {
	args := []string{
		tools.ReviewScript,
		"--ocr_csv", r.OCRCSVPath,
		"--ground_truth_json", r.GroundTruthJSONPath,
		"--iou_threshold", strconv.FormatFloat(r.IoUThreshold, 'f', -1, 64),
	}
	args = append(args, flags.ToArgs(without(r.Options, "ocr_csv", "ground_truth_json", "iou_threshold"))...)
	return Invocation{Program: tools.Interpreter, Args: args}
}

// without returns a copy of f minus keys the fixed arguments already carry.
func without(f flags.Flags, keys ...string) flags.Flags {
	out := flags.Merge(f)
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// Pipeline runs requests through an Executor.
type Pipeline struct {
	executor exec.Executor
	tools    Tools
	dir      string
}

// New creates a Pipeline. dir is the working directory for the scripts;
// empty means the current directory. Relative script paths resolve
// against dir inside the child process.
func New(executor exec.Executor, tools Tools, dir string) (*Pipeline, error) {
	if err := validate.Struct(tools); err != nil {
		return nil, fmt.Errorf("invalid tools: %w", err)
	}
	return &Pipeline{executor: executor, tools: tools, dir: dir}, nil
}

// Tools returns the configured tools.
func (p *Pipeline) Tools() Tools {
	return p.tools
}

// ScriptPath returns where a script path points from the caller's point of
// view, taking the scripts' working directory into account.
func (p *Pipeline) ScriptPath(script string) string {
	if p.dir == "" || filepath.IsAbs(script) {
		return script
	}
	return filepath.Join(p.dir, script)
}

// anchor makes user-supplied paths absolute when the scripts run in a
// different directory, so they still name the same files.
func (p *Pipeline) anchor(paths ...*string) error {
	if p.dir == "" {
		return nil
	}
	for _, path := range paths {
		abs, err := filepath.Abs(*path)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", *path, err)
		}
		*path = abs
	}
	return nil
}

// RunOCR validates req, makes sure the output folder exists and runs the
// OCR script. onLine may be nil.
func (p *Pipeline) RunOCR(ctx context.Context, req *OCRRequest, onLine func(exec.Line)) (*exec.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(req.OutputFolder, 0o750); err != nil {
		return nil, fmt.Errorf("create output folder: %w", err)
	}

	anchored := *req
	if err := p.anchor(&anchored.PDFPath, &anchored.OutputFolder); err != nil {
		return nil, err
	}
	req = &anchored

	slogger.L(ctx).Info("running OCR", "pdf", req.PDFPath, "output", req.OutputFolder, "no_csv", req.NoCSV, "options", len(req.Options))
	return p.run(ctx, req.Invocation(p.tools), onLine)
}

// RunReview validates req and runs the accuracy review script. onLine may
// be nil.
func (p *Pipeline) RunReview(ctx context.Context, req *ReviewRequest, onLine func(exec.Line)) (*exec.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	anchored := *req
	if err := p.anchor(&anchored.OCRCSVPath, &anchored.GroundTruthJSONPath); err != nil {
		return nil, err
	}
	req = &anchored

	slogger.L(ctx).Info("running accuracy review",
		"ocr_csv", req.OCRCSVPath,
		"ground_truth", req.GroundTruthJSONPath,
		"iou_threshold", req.IoUThreshold,
	)
	return p.run(ctx, req.Invocation(p.tools), onLine)
}

func (p *Pipeline) run(ctx context.Context, inv Invocation, onLine func(exec.Line)) (*exec.Result, error) {
	result, err := p.executor.Run(ctx, &exec.RunOptions{
		Name:   inv.Program,
		Args:   inv.Args,
		Dir:    p.dir,
		OnLine: onLine,
	})
	if err != nil {
		return result, err
	}

	slogger.L(ctx).Info("run finished", "run", result.RunID, "duration", result.Duration)
	return result, nil
}

func validateStruct(s any) error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s", ErrInvalidRequest, describe(verrs[0]))
		}
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// describe renders the first failing field in words a CLI user can act on.
func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "file":
		return fmt.Sprintf("%s %q is not an existing file", fe.Field(), fe.Value())
	case "gte", "lte":
		return fmt.Sprintf("%s %v must be between 0 and 1", fe.Field(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag())
	}
}
