package exec

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jmgilman/ocrrun/internal/slogger"
)

type executor struct{}

// New returns a new Executor that uses os/exec.
func New() Executor {
	return &executor{}
}

func (e *executor) Run(ctx context.Context, opts *RunOptions) (*Result, error) {
	log := slogger.L(ctx)
	runID := uuid.New().String()

	// G204: This is intentional - we're an executor that runs user-specified commands.
	cmd := exec.Command(opts.Name, opts.Args...) //nolint:gosec // Intentional subprocess execution
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &SpawnError{Name: opts.Name, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &SpawnError{Name: opts.Name, Err: err}
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Name: opts.Name, Err: err}
	}
	log.Debug("spawned process", "run", runID, "program", opts.Name, "args", opts.Args, "pid", cmd.Process.Pid)

	lines := make(chan Line)
	var wg sync.WaitGroup
	wg.Add(2)
	go readLines(stdout, Stdout, lines, &wg)
	go readLines(stderr, Stderr, lines, &wg)
	go func() {
		wg.Wait()
		close(lines)
	}()

	var report strings.Builder
	for line := range lines {
		if opts.OnLine != nil {
			opts.OnLine(line)
		}
		report.WriteString(line.Format())
	}

	// Both pipes are drained, so Wait will not discard unread output.
	waitErr := cmd.Wait()
	duration := time.Since(start)

	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return nil, &WaitError{Name: opts.Name, Err: waitErr, Report: report.String()}
		}
	}

	state := cmd.ProcessState
	result := &Result{
		RunID:    runID,
		Report:   report.String(),
		ExitCode: state.ExitCode(),
		Status:   state.String(),
		Duration: duration,
	}
	log.Debug("process exited", "run", runID, "status", result.Status, "duration", duration)

	if !state.Success() {
		return result, &ExitError{
			Name:     opts.Name,
			Status:   result.Status,
			ExitCode: result.ExitCode,
			Report:   result.Report,
		}
	}
	return result, nil
}

func (e *executor) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// readLines sends every line from r to out until EOF. A final line without
// a trailing newline is still delivered.
func readLines(r io.Reader, stream Stream, out chan<- Line, wg *sync.WaitGroup) {
	defer wg.Done()

	br := bufio.NewReader(r)
	for {
		text, err := br.ReadString('\n')
		if text != "" {
			text = strings.TrimSuffix(text, "\n")
			text = strings.TrimSuffix(text, "\r")
			out <- Line{Stream: stream, Text: text}
		}
		if err != nil {
			// io.EOF or a closed pipe; either way the stream is done.
			return
		}
	}
}
