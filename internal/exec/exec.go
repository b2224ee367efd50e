// Package exec runs external tools and collects their combined output
// into a single tagged report.
package exec

import (
	"context"
	"time"
)

// Stream identifies which standard stream a line was read from.
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

func (s Stream) String() string {
	if s == Stderr {
		return "stderr"
	}
	return "stdout"
}

// stderrPrefix marks lines read from standard error in the report.
const stderrPrefix = "ERROR: "

// Line is a single line of output, without its trailing line break.
type Line struct {
	Stream Stream
	Text   string
}

// Format renders the line the way it appears in a report.
func (l Line) Format() string {
	if l.Stream == Stderr {
		return stderrPrefix + l.Text + "\n"
	}
	return l.Text + "\n"
}

// Result describes a process that ran to completion.
type Result struct {
	RunID    string        // unique identifier for this run
	Report   string        // stdout and stderr lines in arrival order
	ExitCode int           // process exit code, -1 if terminated by a signal
	Status   string        // exit status description, e.g. "exit status 2"
	Duration time.Duration // time from spawn to exit
}

// Success reports whether the process exited with status zero.
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// RunOptions configures a single invocation.
type RunOptions struct {
	Name string   // Program name or path (required)
	Args []string // Arguments, passed through verbatim
	Dir  string   // Working directory (empty = current)
	Env  []string // Additional environment variables (KEY=VALUE format)

	// OnLine, if set, is called for every line in arrival order before it
	// is appended to the report. It runs on the goroutine that called Run.
	OnLine func(Line)
}

// Executor runs external commands.
type Executor interface {
	// Run spawns the program, drains stdout and stderr until both close,
	// then waits for exit.
	// A spawn failure returns a *SpawnError and no Result. A nonzero exit
	// returns the Result together with an *ExitError. A failure to collect
	// the exit status returns a *WaitError.
	// The child is never killed: ctx only carries request-scoped values.
	Run(ctx context.Context, opts *RunOptions) (*Result, error)

	// LookPath searches for an executable in PATH.
	LookPath(name string) (string, error)
}
