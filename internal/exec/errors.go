package exec

import (
	"errors"
	"fmt"
)

// Sentinel errors for the three ways a run can fail.
var (
	ErrSpawn       = errors.New("spawn failed")
	ErrWait        = errors.New("wait failed")
	ErrNonZeroExit = errors.New("nonzero exit")
)

// SpawnError is returned when the program could not be started.
type SpawnError struct {
	Name string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn %s: %v", e.Name, e.Err)
}

func (e *SpawnError) Unwrap() []error { return []error{ErrSpawn, e.Err} }

// WaitError is returned when the exit status of a started program could
// not be collected. Report holds whatever was read before the failure.
type WaitError struct {
	Name   string
	Err    error
	Report string
}

func (e *WaitError) Error() string {
	return fmt.Sprintf("failed to wait for %s: %v", e.Name, e.Err)
}

func (e *WaitError) Unwrap() []error { return []error{ErrWait, e.Err} }

// ExitError is returned when the program ran but exited unsuccessfully.
type ExitError struct {
	Name     string
	Status   string
	ExitCode int
	Report   string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with error: %s\n%s", e.Name, e.Status, e.Report)
}

func (e *ExitError) Is(target error) bool { return target == ErrNonZeroExit }
