// Package logging mirrors the output of a run into a report file while
// it streams.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ReportWriter writes report lines to a file as they arrive.
// It is safe for concurrent use.
type ReportWriter struct {
	file *os.File
	mu   sync.Mutex
}

// NewReportWriter creates (or truncates) the report file at path, creating
// its parent directory if needed.
func NewReportWriter(path string) (*ReportWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create report directory: %w", err)
	}

	//nolint:gosec // G304: path is chosen by the user on the command line
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create report file: %w", err)
	}

	return &ReportWriter{file: file}, nil
}

// Write appends p to the report file. Writing after Close returns
// os.ErrClosed.
func (w *ReportWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, fmt.Errorf("write report file: %w", os.ErrClosed)
	}
	n, err := w.file.Write(p)
	if err != nil {
		return n, fmt.Errorf("write report file: %w", err)
	}
	return n, nil
}

// WriteString is a convenience wrapper around Write.
func (w *ReportWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// Close syncs and closes the report file.
// Calling Close more than once is a no-op.
func (w *ReportWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	syncErr := w.file.Sync()
	closeErr := w.file.Close()
	w.file = nil

	if syncErr != nil {
		return fmt.Errorf("sync report file: %w", syncErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close report file: %w", closeErr)
	}
	return nil
}
