// Package names provides Docker-style labels for runs, so concurrent runs
// are easy to tell apart in log output.
package names

import (
	"github.com/docker/docker/pkg/namesgenerator"
)

// Generate returns a random adjective_surname name (e.g., "focused_turing").
func Generate() string {
	return namesgenerator.GetRandomName(0)
}

// RunLabel returns a label for a run of the given operation, such as
// "ocr/focused_turing". An empty operation yields just the name.
func RunLabel(operation string) string {
	if operation == "" {
		return Generate()
	}
	return operation + "/" + Generate()
}
