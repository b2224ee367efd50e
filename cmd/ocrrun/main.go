// Command ocrrun runs OCR and accuracy-review scripts and reports their output.
package main

import (
	"fmt"
	"os"

	"github.com/jmgilman/ocrrun/internal/cmd"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
