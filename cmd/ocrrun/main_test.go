package main

import (
	"os"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

// TestMain registers the ocrrun binary for testscript execution.
func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"ocrrun": run,
	}))
}

// TestScripts runs all testscript files in testdata/script. Shell scripts
// stand in for the python OCR and review tools.
func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata/script",
		Setup: func(env *testscript.Env) error {
			env.Setenv("HOME", env.WorkDir)
			env.Setenv("OCRRUN_PYTHON", "sh")
			return nil
		},
	})
}
