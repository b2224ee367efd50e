package exec

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	e := New()
	require.NotNil(t, e)
}

func sh(script string) *RunOptions {
	return &RunOptions{Name: "sh", Args: []string{"-c", script}}
}

func TestExecutor_Run(t *testing.T) {
	e := New()

	t.Run("captures stdout verbatim", func(t *testing.T) {
		result, err := e.Run(context.Background(), &RunOptions{
			Name: "echo",
			Args: []string{"hello"},
		})

		require.NoError(t, err)
		assert.Equal(t, "hello\n", result.Report)
		assert.Equal(t, 0, result.ExitCode)
		assert.True(t, result.Success())
		assert.NotEmpty(t, result.RunID)
	})

	t.Run("prefixes stderr lines", func(t *testing.T) {
		result, err := e.Run(context.Background(), sh("echo oops >&2"))

		require.NoError(t, err)
		assert.Equal(t, "ERROR: oops\n", result.Report)
	})

	t.Run("combines both streams", func(t *testing.T) {
		result, err := e.Run(context.Background(), sh("echo line1; echo line2 >&2; exit 0"))

		require.NoError(t, err)
		// Order across streams is not guaranteed.
		assert.Contains(t, []string{
			"line1\nERROR: line2\n",
			"ERROR: line2\nline1\n",
		}, result.Report)
	})

	t.Run("keeps order within a stream", func(t *testing.T) {
		result, err := e.Run(context.Background(), sh("for i in 1 2 3 4 5; do echo $i; done"))

		require.NoError(t, err)
		assert.Equal(t, "1\n2\n3\n4\n5\n", result.Report)
	})

	t.Run("delivers final line without newline", func(t *testing.T) {
		result, err := e.Run(context.Background(), sh("printf 'a\\nb'"))

		require.NoError(t, err)
		assert.Equal(t, "a\nb\n", result.Report)
	})

	t.Run("keeps blank lines", func(t *testing.T) {
		result, err := e.Run(context.Background(), sh("echo; echo x"))

		require.NoError(t, err)
		assert.Equal(t, "\nx\n", result.Report)
	})

	t.Run("strips carriage returns", func(t *testing.T) {
		result, err := e.Run(context.Background(), sh("printf 'dos\\r\\n'"))

		require.NoError(t, err)
		assert.Equal(t, "dos\n", result.Report)
	})

	t.Run("succeeds with empty output", func(t *testing.T) {
		result, err := e.Run(context.Background(), sh("exit 0"))

		require.NoError(t, err)
		assert.Empty(t, result.Report)
	})

	t.Run("passes empty arguments through", func(t *testing.T) {
		result, err := e.Run(context.Background(), &RunOptions{
			Name: "sh",
			Args: []string{"-c", `echo "$#"`, "sh", "a", ""},
		})

		require.NoError(t, err)
		assert.Equal(t, "2\n", result.Report)
	})

	t.Run("handles long lines", func(t *testing.T) {
		result, err := e.Run(context.Background(), sh("head -c 200000 /dev/zero | tr '\\0' x; echo"))

		require.NoError(t, err)
		assert.Len(t, result.Report, 200001)
	})

	t.Run("drains a busy stream while the other is silent", func(t *testing.T) {
		result, err := e.Run(context.Background(), sh("i=0; while [ $i -lt 5000 ]; do echo out$i; i=$((i+1)); done; echo done >&2"))

		require.NoError(t, err)
		assert.Equal(t, 5001, strings.Count(result.Report, "\n"))
		assert.Contains(t, result.Report, "ERROR: done\n")
	})

	t.Run("respects working directory", func(t *testing.T) {
		result, err := e.Run(context.Background(), &RunOptions{
			Name: "pwd",
			Dir:  "/tmp",
		})

		require.NoError(t, err)
		// On macOS, /tmp is a symlink to /private/tmp
		assert.Contains(t, result.Report, "/tmp")
	})

	t.Run("passes environment variables", func(t *testing.T) {
		opts := sh("echo $TEST_VAR")
		opts.Env = []string{"TEST_VAR=hello_env"}

		result, err := e.Run(context.Background(), opts)

		require.NoError(t, err)
		assert.Equal(t, "hello_env\n", result.Report)
	})

	t.Run("calls OnLine for every line", func(t *testing.T) {
		var got []Line
		opts := sh("echo a; echo b >&2")
		opts.OnLine = func(l Line) { got = append(got, l) }

		result, err := e.Run(context.Background(), opts)

		require.NoError(t, err)
		require.Len(t, got, 2)
		var rebuilt strings.Builder
		for _, l := range got {
			rebuilt.WriteString(l.Format())
		}
		assert.Equal(t, result.Report, rebuilt.String())
	})
}

func TestExecutor_Run_NonZeroExit(t *testing.T) {
	e := New()

	t.Run("reports status and output", func(t *testing.T) {
		result, err := e.Run(context.Background(), sh("echo partial; echo bad >&2; exit 1"))

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNonZeroExit)
		assert.NotErrorIs(t, err, ErrSpawn)

		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 1, exitErr.ExitCode)
		assert.Equal(t, "exit status 1", exitErr.Status)
		assert.Equal(t, result.Report, exitErr.Report)
		assert.Contains(t, exitErr.Report, "partial\n")
		assert.Contains(t, exitErr.Report, "ERROR: bad\n")
		assert.Contains(t, err.Error(), "exit status 1")
		assert.Contains(t, err.Error(), exitErr.Report)
	})

	t.Run("exit code 2 with no output", func(t *testing.T) {
		result, err := e.Run(context.Background(), sh("exit 2"))

		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		require.NotNil(t, result)
		assert.Empty(t, exitErr.Report)
		assert.Equal(t, 2, result.ExitCode)
		assert.Contains(t, exitErr.Status, "2")
		assert.False(t, result.Success())
	})

	t.Run("report matches the success form", func(t *testing.T) {
		ok, err := e.Run(context.Background(), sh("echo same; exit 0"))
		require.NoError(t, err)

		_, err = e.Run(context.Background(), sh("echo same; exit 3"))
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, ok.Report, exitErr.Report)
	})
}

func TestExecutor_Run_SpawnFailure(t *testing.T) {
	e := New()

	result, err := e.Run(context.Background(), &RunOptions{
		Name: "nonexistent_command_12345",
	})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrSpawn)
	assert.NotErrorIs(t, err, ErrNonZeroExit)

	var spawnErr *SpawnError
	require.ErrorAs(t, err, &spawnErr)
	assert.Equal(t, "nonexistent_command_12345", spawnErr.Name)

	var execErr *exec.Error
	assert.ErrorAs(t, err, &execErr)
}

func TestExecutor_Run_Concurrent(t *testing.T) {
	e := New()

	const n = 8
	var wg sync.WaitGroup
	reports := make([]string, n)
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := e.Run(context.Background(), sh("echo one; echo two"))
			errs[i] = err
			if result != nil {
				reports[i] = result.Report
			}
		}()
	}
	wg.Wait()

	for i := range n {
		require.NoError(t, errs[i])
		assert.Equal(t, "one\ntwo\n", reports[i])
	}
}

func TestErrors(t *testing.T) {
	t.Run("wait error wraps cause", func(t *testing.T) {
		cause := errors.New("no child")
		err := error(&WaitError{Name: "python", Err: cause})

		assert.ErrorIs(t, err, ErrWait)
		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, ErrNonZeroExit)
		assert.Equal(t, "failed to wait for python: no child", err.Error())
	})

	t.Run("exit error message", func(t *testing.T) {
		err := &ExitError{Name: "python", Status: "exit status 1", ExitCode: 1, Report: "x\n"}

		assert.Equal(t, "python exited with error: exit status 1\nx\n", err.Error())
	})
}

func TestLine_Format(t *testing.T) {
	assert.Equal(t, "text\n", Line{Stream: Stdout, Text: "text"}.Format())
	assert.Equal(t, "ERROR: text\n", Line{Stream: Stderr, Text: "text"}.Format())
	assert.Equal(t, "stderr", Stderr.String())
	assert.Equal(t, "stdout", Stdout.String())
}

func TestExecutor_LookPath(t *testing.T) {
	e := New()

	t.Run("finds existing command", func(t *testing.T) {
		path, err := e.LookPath("sh")

		require.NoError(t, err)
		assert.NotEmpty(t, path)
	})

	t.Run("returns error for nonexistent command", func(t *testing.T) {
		_, err := e.LookPath("nonexistent_command_12345")

		require.Error(t, err)
		var execErr *exec.Error
		assert.ErrorAs(t, err, &execErr)
	})
}
