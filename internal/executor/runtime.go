package executor

import (
	"fmt"
	"time"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"colstd/internal/domain"
)

const (
	defaultMaxSteps = uint64(100_000)
	defaultTimeout  = 2 * time.Second
	maxCodeBytes    = 256 * 1024
)

// renameFileOptions permits the statement forms rename code commonly uses.
// while loops and recursion stay disabled.
var renameFileOptions = &syntax.FileOptions{
	TopLevelControl: true,
	GlobalReassign:  true,
}

// evalRenameCode runs code with a single global `df` bound to a handle over
// columns and returns the column names of `df` after execution. Nothing else
// is in scope apart from the Starlark universe.
func evalRenameCode(code string, columns []string, maxSteps uint64, timeout time.Duration) ([]string, error) {
	if len(code) > maxCodeBytes {
		return nil, domain.ErrValidation("rename code exceeds %d bytes", maxCodeBytes)
	}

	f, err := renameFileOptions.Parse("<rename>", code, 0)
	if err != nil {
		return nil, domain.ErrValidation("rename code does not parse: %v", err)
	}

	thread := &starlark.Thread{
		Name:  "rename-code",
		Print: func(*starlark.Thread, string) {},
		Load: func(*starlark.Thread, string) (starlark.StringDict, error) {
			return nil, fmt.Errorf("load is not allowed in rename code")
		},
	}
	thread.SetMaxExecutionSteps(maxSteps)

	globals := starlark.StringDict{"df": newFrame(columns)}
	if err := runStarlarkWithTimeout(thread, timeout, func() error {
		return starlark.ExecREPLChunk(f, thread, globals)
	}); err != nil {
		return nil, fmt.Errorf("evaluate rename code: %w", err)
	}

	out, ok := globals["df"].(*frame)
	if !ok {
		return nil, domain.ErrValidation("rename code rebound df to %s", globals["df"].Type())
	}
	if len(out.columns) != len(columns) {
		return nil, domain.ErrValidation("rename code changed the column count from %d to %d", len(columns), len(out.columns))
	}
	return append([]string(nil), out.columns...), nil
}

func runStarlarkWithTimeout(thread *starlark.Thread, timeout time.Duration, fn func() error) error {
	if timeout <= 0 {
		return fn()
	}

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		thread.Cancel("starlark execution timed out")
		err := <-done
		if err != nil {
			return domain.ErrValidation("starlark execution timed out after %s: %v", timeout, err)
		}
		return domain.ErrValidation("starlark execution timed out after %s", timeout)
	}
}
