package dispatch

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// ExecutionResult holds the captured output of a finished process.
type ExecutionResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Executor spawns external processes and captures their output.
type Executor struct {
	// Dir is the working directory of spawned processes. Empty means the
	// current directory.
	Dir string

	// Env, when non-nil, is appended to the inherited environment.
	Env []string
}

// waitDelay bounds how long Wait may block on output pipes after the process
// group has been killed.
const waitDelay = 2 * time.Second

// Execute runs name with args and waits for it to exit.
//
// A non-zero exit is not an error: it is reported through ExitCode. Errors are
// always *Error with kind ErrSpawn (the process could not be started) or
// ErrTimeout (ctx ended first; the whole process group is killed).
func (e *Executor) Execute(ctx context.Context, name string, args ...string) (*ExecutionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, failf(ErrTimeout, "cancelled before start: %v", err)
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = e.Dir
	if e.Env != nil {
		cmd.Env = append(cmd.Environ(), e.Env...)
	}
	cmd.WaitDelay = waitDelay

	// Own session and process group, so a login shell's children die with it.
	setProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, failf(ErrSpawn, "%v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var err error
	select {
	case <-ctx.Done():
		killProcessGroup(cmd)
		err = <-done
	case err = <-done:
	}

	if ctxErr := ctx.Err(); ctxErr != nil && err != nil {
		// Make sure no straggler in the group survives the leader.
		killProcessGroup(cmd)
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, failf(ErrTimeout, "no exit before deadline")
		}
		return nil, failf(ErrTimeout, "cancelled: %v", ctxErr)
	}

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, failf(ErrSpawn, "%v", err)
		}
		exitCode = exitErr.ExitCode()
	}

	return &ExecutionResult{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: exitCode,
	}, nil
}
