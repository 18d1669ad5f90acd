// Copyright © 2026 Fogtools

// Package driver runs the external test command, once per matrix cell.
//
// The command is spawned with the branch and the platform appended as two
// discrete arguments, never through a shell. Its combined output streams to
// the writer supplied with the task.
package driver

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/fogtools/fogtest/pkg/driver/status"
	"github.com/fogtools/fogtest/pkg/model"
)

// A Task identifies one invocation of the test driver
type Task struct {
	RunID    string
	Branch   model.Branch
	Platform model.Platform

	// Output receives the combined stdout and stderr of the driver.
	// Defaults to discarding.
	Output io.Writer
}

// Result reports how a completed driver invocation exited
type Result struct {
	ExitCode int
	Duration time.Duration
}

// Driver implementations run the test command for one cell and report its
// verdict. A non-zero exit code is a test failure, not an error: errors are
// reserved for invocations that never produced a verdict.
type Driver interface {
	String() string
	Run(ctx context.Context, task Task) (Result, error)
}

// Option for the exec driver
type Option func(*execDriver)

// Timeout bounds a single driver invocation. Zero means no bound.
func Timeout(d time.Duration) Option {
	return func(e *execDriver) {
		e.timeout = d
	}
}

// Dir sets the working directory of the driver process
func Dir(dir string) Option {
	return func(e *execDriver) {
		e.dir = dir
	}
}

// Env adds environment entries ("KEY=value") to the driver process on top
// of the inherited environment
func Env(kv ...string) Option {
	return func(e *execDriver) {
		e.env = append(e.env, kv...)
	}
}

type execDriver struct {
	command string
	args    []string
	timeout time.Duration
	dir     string
	env     []string
}

// NewExec builds a driver that execs command with the given fixed arguments,
// followed by the branch and the platform of each task.
func NewExec(command string, args []string, options ...Option) Driver {
	e := &execDriver{
		command: command,
		args:    args,
	}
	for _, apply := range options {
		apply(e)
	}
	return e
}

func (e *execDriver) String() string {
	return strings.Join(append([]string{e.command}, e.args...), " ")
}

func (e *execDriver) Run(ctx context.Context, task Task) (Result, error) {
	out := task.Output
	if out == nil {
		out = io.Discard
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	args := append(append([]string{}, e.args...), string(task.Branch), string(task.Platform))
	cmd := exec.CommandContext(ctx, e.command, args...)
	cmd.Dir = e.dir
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.Env = append(os.Environ(),
		"FOGTEST_RUN_ID="+task.RunID,
		"FOGTEST_BRANCH="+string(task.Branch),
		"FOGTEST_PLATFORM="+string(task.Platform),
	)
	cmd.Env = append(cmd.Env, e.env...)

	t0 := time.Now()
	err := cmd.Run()
	res := Result{Duration: time.Since(t0)}

	// a cancelled context kills the process: report the cause, not the kill
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return res, status.ErrTimedOut.Wrap(ctx.Err())
	case ctx.Err() != nil:
		return res, ctx.Err()
	}

	if err == nil {
		return res, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.Exited() {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return res, status.ErrSpawn.Wrap(err)
}
