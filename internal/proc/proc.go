// Package proc runs the external commands the driver is built around and
// turns every non-zero exit into a single, typed failure.
package proc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/mongodb/grip"
)

// Cmd describes one external command invocation.
type Cmd struct {
	Name string
	Args []string
	Dir  string
	// Env entries (KEY=VALUE) are appended to the process environment, so a
	// key listed here overrides the inherited value.
	Env []string
}

// Command returns a Cmd for name with the given arguments.
func Command(name string, args ...string) Cmd {
	return Cmd{Name: name, Args: args}
}

// WithDir returns a copy of the command that runs in dir.
func (c Cmd) WithDir(dir string) Cmd {
	c.Dir = dir
	return c
}

// WithEnv returns a copy of the command with extra KEY=VALUE entries.
func (c Cmd) WithEnv(env ...string) Cmd {
	c.Env = append(append([]string(nil), c.Env...), env...)
	return c
}

// String renders the command line for logs and error messages.
func (c Cmd) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// ExitError reports a command that could not run or exited non-zero. It is
// the only failure the driver distinguishes; any occurrence aborts the run.
type ExitError struct {
	Cmd  string
	Code int // -1 when the command never ran
	Err  error
}

func (e *ExitError) Error() string {
	if e.Code < 0 {
		return fmt.Sprintf("command %q failed to start: %v", e.Cmd, e.Err)
	}
	return fmt.Sprintf("command %q exited with code %d", e.Cmd, e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Invoker runs external commands. The driver never calls os/exec directly;
// everything goes through an Invoker so tests and dry runs can substitute
// a Recorder.
type Invoker interface {
	Run(ctx context.Context, cmd Cmd) error
}

// Exec is the real Invoker. Command output is piped straight through, the
// way an interactive make run would show it.
type Exec struct {
	Stdout io.Writer
	Stderr io.Writer

	logger grip.Journaler
}

// NewExec returns an Exec writing to the process stdout/stderr.
func NewExec() *Exec {
	return &Exec{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		logger: grip.NewJournaler("vdbci.proc"),
	}
}

// Run executes cmd and wraps any failure in an ExitError.
func (e *Exec) Run(ctx context.Context, cmd Cmd) error {
	e.logger.Infof("+ %s", cmd)

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	c.Stdout = e.Stdout
	c.Stderr = e.Stderr

	err := c.Run()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Cmd: cmd.String(), Code: exitErr.ExitCode(), Err: err}
	}
	return &ExitError{Cmd: cmd.String(), Code: -1, Err: err}
}

// Recorder is an Invoker that records commands without executing them. It
// backs --dry-run and deterministic tests.
type Recorder struct {
	Calls []Cmd

	logger grip.Journaler
}

// NewRecorder returns a Recorder that logs each recorded command.
func NewRecorder() *Recorder {
	return &Recorder{logger: grip.NewJournaler("vdbci.proc")}
}

// Run records cmd and succeeds.
func (r *Recorder) Run(ctx context.Context, cmd Cmd) error {
	r.Calls = append(r.Calls, cmd)
	if r.logger != nil {
		r.logger.Infof("dry-run: %s", cmd)
	}
	return nil
}

// Lines returns the recorded command lines in order.
func (r *Recorder) Lines() []string {
	lines := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		lines[i] = c.String()
	}
	return lines
}
