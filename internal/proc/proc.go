// Package proc runs the external programs the converter depends on:
// TTS engine CLIs and the audio encoder.
package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrNotFound is returned when a binary cannot be located on PATH.
var ErrNotFound = errors.New("binary not found")

// Command describes a single process invocation.
type Command struct {
	Name    string
	Args    []string
	Stdin   string
	Dir     string
	Timeout time.Duration
}

// String renders the command line for logs.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Name)
	for _, a := range c.Args {
		if strings.ContainsAny(a, " \t\"'") {
			a = fmt.Sprintf("%q", a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// Result captures what a finished process produced.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Elapsed  time.Duration
}

// Error describes a process that could not start, timed out or exited
// non-zero.
type Error struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Command, e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += "\nstderr: " + lastLines(s, 8)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Runner executes commands. Engines and the encoder accept a Runner so
// tests can substitute canned results.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// Exec runs commands through os/exec.
type Exec struct{}

// Run starts the process with stdin attached before start and waits for
// it. A Timeout on cmd applies only when ctx has no deadline.
func (Exec) Run(ctx context.Context, c Command) (Result, error) {
	if c.Timeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.Timeout)
			defer cancel()
		}
	}

	cmd := exec.CommandContext(ctx, c.Name, c.Args...) //nolint:gosec
	cmd.Dir = c.Dir
	killGroup(cmd)
	if c.Stdin != "" {
		cmd.Stdin = strings.NewReader(c.Stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: cmd.ProcessState.ExitCode(),
		Elapsed:  time.Since(start),
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			ctxErr = fmt.Errorf("timed out after %v: %w", c.Timeout, ctxErr)
		}
		return res, &Error{Command: c.String(), ExitCode: res.ExitCode, Stderr: stderr.String(), Err: ctxErr}
	}
	if err != nil {
		return res, &Error{Command: c.String(), ExitCode: res.ExitCode, Stderr: stderr.String(), Err: err}
	}
	return res, nil
}

// Which resolves name on PATH. Absolute and relative paths are checked
// directly.
func Which(name string) (string, error) {
	if name == "" {
		return "", ErrNotFound
	}
	p, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return p, nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
