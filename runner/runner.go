package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Cmd describes one invocation of an external tool.
type Cmd struct {
	Name string
	Args []string
	Dir  string

	// Stdin overrides the runner's stdin when non-nil.
	Stdin io.Reader

	// Quiet discards stdout. Stderr is always forwarded.
	Quiet bool
}

// Command is a shorthand for Cmd{Name: name, Args: args}.
func Command(name string, args ...string) Cmd {
	return Cmd{Name: name, Args: args}
}

func (c Cmd) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Runner executes external tools.
type Runner interface {
	// LookPath reports where the named tool is installed.
	LookPath(file string) (string, error)

	// Run executes the command with stdio connected to the runner's streams.
	Run(ctx context.Context, c Cmd) error

	// Output executes the command and returns its stdout.
	Output(ctx context.Context, c Cmd) ([]byte, error)
}

// ExitError is returned when a command ran but exited with a non-zero status.
type ExitError struct {
	Cmd    string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: exit status %d: %s", e.Cmd, e.Code, e.Stderr)
	}
	return fmt.Sprintf("%s: exit status %d", e.Cmd, e.Code)
}

// IsExitError reports whether err is an ExitError, i.e. the command started
// and failed rather than not starting at all.
func IsExitError(err error) bool {
	var ee *ExitError
	return errors.As(err, &ee)
}

// Exec runs commands on the local host.
type Exec struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

var _ Runner = (*Exec)(nil)

// New returns a runner wired to the given streams.
func New(stdin io.Reader, stdout, stderr io.Writer) *Exec {
	return &Exec{Stdin: stdin, Stdout: stdout, Stderr: stderr}
}

// NewStd returns a runner wired to the process's own stdio.
func NewStd() *Exec {
	return New(os.Stdin, os.Stdout, os.Stderr)
}

func (e *Exec) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (e *Exec) Run(ctx context.Context, c Cmd) error {
	cmd := e.command(ctx, c)
	cmd.Stdout = e.Stdout
	if c.Quiet {
		cmd.Stdout = io.Discard
	}
	cmd.Stderr = e.Stderr
	return wrap(c, cmd.Run(), nil)
}

func (e *Exec) Output(ctx context.Context, c Cmd) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := e.command(ctx, c)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), wrap(c, err, &stderr)
}

func (e *Exec) command(ctx context.Context, c Cmd) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdin = e.Stdin
	if c.Stdin != nil {
		cmd.Stdin = c.Stdin
	}
	return cmd
}

func wrap(c Cmd, err error, stderr *bytes.Buffer) error {
	if err == nil {
		return nil
	}

	var ee *exec.ExitError
	if errors.As(err, &ee) {
		out := &ExitError{Cmd: c.String(), Code: ee.ExitCode()}
		if stderr != nil {
			out.Stderr = strings.TrimSpace(stderr.String())
		}
		return out
	}
	return fmt.Errorf("%s: %w", c, err)
}
