// Package runnertest provides a recording Runner for tests.
package runnertest

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/mauiiK/cosmos-p2p-bootstrapper/runner"
)

// Call is one recorded invocation.
type Call struct {
	runner.Cmd
	Input  string // contents of Cmd.Stdin, if any
	Output bool   // true when issued through Output
}

// Fake records every command and answers with the configured handler.
type Fake struct {
	// Installed lists the tools LookPath reports as present.
	Installed map[string]bool

	// Handler answers commands. A nil Handler succeeds with no output.
	Handler func(c runner.Cmd) ([]byte, error)

	mu    sync.Mutex
	calls []Call
}

var _ runner.Runner = (*Fake)(nil)

func New(installed ...string) *Fake {
	f := &Fake{Installed: map[string]bool{}}
	for _, name := range installed {
		f.Installed[name] = true
	}
	return f
}

func (f *Fake) LookPath(file string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Installed[file] {
		return "/usr/bin/" + file, nil
	}
	return "", &exec.Error{Name: file, Err: exec.ErrNotFound}
}

func (f *Fake) Run(ctx context.Context, c runner.Cmd) error {
	_, err := f.do(c, false)
	return err
}

func (f *Fake) Output(ctx context.Context, c runner.Cmd) ([]byte, error) {
	return f.do(c, true)
}

func (f *Fake) do(c runner.Cmd, output bool) ([]byte, error) {
	call := Call{Cmd: c, Output: output}
	if c.Stdin != nil {
		b, err := io.ReadAll(c.Stdin)
		if err != nil {
			return nil, err
		}
		call.Input = string(b)
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	h := f.Handler
	f.mu.Unlock()

	if h == nil {
		return nil, nil
	}
	return h(c)
}

// Calls returns the recorded invocations in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Commands returns the recorded invocations rendered as command lines.
func (f *Fake) Commands() []string {
	var s []string
	for _, c := range f.Calls() {
		s = append(s, c.String())
	}
	return s
}

// Ran reports whether a command line starting with prefix was issued.
func (f *Fake) Ran(prefix string) bool {
	for _, c := range f.Commands() {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

// Fail returns an ExitError for c with the given code.
func Fail(c runner.Cmd, code int) error {
	return &runner.ExitError{Cmd: c.String(), Code: code, Stderr: fmt.Sprintf("%s failed", c.Name)}
}
