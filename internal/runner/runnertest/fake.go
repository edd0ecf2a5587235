// Package runnertest provides a scripted runner.Runner for tests.
package runnertest

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/ieshan/bit2/internal/runner"
)

// Response is what the fake returns for a matching command.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// Call is a recorded invocation.
type Call struct {
	Dir   string
	Line  string
	Env   []string
	Stdin string
}

type rule struct {
	prefix string
	resp   Response
}

// Fake matches commands by prefix of their rendered command line. Later
// rules win over earlier ones. Unmatched commands succeed with no output.
type Fake struct {
	mu      sync.Mutex
	rules   []rule
	calls   []Call
	missing map[string]bool
}

// New creates an empty Fake.
func New() *Fake {
	return &Fake{missing: map[string]bool{}}
}

// On registers a response for commands whose line starts with prefix.
func (f *Fake) On(prefix string, resp Response) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, rule{prefix: prefix, resp: resp})
	return f
}

// Missing makes LookPath fail for the named tools.
func (f *Fake) Missing(names ...string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range names {
		f.missing[n] = true
	}
	return f
}

// Calls returns the recorded command lines.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Lines returns just the command lines of the recorded calls.
func (f *Fake) Lines() []string {
	calls := f.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = c.Line
	}
	return lines
}

// LookPath implements runner.Runner.
func (f *Fake) LookPath(name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.missing[name] {
		return "", &notFoundError{name: name}
	}
	return "/usr/bin/" + name, nil
}

// Run implements runner.Runner.
func (f *Fake) Run(_ context.Context, c runner.Cmd) (runner.Result, error) {
	var stdin string
	if c.Stdin != nil {
		b, _ := io.ReadAll(c.Stdin)
		stdin = string(b)
	}

	line := c.String()

	f.mu.Lock()
	f.calls = append(f.calls, Call{Dir: c.Dir, Line: line, Env: c.Env, Stdin: stdin})
	var resp Response
	for i := len(f.rules) - 1; i >= 0; i-- {
		if strings.HasPrefix(line, f.rules[i].prefix) {
			resp = f.rules[i].resp
			break
		}
	}
	f.mu.Unlock()

	res := runner.Result{Stdout: resp.Stdout, Stderr: resp.Stderr, ExitCode: resp.ExitCode}
	if resp.Err != nil {
		return res, resp.Err
	}
	if resp.ExitCode != 0 {
		return res, &runner.Error{Command: line, ExitCode: resp.ExitCode, Stderr: resp.Stderr}
	}
	return res, nil
}

type notFoundError struct {
	name string
}

func (e *notFoundError) Error() string {
	return "exec: \"" + e.name + "\": executable file not found in $PATH"
}
