// Package runner executes the third-party CLIs bit2 drives (turso, gh, glab,
// wrangler, vercel, netlify, npm, git).
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"strings"

	"github.com/ieshan/bit2/internal/logger"
)

// Cmd describes one process invocation.
type Cmd struct {
	Name string
	Args []string
	// Dir is the working directory; empty means the current directory.
	Dir string
	// Env is appended to the parent environment as KEY=VALUE pairs.
	Env []string
	// Stdin is fed to the process when non-nil.
	Stdin io.Reader
	// Interactive attaches the terminal instead of capturing output. Used for
	// login flows that prompt the user.
	Interactive bool
	// Secrets are argument values masked in String.
	Secrets []string
}

// String renders the command line for logs and errors.
func (c Cmd) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		if a != "" && slices.Contains(c.Secrets, a) {
			a = "****"
		}
		args[i] = a
	}
	return strings.TrimSpace(c.Name + " " + strings.Join(args, " "))
}

// Result is the captured output of a finished process.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Output returns stdout followed by stderr. Several CLIs print the values
// bit2 needs on stderr.
func (r Result) Output() string {
	if r.Stderr == "" {
		return r.Stdout
	}
	if r.Stdout == "" {
		return r.Stderr
	}
	return r.Stdout + "\n" + r.Stderr
}

// Error is returned when a process exits with a non-zero status.
type Error struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: exit status %d", e.Command, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Runner runs external commands.
type Runner interface {
	Run(ctx context.Context, cmd Cmd) (Result, error)
	LookPath(name string) (string, error)
}

// Exec runs commands with os/exec.
type Exec struct{}

var _ Runner = Exec{}

// LookPath implements Runner.
func (Exec) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Run implements Runner.
func (Exec) Run(ctx context.Context, c Cmd) (Result, error) {
	logger.Debug(ctx, "Running command", "cmd", c.String(), "dir", c.Dir)

	proc := exec.CommandContext(ctx, c.Name, c.Args...)
	proc.Dir = c.Dir
	if len(c.Env) > 0 {
		proc.Env = append(os.Environ(), c.Env...)
	}

	var stdout, stderr bytes.Buffer
	if c.Interactive {
		proc.Stdin = os.Stdin
		proc.Stdout = os.Stdout
		proc.Stderr = os.Stderr
	} else {
		proc.Stdin = c.Stdin
		proc.Stdout = &stdout
		proc.Stderr = &stderr
	}

	err := proc.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if proc.ProcessState != nil {
		res.ExitCode = proc.ProcessState.ExitCode()
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return res, &Error{Command: c.String(), ExitCode: res.ExitCode, Stderr: res.Stderr, Err: err}
		}
		return res, fmt.Errorf("failed to run %s: %w", c.String(), err)
	}
	return res, nil
}

// MissingToolsError lists CLIs that are not on PATH.
type MissingToolsError struct {
	Tools []string
}

func (e *MissingToolsError) Error() string {
	return fmt.Sprintf("required tools not found on PATH: %s", strings.Join(e.Tools, ", "))
}

// RequireTools checks that every named CLI is installed and reports all the
// missing ones at once.
func RequireTools(r Runner, names ...string) error {
	var missing []string
	for _, name := range names {
		if _, err := r.LookPath(name); err != nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &MissingToolsError{Tools: missing}
	}
	return nil
}

// Run is a shorthand for running name with args in dir.
func Run(ctx context.Context, r Runner, dir, name string, args ...string) (Result, error) {
	return r.Run(ctx, Cmd{Name: name, Args: args, Dir: dir})
}
