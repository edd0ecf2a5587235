package bit2

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Executor runs a single SQL statement.
type Executor interface {
	ExecContext(ctx context.Context, statement string) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, statement string) error

// ExecContext implements Executor.
func (f ExecutorFunc) ExecContext(ctx context.Context, statement string) error {
	return f(ctx, statement)
}

// ErrorPolicy decides what happens when a statement fails.
type ErrorPolicy int

const (
	// AbortOnError stops at the first failing statement.
	AbortOnError ErrorPolicy = iota
	// ContinueOnError records the failure and runs the remaining statements.
	ContinueOnError
)

func (p ErrorPolicy) String() string {
	switch p {
	case AbortOnError:
		return "abort"
	case ContinueOnError:
		return "continue"
	default:
		return fmt.Sprintf("ErrorPolicy(%d)", int(p))
	}
}

// ParseErrorPolicy parses "abort" or "continue". An empty string means abort.
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "abort":
		return AbortOnError, nil
	case "continue":
		return ContinueOnError, nil
	default:
		return AbortOnError, fmt.Errorf("unknown error policy %q (want abort or continue)", s)
	}
}

// StatementError describes a statement that failed to execute.
type StatementError struct {
	// Index is the 1-based position of the statement in its script.
	Index     int
	Statement string
	Err       error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("statement %d failed: %v\nStatement: %s", e.Index, e.Err, e.Statement)
}

func (e *StatementError) Unwrap() error {
	return e.Err
}

// ExecReport summarizes a call to ExecStatements.
type ExecReport struct {
	Total    int
	Executed int
	Failed   []*StatementError
}

// ExecStatements executes statements in order, one at a time.
//
// With AbortOnError the first failure is returned as a *StatementError.
// With ContinueOnError every failure is recorded in the report and the
// returned error joins them. A cancelled context stops execution before the
// next statement.
func ExecStatements(ctx context.Context, ex Executor, statements []string, policy ErrorPolicy) (*ExecReport, error) {
	report := &ExecReport{Total: len(statements)}

	for i, statement := range statements {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if err := ex.ExecContext(ctx, statement); err != nil {
			stmtErr := &StatementError{Index: i + 1, Statement: statement, Err: err}
			report.Failed = append(report.Failed, stmtErr)
			if policy == AbortOnError {
				return report, stmtErr
			}
			continue
		}
		report.Executed++
	}

	if len(report.Failed) > 0 {
		errs := make([]error, len(report.Failed))
		for i, f := range report.Failed {
			errs[i] = f
		}
		return report, errors.Join(errs...)
	}
	return report, nil
}

// ExecScript splits script and executes the resulting statements.
func ExecScript(ctx context.Context, ex Executor, script string, policy ErrorPolicy) (*ExecReport, error) {
	return ExecStatements(ctx, ex, SplitStatements(script), policy)
}
