// Package turso drives the turso CLI: database creation, connection URLs,
// auth tokens and one-statement-at-a-time shell execution.
package turso

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ieshan/bit2"
	"github.com/ieshan/bit2/internal/logger"
	"github.com/ieshan/bit2/internal/runner"
)

const binary = "turso"

var (
	// ErrNotLoggedIn is returned when the turso CLI has no active session.
	ErrNotLoggedIn = errors.New("turso: not logged in, run \"turso auth login\"")
	// ErrNoURL is returned when the CLI output contains no database URL.
	ErrNoURL = errors.New("turso: no database url in output")
	// ErrNoToken is returned when the CLI output contains no token.
	ErrNoToken = errors.New("turso: no token in output")
)

var (
	urlPattern     = regexp.MustCompile(`libsql://[A-Za-z0-9.\-]+`)
	tokenPattern   = regexp.MustCompile(`^[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+$`)
	existsPattern  = regexp.MustCompile(`(?i)already exists`)
	loggedOutRegex = regexp.MustCompile(`(?i)not logged in`)
	namePattern    = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,63}$`)
)

// Database is one row of "turso db list".
type Database struct {
	Name  string
	Group string
	URL   string
}

// Client wraps the turso CLI.
type Client struct {
	runner runner.Runner
}

// New creates a Client that runs turso through r.
func New(r runner.Runner) *Client {
	return &Client{runner: r}
}

func (c *Client) run(ctx context.Context, args ...string) (runner.Result, error) {
	return c.runner.Run(ctx, runner.Cmd{Name: binary, Args: args})
}

// ValidateName checks a database name against turso's naming rules.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("invalid database name %q: use lowercase letters, digits and dashes", name)
	}
	return nil
}

// Whoami returns the logged in user.
func (c *Client) Whoami(ctx context.Context) (string, error) {
	res, err := c.run(ctx, "auth", "whoami")
	out := strings.TrimSpace(res.Output())
	if loggedOutRegex.MatchString(out) {
		return "", ErrNotLoggedIn
	}
	if err != nil {
		return "", fmt.Errorf("failed to check turso login: %w", err)
	}
	return lastLine(out), nil
}

// CreateDatabase creates a database. It returns created=false without an
// error when the database already exists.
func (c *Client) CreateDatabase(ctx context.Context, name, group string) (bool, error) {
	if err := ValidateName(name); err != nil {
		return false, err
	}

	args := []string{"db", "create", name}
	if group != "" {
		args = append(args, "--group", group)
	}

	res, err := c.run(ctx, args...)
	if err != nil {
		if existsPattern.MatchString(res.Output()) {
			logger.Info(ctx, "Database already exists", "db", name)
			return false, nil
		}
		return false, fmt.Errorf("failed to create database %s: %w", name, err)
	}
	logger.Info(ctx, "Database created", "db", name)
	return true, nil
}

// DatabaseURL returns the libsql:// URL of a database.
func (c *Client) DatabaseURL(ctx context.Context, name string) (string, error) {
	res, err := c.run(ctx, "db", "show", name, "--url")
	if err != nil {
		return "", fmt.Errorf("failed to get url for database %s: %w", name, err)
	}
	return ParseURL(res.Output())
}

// CreateToken creates an auth token for a database.
func (c *Client) CreateToken(ctx context.Context, name string) (string, error) {
	res, err := c.run(ctx, "db", "tokens", "create", name)
	if err != nil {
		return "", fmt.Errorf("failed to create token for database %s: %w", name, err)
	}
	return ParseToken(res.Stdout)
}

// ListDatabases returns the databases of the logged in account.
func (c *Client) ListDatabases(ctx context.Context) ([]Database, error) {
	res, err := c.run(ctx, "db", "list")
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}
	return ParseList(res.Stdout), nil
}

// Shell returns an Executor that sends each statement to "turso db shell".
func (c *Client) Shell(name string) *Shell {
	return &Shell{client: c, db: name}
}

// Shell executes statements against a remote database through the CLI,
// one process per statement.
type Shell struct {
	client *Client
	db     string
}

var _ bit2.Executor = (*Shell)(nil)

// ExecContext implements bit2.Executor.
func (s *Shell) ExecContext(ctx context.Context, statement string) error {
	res, err := s.client.run(ctx, "db", "shell", s.db, statement)
	if err != nil {
		return err
	}
	// The shell exits 0 on SQL errors and prints them instead.
	if msg := shellError(res.Output()); msg != "" {
		return errors.New(msg)
	}
	return nil
}

var shellErrorPattern = regexp.MustCompile(`(?im)^\s*(?:Error|Parse error|Runtime error):?\s*(.+)$`)

func shellError(out string) string {
	m := shellErrorPattern.FindStringSubmatch(out)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// ParseURL extracts the first libsql:// URL from CLI output.
func ParseURL(out string) (string, error) {
	u := urlPattern.FindString(out)
	if u == "" {
		return "", ErrNoURL
	}
	return u, nil
}

// ParseToken returns the JWT printed by "turso db tokens create".
func ParseToken(out string) (string, error) {
	token := lastLine(out)
	if !tokenPattern.MatchString(token) {
		return "", ErrNoToken
	}
	return token, nil
}

// ParseList parses the table printed by "turso db list". The header row and
// rows without a libsql URL are skipped.
func ParseList(out string) []Database {
	var dbs []Database
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || strings.EqualFold(fields[0], "NAME") {
			continue
		}
		db := Database{Name: fields[0]}
		for _, f := range fields[1:] {
			if strings.HasPrefix(f, "libsql://") {
				db.URL = f
			} else if db.Group == "" && db.URL == "" {
				db.Group = f
			}
		}
		if db.URL == "" {
			continue
		}
		dbs = append(dbs, db)
	}
	return dbs
}

func lastLine(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
