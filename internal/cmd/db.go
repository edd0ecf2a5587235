package cmd

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/ieshan/bit2"
	"github.com/ieshan/bit2/internal/logger"
	"github.com/ieshan/bit2/internal/runner"
	"github.com/ieshan/bit2/internal/state"
	"github.com/ieshan/bit2/internal/turso"
	"github.com/spf13/cobra"
)

// connName is the ConnectionManager name of the project database.
const connName = "project"

var (
	errLocalAndRemote = errors.New("--local and --remote cannot be used together")
	errNoDatabaseURL  = errors.New(state.EnvDatabaseURL + " is not set, run \"bit2 db create\" first")
	errNoDatabaseName = errors.New("no Turso database recorded for this project, run \"bit2 db create\" first")
)

func DB() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the project database",
		Long: `Create the Turso database and apply the SQL files in db/.

Statements are split on semicolons outside quoted literals and applied one at
a time, either to the local SQLite file or to the remote Turso database.
`,
	}
	cmd.AddCommand(dbCreate(), dbApply(), dbReset(), dbSplit())
	return cmd
}

func dbCreate() *cobra.Command {
	return NewCommand(
		&cobra.Command{
			Use:   "create [flags]",
			Short: "Create the Turso database and write its credentials to .env",
			Args:  cobra.NoArgs,
		}, dbCreateFlags, runDBCreate,
	)
}

var dbCreateFlags = []commandLineFlag{dbNameFlag, groupFlag}

func runDBCreate(ctx *Context, _ []string) error {
	name, err := ctx.StringParam("name")
	if err != nil {
		return err
	}
	if name == "" {
		name = ctx.ProjectName()
	}
	if err := turso.ValidateName(name); err != nil {
		return err
	}

	if err := runner.RequireTools(ctx.Runner, "turso"); err != nil {
		return err
	}

	client := turso.New(ctx.Runner)
	user, err := client.Whoami(ctx)
	if err != nil {
		return err
	}
	logger.Info(ctx, "Logged in to Turso", "user", user)

	existing, err := client.ListDatabases(ctx)
	if err != nil {
		return err
	}
	created := false
	if slices.ContainsFunc(existing, func(db turso.Database) bool { return db.Name == name }) {
		logger.Info(ctx, "Database already exists", "db", name)
	} else {
		created, err = client.CreateDatabase(ctx, name, ctx.Config.Turso.Group)
		if err != nil {
			return err
		}
	}
	url, err := client.DatabaseURL(ctx, name)
	if err != nil {
		return err
	}
	token, err := client.CreateToken(ctx, name)
	if err != nil {
		return err
	}

	secrets := ctx.Path(state.SecretsFile)
	if err := state.MergeEnvFile(secrets, map[string]string{
		state.EnvDatabaseURL: url,
		state.EnvAuthToken:   token,
	}); err != nil {
		return err
	}
	logger.Info(ctx, "Credentials written", "path", secrets)

	ctx.State.Set(state.KeyDBName, name)
	ctx.State.Set(state.KeyDBURL, url)
	if err := ctx.SaveState(); err != nil {
		return err
	}

	verb := "Created"
	if !created {
		verb = "Using existing"
	}
	_, _ = fmt.Fprintf(ctx.Out(), "%s database %s\n  url: %s\n  credentials: %s\n", verb, name, url, state.SecretsFile)
	return nil
}

func dbApply() *cobra.Command {
	return NewCommand(
		&cobra.Command{
			Use:   "apply [flags]",
			Short: "Apply the schema and seed files",
			Long: `Split db/schema.sql and db/seed.sql into statements and execute them.

The remote database is used when .env has TURSO_DATABASE_URL, the local
SQLite file otherwise. --via-shell sends each statement through
"turso db shell" instead of the libSQL driver.

Example:
  bit2 db apply --local
  bit2 db apply --remote --on-error continue
`,
			Args: cobra.NoArgs,
		}, dbApplyFlags, runDBApply,
	)
}

var dbApplyFlags = []commandLineFlag{localFlag, remoteFlag, schemaFlag, seedFlag, skipSeedFlag, viaShellFlag, onErrorFlag}

type applyFunc func(path string) (*bit2.ExecReport, error)

// applyStep is one SQL file and the state key marked once it is applied.
type applyStep struct {
	file     string
	key      string
	optional bool
}

func runDBApply(ctx *Context, _ []string) error {
	viaShell, err := ctx.BoolParam("via-shell")
	if err != nil {
		return err
	}
	skipSeed, err := ctx.BoolParam("skip-seed")
	if err != nil {
		return err
	}
	policy := ctx.Config.DB.OnError

	var apply applyFunc
	if viaShell {
		name := ctx.State.Get(state.KeyDBName)
		if name == "" {
			return errNoDatabaseName
		}
		if err := runner.RequireTools(ctx.Runner, "turso"); err != nil {
			return err
		}
		shell := turso.New(ctx.Runner).Shell(name)
		logger.Info(ctx, "Using turso shell", "db", name)
		apply = func(path string) (*bit2.ExecReport, error) {
			statements, err := bit2.ReadScript(path)
			if err != nil {
				return nil, err
			}
			report, err := bit2.ExecStatements(ctx, shell, statements, policy)
			if err != nil {
				return report, fmt.Errorf("failed to apply %s: %w", path, err)
			}
			return report, nil
		}
	} else {
		remote, err := useRemote(ctx)
		if err != nil {
			return err
		}
		m, err := openDatabase(ctx, remote)
		if err != nil {
			return err
		}
		defer func() { _ = m.CloseAll() }()
		apply = func(path string) (*bit2.ExecReport, error) {
			return m.ApplyFile(ctx, connName, path, policy)
		}
	}

	steps := []applyStep{{file: ctx.Config.DB.Schema, key: state.KeySchemaApplied}}
	if !skipSeed {
		steps = append(steps, applyStep{file: ctx.Config.DB.Seed, key: state.KeySeedApplied, optional: true})
	}

	for _, step := range steps {
		path := ctx.Path(step.file)
		if _, err := os.Stat(path); step.optional && errors.Is(err, os.ErrNotExist) {
			logger.Info(ctx, "No seed file, skipping", "path", step.file)
			continue
		}

		report, err := apply(path)
		if report != nil {
			logger.Info(ctx, "Statements executed",
				"file", step.file,
				"total", report.Total,
				"executed", report.Executed,
				"failed", len(report.Failed),
			)
		}
		if err != nil {
			return err
		}

		ctx.State.Mark(step.key, time.Now())
		if err := ctx.SaveState(); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(ctx.Out(), "Applied %s (%d statements)\n", step.file, report.Executed)
	}
	return nil
}

func dbReset() *cobra.Command {
	return NewCommand(
		&cobra.Command{
			Use:   "reset [flags]",
			Short: "Delete all rows, or drop all tables with --drop",
			Args:  cobra.NoArgs,
		}, dbResetFlags, runDBReset,
	)
}

var dbResetFlags = []commandLineFlag{localFlag, remoteFlag, dropFlag}

func runDBReset(ctx *Context, _ []string) error {
	drop, err := ctx.BoolParam("drop")
	if err != nil {
		return err
	}
	remote, err := useRemote(ctx)
	if err != nil {
		return err
	}
	m, err := openDatabase(ctx, remote)
	if err != nil {
		return err
	}
	defer func() { _ = m.CloseAll() }()

	tables, err := m.ListTables(ctx, connName)
	if err != nil {
		return err
	}

	if drop {
		if err := m.DropAllTables(ctx, connName); err != nil {
			return err
		}
		ctx.State.Set(state.KeySchemaApplied, "")
		ctx.State.Set(state.KeySeedApplied, "")
		_, _ = fmt.Fprintf(ctx.Out(), "Dropped %d tables\n", len(tables))
	} else {
		if err := m.FlushAllTables(ctx, connName); err != nil {
			return err
		}
		ctx.State.Set(state.KeySeedApplied, "")
		_, _ = fmt.Fprintf(ctx.Out(), "Emptied %d tables\n", len(tables))
	}
	return ctx.SaveState()
}

func dbSplit() *cobra.Command {
	return NewCommand(
		&cobra.Command{
			Use:   "split [flags] <file>",
			Short: "Print the statements a SQL file splits into",
			Args:  cobra.ExactArgs(1),
		}, nil, runDBSplit,
	)
}

func runDBSplit(ctx *Context, args []string) error {
	content, err := os.ReadFile(ctx.Path(args[0]))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	statements := bit2.SplitStatements(string(content))

	out := ctx.Out()
	for i, stmt := range statements {
		_, _ = fmt.Fprintf(out, "-- statement %d\n%s;\n\n", i+1, stmt)
	}
	_, _ = fmt.Fprintf(out, "-- %d statements\n", len(statements))
	return nil
}

// useRemote decides between the local file and the Turso database. Without
// --local or --remote the remote database is used once credentials exist.
func useRemote(ctx *Context) (bool, error) {
	local, err := ctx.BoolParam("local")
	if err != nil {
		return false, err
	}
	remote, err := ctx.BoolParam("remote")
	if err != nil {
		return false, err
	}
	switch {
	case local && remote:
		return false, errLocalAndRemote
	case local:
		return false, nil
	case remote:
		return true, nil
	}
	env, err := databaseEnv(ctx)
	if err != nil {
		return false, err
	}
	return env[state.EnvDatabaseURL] != "", nil
}

// openDatabase registers the project database with a new ConnectionManager.
func openDatabase(ctx *Context, remote bool) (*bit2.ConnectionManager, error) {
	m := bit2.NewConnectionManager()
	m.RegisterDefaultDrivers()

	if !remote {
		path := ctx.Path(ctx.Config.DB.LocalPath)
		m.SetDsn(connName, bit2.DbSqlite, path)
		logger.Info(ctx, "Using local database", "path", path)
		return m, nil
	}

	env, err := databaseEnv(ctx)
	if err != nil {
		return nil, err
	}
	url := env[state.EnvDatabaseURL]
	if url == "" {
		return nil, errNoDatabaseURL
	}
	dsn, err := bit2.LibSQLDSN(url, env[state.EnvAuthToken])
	if err != nil {
		return nil, err
	}
	m.SetDsn(connName, bit2.DbLibSQL, dsn)
	logger.Info(ctx, "Using remote database", "url", url)
	return m, nil
}

// databaseEnv returns the Turso credentials from .env, falling back to the
// process environment for keys the file does not set.
func databaseEnv(ctx *Context) (map[string]string, error) {
	values, err := state.ReadEnvFile(ctx.Path(state.SecretsFile))
	if err != nil {
		return nil, err
	}
	env := map[string]string{}
	for _, key := range []string{state.EnvDatabaseURL, state.EnvAuthToken} {
		if v := values[key]; v != "" {
			env[key] = v
		} else if v := os.Getenv(key); v != "" {
			env[key] = v
		}
	}
	return env, nil
}
