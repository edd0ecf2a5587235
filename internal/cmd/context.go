// Package cmd implements the bit2 commands.
package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/ieshan/bit2/internal/config"
	"github.com/ieshan/bit2/internal/logger"
	"github.com/ieshan/bit2/internal/runner"
	"github.com/ieshan/bit2/internal/state"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Context holds the configuration for a command.
type Context struct {
	context.Context

	Command    *cobra.Command
	Flags      []commandLineFlag
	Config     *config.Config
	Quiet      bool
	ProjectDir string
	Runner     runner.Runner
	State      *state.State
}

type runnerKey struct{}

// WithRunner makes commands started with ctx run external tools through r.
func WithRunner(ctx context.Context, r runner.Runner) context.Context {
	return context.WithValue(ctx, runnerKey{}, r)
}

func runnerFromContext(ctx context.Context) runner.Runner {
	if r, ok := ctx.Value(runnerKey{}).(runner.Runner); ok {
		return r
	}
	return runner.Exec{}
}

// NewContext loads the configuration, sets up the logger and reads the
// project state for cmd.
func NewContext(cmd *cobra.Command, flags []commandLineFlag) (*Context, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := validateFlags(cmd, flags...); err != nil {
		return nil, err
	}

	v := viper.New()
	if err := bindFlags(cmd, v, flags...); err != nil {
		return nil, err
	}

	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return nil, fmt.Errorf("failed to get quiet flag: %w", err)
	}

	var loaderOpts []config.LoaderOption
	if cfgPath, _ := cmd.Flags().GetString("config"); cfgPath != "" {
		loaderOpts = append(loaderOpts, config.WithConfigFile(cfgPath))
	}

	cfg, err := config.NewLoader(v, loaderOpts...).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	opts := []logger.Option{logger.WithStderr(cmd.ErrOrStderr())}
	if cfg.Debug {
		opts = append(opts, logger.WithDebug())
	}
	if quiet {
		opts = append(opts, logger.WithQuiet())
	}
	if cfg.LogFormat != "" {
		opts = append(opts, logger.WithFormat(cfg.LogFormat))
	}
	ctx = logger.WithLogger(ctx, logger.NewLogger(opts...))

	for _, w := range cfg.Warnings {
		logger.Warn(ctx, w)
	}
	if cfg.ConfigFileUsed != "" {
		logger.Debug(ctx, "Config loaded", "file", cfg.ConfigFileUsed)
	}

	dir, err := cmd.Flags().GetString("project-dir")
	if err != nil {
		return nil, fmt.Errorf("failed to get project-dir flag: %w", err)
	}
	dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project directory: %w", err)
	}

	st, err := state.Load(dir)
	if err != nil {
		return nil, err
	}

	return &Context{
		Context:    ctx,
		Command:    cmd,
		Flags:      flags,
		Config:     cfg,
		Quiet:      quiet,
		ProjectDir: dir,
		Runner:     runnerFromContext(ctx),
		State:      st,
	}, nil
}

// StringParam retrieves a string flag.
func (c *Context) StringParam(name string) (string, error) {
	val, err := c.Command.Flags().GetString(name)
	if err != nil {
		return "", fmt.Errorf("failed to get flag %s: %w", name, err)
	}
	return val, nil
}

// BoolParam retrieves a boolean flag.
func (c *Context) BoolParam(name string) (bool, error) {
	val, err := c.Command.Flags().GetBool(name)
	if err != nil {
		return false, fmt.Errorf("failed to get flag %s: %w", name, err)
	}
	return val, nil
}

// Out is where user-facing command output goes.
func (c *Context) Out() io.Writer {
	return c.Command.OutOrStdout()
}

// Path resolves p against the project directory.
func (c *Context) Path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.ProjectDir, p)
}

// SaveState writes the project state file.
func (c *Context) SaveState() error {
	if err := c.State.Save(time.Now()); err != nil {
		return fmt.Errorf("failed to save project state: %w", err)
	}
	logger.Debug(c, "State saved", "path", c.State.Path())
	return nil
}

// ProjectName returns the project name recorded in the state file, falling
// back to the project directory name.
func (c *Context) ProjectName() string {
	if name := c.State.Get(state.KeyProjectName); name != "" {
		return name
	}
	return filepath.Base(c.ProjectDir)
}

// NewCommand creates a new command instance with the given cobra command and run function.
func NewCommand(cmd *cobra.Command, flags []commandLineFlag, runFunc func(cmd *Context, args []string) error) *cobra.Command {
	initFlags(cmd, flags...)
	cmd.SilenceUsage = true

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx, err := NewContext(cmd, flags)
		if err != nil {
			return fmt.Errorf("initialization error: %w", err)
		}
		if err := runFunc(ctx, args); err != nil {
			logger.Error(ctx, "Command failed", "err", err)
			return err
		}
		return nil
	}

	return cmd
}
