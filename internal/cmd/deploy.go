package cmd

import (
	"errors"
	"fmt"

	"github.com/ieshan/bit2/internal/deploy"
	"github.com/ieshan/bit2/internal/logger"
	"github.com/ieshan/bit2/internal/runner"
	"github.com/ieshan/bit2/internal/state"
	"github.com/spf13/cobra"
)

var errSelfHosted = errors.New("node projects are self-hosted: run \"npm run build\" and start dist/server/entry.mjs")

func Deploy() *cobra.Command {
	return NewCommand(
		&cobra.Command{
			Use:   "deploy [flags] [platform]",
			Short: "Build and deploy the project",
			Long: `Build the project and deploy it with the platform CLI (wrangler, vercel or
netlify). TURSO_DATABASE_URL and TURSO_AUTH_TOKEN from .env are uploaded as
environment variables of the deployed site.

The platform defaults to the one the project was created for.

Example:
  bit2 deploy
  bit2 deploy netlify --preview
`,
			Args: cobra.MaximumNArgs(1),
		}, deployFlags, runDeploy,
	)
}

var deployFlags = []commandLineFlag{previewFlag}

func runDeploy(ctx *Context, args []string) error {
	name := ctx.State.Get(state.KeyPlatform)
	if len(args) > 0 {
		name = args[0]
	}
	if name == "" {
		name = ctx.Config.Platform
	}
	if name == "node" {
		return errSelfHosted
	}

	platform, err := deploy.Lookup(name, ctx.Runner)
	if err != nil {
		return err
	}
	if err := runner.RequireTools(ctx.Runner, platform.RequiredTools()...); err != nil {
		return err
	}

	preview, err := ctx.BoolParam("preview")
	if err != nil {
		return err
	}

	env, err := databaseEnv(ctx)
	if err != nil {
		return err
	}
	if env[state.EnvDatabaseURL] == "" {
		logger.Warn(ctx, "Deploying without a database", "hint", "run \"bit2 db create\" first")
	}

	res, err := platform.Deploy(ctx, deploy.Target{
		Dir:        ctx.ProjectDir,
		Project:    ctx.ProjectName(),
		Env:        env,
		Production: !preview,
	})
	if err != nil {
		return fmt.Errorf("failed to deploy to %s: %w", platform.Name(), err)
	}

	ctx.State.Set(state.KeyPlatform, res.Platform)
	ctx.State.Set(state.KeyDeployURL, res.URL)
	if err := ctx.SaveState(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(ctx.Out(), "Deployed to %s\n", res.URL)
	return nil
}
