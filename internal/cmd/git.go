package cmd

import (
	"fmt"

	"github.com/ieshan/bit2/internal/logger"
	"github.com/ieshan/bit2/internal/runner"
	"github.com/ieshan/bit2/internal/state"
	"github.com/ieshan/bit2/internal/vcs"
	"github.com/spf13/cobra"
)

func Git() *cobra.Command {
	return NewCommand(
		&cobra.Command{
			Use:   "git [flags]",
			Short: "Initialize git and push the project to GitHub or GitLab",
			Long: `Initialize a git repository with an initial commit, create the hosted
repository with gh or glab and push to it.

Repositories are private unless --public is given or private_repo is false.
`,
			Args: cobra.NoArgs,
		}, gitFlags, runGit,
	)
}

var gitFlags = []commandLineFlag{providerFlag, publicFlag}

func runGit(ctx *Context, _ []string) error {
	provider := ctx.Config.GitProvider
	tool, err := vcs.Tool(provider)
	if err != nil {
		return err
	}
	if err := runner.RequireTools(ctx.Runner, "git", tool); err != nil {
		return err
	}

	public, err := ctx.BoolParam("public")
	if err != nil {
		return err
	}
	private := ctx.Config.PrivateRepo && !public

	repo := vcs.New(ctx.Runner, ctx.ProjectDir)
	if err := repo.Init(ctx); err != nil {
		return err
	}

	if remote := ctx.State.Get(state.KeyGitRemote); remote != "" {
		logger.Info(ctx, "Remote already created", "url", remote)
		_, _ = fmt.Fprintf(ctx.Out(), "Repository: %s\n", remote)
		return nil
	}

	url, err := repo.CreateRemote(ctx, provider, ctx.ProjectName(), private)
	if err != nil {
		return err
	}

	ctx.State.Set(state.KeyGitProvider, provider)
	ctx.State.Set(state.KeyGitRemote, url)
	if err := ctx.SaveState(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(ctx.Out(), "Pushed to %s\n", url)
	return nil
}
