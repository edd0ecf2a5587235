package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/ieshan/bit2/internal/logger"
	"github.com/ieshan/bit2/internal/scaffold"
	"github.com/ieshan/bit2/internal/state"
	"github.com/spf13/cobra"
)

func New() *cobra.Command {
	return NewCommand(
		&cobra.Command{
			Use:   "new [flags] <name>",
			Short: "Create a new Astro + Turso project",
			Long: `Generate an Astro project wired to a libSQL database.

The project is written to <project-dir>/<name> unless --dir is given. The
Astro adapter matches --platform (cloudflare, vercel, netlify or node).

Example:
  bit2 new my-app --platform vercel
`,
			Args: cobra.ExactArgs(1),
		}, newFlags, runNew,
	)
}

var newFlags = []commandLineFlag{platformFlag, forceFlag, dirFlag}

func runNew(ctx *Context, args []string) error {
	name := args[0]

	dir, err := ctx.StringParam("dir")
	if err != nil {
		return err
	}
	if dir == "" {
		dir = filepath.Join(ctx.ProjectDir, name)
	}
	dir = ctx.Path(dir)

	force, err := ctx.BoolParam("force")
	if err != nil {
		return err
	}

	res, err := scaffold.Generate(ctx, scaffold.Options{
		Dir:      dir,
		Name:     name,
		Platform: ctx.Config.Platform,
		LocalDB:  ctx.Config.DB.LocalPath,
		Force:    force,
	})
	if err != nil {
		return fmt.Errorf("failed to generate project: %w", err)
	}
	logger.Info(ctx, "Project generated", "dir", res.Dir, "files", len(res.Files))

	st, err := state.Load(dir)
	if err != nil {
		return err
	}
	st.Set(state.KeyProjectName, name)
	st.Set(state.KeyPlatform, ctx.Config.Platform)
	if err := st.Save(time.Now()); err != nil {
		return fmt.Errorf("failed to save project state: %w", err)
	}

	out := ctx.Out()
	_, _ = fmt.Fprintf(out, "Created %s in %s\n\n", name, dir)
	_, _ = fmt.Fprintf(out, "Next steps:\n")
	_, _ = fmt.Fprintf(out, "  cd %s\n", dir)
	_, _ = fmt.Fprintf(out, "  bit2 db create\n")
	_, _ = fmt.Fprintf(out, "  bit2 db apply\n")
	_, _ = fmt.Fprintf(out, "  bit2 git\n")
	_, _ = fmt.Fprintf(out, "  bit2 deploy\n")
	return nil
}
