package cmd

import (
	"fmt"

	"github.com/ieshan/bit2/internal/state"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func Status() *cobra.Command {
	return NewCommand(
		&cobra.Command{
			Use:   "status [flags]",
			Short: "Show what has been set up for the project",
			Args:  cobra.NoArgs,
		}, nil, runStatus,
	)
}

var statusRows = []struct {
	label string
	key   string
}{
	{"Project", state.KeyProjectName},
	{"Platform", state.KeyPlatform},
	{"Database", state.KeyDBName},
	{"Database URL", state.KeyDBURL},
	{"Schema applied", state.KeySchemaApplied},
	{"Seed applied", state.KeySeedApplied},
	{"Git provider", state.KeyGitProvider},
	{"Repository", state.KeyGitRemote},
	{"Deployment", state.KeyDeployURL},
	{"Updated", state.KeyUpdatedAt},
}

var statusHeader = table.Row{"Step", "Value"}

func runStatus(ctx *Context, _ []string) error {
	if len(ctx.State.Keys()) == 0 {
		_, _ = fmt.Fprintf(ctx.Out(), "No bit2 project in %s (missing %s)\n", ctx.ProjectDir, state.FileName)
		return nil
	}

	env, err := databaseEnv(ctx)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.AppendHeader(statusHeader)
	for _, row := range statusRows {
		value := ctx.State.Get(row.key)
		if value == "" {
			value = "-"
		}
		t.AppendRow(table.Row{row.label, value})
	}
	credentials := "missing"
	if env[state.EnvAuthToken] != "" {
		credentials = state.SecretsFile
	}
	t.AppendRow(table.Row{"Credentials", credentials})

	_, _ = fmt.Fprintln(ctx.Out(), t.Render())
	return nil
}
