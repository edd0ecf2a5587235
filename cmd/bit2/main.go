package main

import (
	"os"

	"github.com/ieshan/bit2/internal/build"
	"github.com/ieshan/bit2/internal/cmd"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   build.Slug,
	Short: "bit2 sets up Astro apps backed by Turso",
	Long: `bit2 sets up Astro apps backed by Turso.

It scaffolds the project, creates the libSQL database, applies the schema
and seed files, pushes the code to GitHub or GitLab and deploys it to
Cloudflare Pages, Vercel or Netlify.
`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(cmd.New())
	rootCmd.AddCommand(cmd.DB())
	rootCmd.AddCommand(cmd.Git())
	rootCmd.AddCommand(cmd.Deploy())
	rootCmd.AddCommand(cmd.Status())
	rootCmd.AddCommand(cmd.Version())

	rootCmd.Version = build.Version
}
