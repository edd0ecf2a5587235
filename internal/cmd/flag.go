package cmd

import (
	"fmt"

	"github.com/ieshan/bit2"
	"github.com/ieshan/bit2/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type commandLineFlag struct {
	name, shorthand, defaultValue, usage string
	required                             bool
	isBool                               bool
	// bindViper is the config key the flag overrides, if any.
	bindViper string
	// validate rejects bad values given on the command line. Bad values
	// from the config file only produce a warning.
	validate func(string) error
}

var (
	configFlag = commandLineFlag{
		name:      "config",
		shorthand: "c",
		usage:     "config file (default is $HOME/.config/bit2/config.yaml)",
	}
	quietFlag = commandLineFlag{
		name:      "quiet",
		shorthand: "q",
		usage:     "suppress log output",
		isBool:    true,
	}
	debugFlag = commandLineFlag{
		name:      "debug",
		usage:     "enable debug logging",
		isBool:    true,
		bindViper: "debug",
	}
	projectDirFlag = commandLineFlag{
		name:         "project-dir",
		shorthand:    "C",
		defaultValue: ".",
		usage:        "project directory",
	}
	platformFlag = commandLineFlag{
		name:      "platform",
		shorthand: "p",
		usage:     "hosting platform (cloudflare, vercel, netlify, node)",
		bindViper: "platform",
		validate:  config.ValidatePlatform,
	}
	forceFlag = commandLineFlag{
		name:   "force",
		usage:  "write into a non-empty directory",
		isBool: true,
	}
	dirFlag = commandLineFlag{
		name:  "dir",
		usage: "target directory (default is <project-dir>/<name>)",
	}
	dbNameFlag = commandLineFlag{
		name:  "name",
		usage: "database name (default is the project name)",
	}
	groupFlag = commandLineFlag{
		name:      "group",
		usage:     "turso placement group",
		bindViper: "turso.group",
	}
	localFlag = commandLineFlag{
		name:   "local",
		usage:  "use the local SQLite file",
		isBool: true,
	}
	remoteFlag = commandLineFlag{
		name:   "remote",
		usage:  "use the Turso database from .env",
		isBool: true,
	}
	schemaFlag = commandLineFlag{
		name:      "schema",
		usage:     "schema file",
		bindViper: "db.schema",
	}
	seedFlag = commandLineFlag{
		name:      "seed",
		usage:     "seed file",
		bindViper: "db.seed",
	}
	skipSeedFlag = commandLineFlag{
		name:   "skip-seed",
		usage:  "apply the schema only",
		isBool: true,
	}
	viaShellFlag = commandLineFlag{
		name:   "via-shell",
		usage:  "send statements through \"turso db shell\" one at a time",
		isBool: true,
	}
	onErrorFlag = commandLineFlag{
		name:      "on-error",
		usage:     "what to do when a statement fails (abort, continue)",
		bindViper: "db.on_error",
		validate: func(s string) error {
			_, err := bit2.ParseErrorPolicy(s)
			return err
		},
	}
	dropFlag = commandLineFlag{
		name:   "drop",
		usage:  "drop the tables instead of deleting their rows",
		isBool: true,
	}
	providerFlag = commandLineFlag{
		name:      "provider",
		usage:     "git provider (github, gitlab)",
		bindViper: "git_provider",
		validate:  config.ValidateGitProvider,
	}
	publicFlag = commandLineFlag{
		name:   "public",
		usage:  "create a public repository",
		isBool: true,
	}
	previewFlag = commandLineFlag{
		name:   "preview",
		usage:  "create a preview deployment instead of a production one",
		isBool: true,
	}
)

// commonFlags are added to every command.
var commonFlags = []commandLineFlag{configFlag, quietFlag, debugFlag, projectDirFlag}

func initFlags(cmd *cobra.Command, addFlags ...commandLineFlag) {
	flags := append(append([]commandLineFlag{}, commonFlags...), addFlags...)
	for _, flag := range flags {
		if flag.isBool {
			cmd.Flags().BoolP(flag.name, flag.shorthand, flag.defaultValue == "true", flag.usage)
		} else {
			cmd.Flags().StringP(flag.name, flag.shorthand, flag.defaultValue, flag.usage)
		}
		if flag.required {
			if err := cmd.MarkFlagRequired(flag.name); err != nil {
				fmt.Printf("failed to mark flag %s as required: %v\n", flag.name, err)
			}
		}
	}
}

// bindFlags binds the flags that override config keys to v.
func bindFlags(cmd *cobra.Command, v *viper.Viper, addFlags ...commandLineFlag) error {
	flags := append(append([]commandLineFlag{}, commonFlags...), addFlags...)
	for _, flag := range flags {
		if flag.bindViper == "" {
			continue
		}
		if err := v.BindPFlag(flag.bindViper, cmd.Flags().Lookup(flag.name)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag.name, err)
		}
	}
	return nil
}

// validateFlags checks the flags that were set explicitly.
func validateFlags(cmd *cobra.Command, addFlags ...commandLineFlag) error {
	for _, flag := range addFlags {
		if flag.validate == nil || !cmd.Flags().Changed(flag.name) {
			continue
		}
		val, err := cmd.Flags().GetString(flag.name)
		if err != nil {
			return fmt.Errorf("failed to get flag %s: %w", flag.name, err)
		}
		if err := flag.validate(val); err != nil {
			return fmt.Errorf("--%s: %w", flag.name, err)
		}
	}
	return nil
}
