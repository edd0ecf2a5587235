package runner_test

import (
	"context"
	"runtime"
	"strings"
	"testing"

	"github.com/ieshan/bit2/internal/runner"
	"github.com/ieshan/bit2/internal/runner/runnertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
}

func TestExec_Run(t *testing.T) {
	skipOnWindows(t)
	ctx := context.Background()

	t.Run("CapturesOutput", func(t *testing.T) {
		res, err := runner.Exec{}.Run(ctx, runner.Cmd{
			Name: "sh",
			Args: []string{"-c", "echo out; echo err >&2"},
		})
		require.NoError(t, err)
		assert.Equal(t, "out\n", res.Stdout)
		assert.Equal(t, "err\n", res.Stderr)
		assert.Equal(t, "out\n\nerr\n", res.Output())
	})

	t.Run("StdinAndEnv", func(t *testing.T) {
		res, err := runner.Exec{}.Run(ctx, runner.Cmd{
			Name:  "sh",
			Args:  []string{"-c", "read line; echo \"$line-$BIT2_TEST\""},
			Env:   []string{"BIT2_TEST=ok"},
			Stdin: strings.NewReader("secret\n"),
		})
		require.NoError(t, err)
		assert.Equal(t, "secret-ok\n", res.Stdout)
	})

	t.Run("WorkingDir", func(t *testing.T) {
		dir := t.TempDir()
		res, err := runner.Run(ctx, runner.Exec{}, dir, "pwd")
		require.NoError(t, err)
		assert.Contains(t, res.Stdout, strings.TrimPrefix(dir, "/private"))
	})

	t.Run("NonZeroExit", func(t *testing.T) {
		_, err := runner.Exec{}.Run(ctx, runner.Cmd{Name: "sh", Args: []string{"-c", "echo nope >&2; exit 3"}})
		require.Error(t, err)

		var runErr *runner.Error
		require.ErrorAs(t, err, &runErr)
		assert.Equal(t, 3, runErr.ExitCode)
		assert.Contains(t, runErr.Error(), "exit status 3: nope")
	})

	t.Run("MissingBinary", func(t *testing.T) {
		_, err := runner.Exec{}.Run(ctx, runner.Cmd{Name: "bit2-definitely-not-installed"})
		require.Error(t, err)
		var runErr *runner.Error
		assert.NotErrorAs(t, err, &runErr)
	})
}

func TestRequireTools(t *testing.T) {
	fake := runnertest.New().Missing("wrangler", "turso")

	require.NoError(t, runner.RequireTools(fake, "git", "npm"))

	err := runner.RequireTools(fake, "git", "turso", "wrangler")
	var missing *runner.MissingToolsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"turso", "wrangler"}, missing.Tools)
}

func TestCmd_String(t *testing.T) {
	assert.Equal(t, "turso db show app --url", runner.Cmd{Name: "turso", Args: []string{"db", "show", "app", "--url"}}.String())
	assert.Equal(t, "git", runner.Cmd{Name: "git"}.String())
	assert.Equal(t, "netlify env:set TOKEN ****", runner.Cmd{
		Name:    "netlify",
		Args:    []string{"env:set", "TOKEN", "s3cret"},
		Secrets: []string{"s3cret"},
	}.String())
}
