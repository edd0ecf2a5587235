package vcs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ieshan/bit2/internal/runner/runnertest"
	"github.com/ieshan/bit2/internal/vcs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRemoteURL(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		out      string
		want     string
		wantErr  bool
	}{
		{
			name:     "GitHub",
			provider: vcs.GitHub,
			out:      "✓ Created repository ieshan/my-app on GitHub\n  https://github.com/ieshan/my-app\n✓ Added remote https://github.com/ieshan/my-app.git",
			want:     "https://github.com/ieshan/my-app",
		},
		{
			name:     "GitLabSubgroup",
			provider: vcs.GitLab,
			out:      "✓ Created repository ieshan / web / my-app on GitLab: https://gitlab.com/ieshan/web/my-app\n",
			want:     "https://gitlab.com/ieshan/web/my-app",
		},
		{name: "NoURL", provider: vcs.GitHub, out: "error", wantErr: true},
		{name: "UnknownProvider", provider: "bitbucket", out: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := vcs.ParseRemoteURL(tt.provider, tt.out)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRepo_Init(t *testing.T) {
	ctx := context.Background()

	t.Run("FreshDirectory", func(t *testing.T) {
		fake := runnertest.New().On("git rev-parse", runnertest.Response{ExitCode: 128})
		require.NoError(t, vcs.New(fake, t.TempDir()).Init(ctx))
		assert.Equal(t, []string{
			"git init -b main",
			"git rev-parse --verify HEAD",
			"git add -A",
			"git commit -m Initial commit from bit2",
		}, fake.Lines())
	})

	t.Run("ExistingRepository", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0750))
		fake := runnertest.New()
		require.NoError(t, vcs.New(fake, dir).Init(ctx))
		assert.Equal(t, []string{"git rev-parse --verify HEAD"}, fake.Lines())
	})
}

func TestRepo_CreateRemote(t *testing.T) {
	ctx := context.Background()

	t.Run("GitHub", func(t *testing.T) {
		fake := runnertest.New().On("gh repo create", runnertest.Response{Stdout: "https://github.com/ieshan/app\n"})
		url, err := vcs.New(fake, t.TempDir()).CreateRemote(ctx, vcs.GitHub, "app", true)
		require.NoError(t, err)
		assert.Equal(t, "https://github.com/ieshan/app", url)
		assert.Equal(t, []string{"gh repo create app --private --source . --remote origin --push"}, fake.Lines())
	})

	t.Run("GitLab", func(t *testing.T) {
		fake := runnertest.New().
			On("glab repo create", runnertest.Response{Stdout: "✓ Created repository on GitLab: https://gitlab.com/ieshan/app"}).
			On("git remote get-url", runnertest.Response{ExitCode: 2})
		url, err := vcs.New(fake, t.TempDir()).CreateRemote(ctx, vcs.GitLab, "app", false)
		require.NoError(t, err)
		assert.Equal(t, "https://gitlab.com/ieshan/app", url)
		assert.Equal(t, []string{
			"glab repo create app --public --defaultBranch main",
			"git remote get-url origin",
			"git remote add origin https://gitlab.com/ieshan/app.git",
			"git push -u origin HEAD",
		}, fake.Lines())
	})

	t.Run("UnknownProvider", func(t *testing.T) {
		_, err := vcs.New(runnertest.New(), t.TempDir()).CreateRemote(ctx, "svn", "app", true)
		require.ErrorIs(t, err, vcs.ErrUnknownProvider)
	})
}

func TestTool(t *testing.T) {
	tool, err := vcs.Tool(vcs.GitLab)
	require.NoError(t, err)
	assert.Equal(t, "glab", tool)

	_, err = vcs.Tool("hg")
	require.ErrorIs(t, err, vcs.ErrUnknownProvider)
}
