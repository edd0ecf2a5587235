package cmd_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ieshan/bit2"
	"github.com/ieshan/bit2/internal/cmd"
	"github.com/ieshan/bit2/internal/runner/runnertest"
	"github.com/ieshan/bit2/internal/scaffold"
	"github.com/ieshan/bit2/internal/state"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const testConfig = `platform: vercel
git_provider: github
private_repo: true
`

// harness runs commands against a temporary project with a scripted runner.
type harness struct {
	dir    string
	config string
	fake   *runnertest.Fake
}

func setup(t *testing.T) *harness {
	t.Helper()
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(testConfig), 0600))
	return &harness{dir: t.TempDir(), config: cfgFile, fake: runnertest.New()}
}

func (h *harness) run(t *testing.T, c *cobra.Command, args ...string) (string, error) {
	t.Helper()
	return h.execute(c, io.Discard, append(args, "--quiet")...)
}

// runLogged is run without --quiet. It returns the log lines as well.
func (h *harness) runLogged(t *testing.T, c *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	var log bytes.Buffer
	out, err := h.execute(c, &log, args...)
	return out, log.String(), err
}

func (h *harness) execute(c *cobra.Command, stderr io.Writer, args ...string) (string, error) {
	root := &cobra.Command{Use: "root"}
	root.AddCommand(c)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(stderr)
	root.SetArgs(append(args, "--config", h.config, "--project-dir", h.dir))

	err := root.ExecuteContext(cmd.WithRunner(context.Background(), h.fake))
	return out.String(), err
}

// project generates the template into the harness directory and records it
// in the state file, the way "bit2 new" does.
func (h *harness) project(t *testing.T, platform string) {
	t.Helper()
	_, err := scaffold.Generate(context.Background(), scaffold.Options{Dir: h.dir, Name: "my-app", Platform: platform})
	require.NoError(t, err)
	h.setState(t, map[string]string{
		state.KeyProjectName: "my-app",
		state.KeyPlatform:    platform,
	})
}

func (h *harness) setState(t *testing.T, values map[string]string) {
	t.Helper()
	st, err := state.Load(h.dir)
	require.NoError(t, err)
	for k, v := range values {
		st.Set(k, v)
	}
	require.NoError(t, st.Save(time.Now()))
}

func (h *harness) loadState(t *testing.T) *state.State {
	t.Helper()
	st, err := state.Load(h.dir)
	require.NoError(t, err)
	return st
}

func (h *harness) countNotes(t *testing.T) int64 {
	t.Helper()
	m := bit2.NewConnectionManager()
	m.RegisterDefaultDrivers()
	m.SetDsn("check", bit2.DbSqlite, filepath.Join(h.dir, "local.db"))
	defer func() { _ = m.CloseAll() }()

	db, err := m.GetConnection("check")
	require.NoError(t, err)
	var n int64
	require.NoError(t, db.Table("notes").Count(&n).Error)
	return n
}
