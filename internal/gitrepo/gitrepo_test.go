package gitrepo

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newLocalRepo creates a git repository with one commit and returns its path.
func newLocalRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}

	run("init", "--initial-branch=main")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hello.py"), []byte("print('hi')\n"), 0o644))
	run("add", ".")
	run("commit", "-m", "initial")
	return dir
}

func TestMaterializeClonesAndReportsMetadata(t *testing.T) {
	origin := newLocalRepo(t)
	target := filepath.Join(t.TempDir(), "copy")

	var m Materializer
	meta, err := m.Materialize(origin, target)
	require.NoError(t, err)

	assert.Equal(t, "main", meta.Branch)
	assert.False(t, meta.LastChange.IsZero())
	assert.FileExists(t, filepath.Join(target, "hello.py"))
}

func TestMaterializePullsExistingCopy(t *testing.T) {
	origin := newLocalRepo(t)
	target := filepath.Join(t.TempDir(), "copy")

	var m Materializer
	_, err := m.Materialize(origin, target)
	require.NoError(t, err)

	// Second pass reuses the working copy.
	meta, err := m.Materialize(origin, target)
	require.NoError(t, err)
	assert.Equal(t, "main", meta.Branch)
}

func TestMaterializeUnreachableRemote(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	var m Materializer
	_, err := m.Materialize(filepath.Join(t.TempDir(), "missing"), filepath.Join(t.TempDir(), "copy"))
	require.Error(t, err)

	var accessErr *AccessError
	assert.ErrorAs(t, err, &accessErr)
}
