package gitversion

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"git.home.luguber.info/inful/buildmatrix/internal/foundation/errors"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte("[workspace]\n"), 0o600))
	_, err = wt.Add("Cargo.toml")
	require.NoError(t, err)
	hash, err := wt.Commit("init", &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir, hash.String()
}

func TestResolve_Placeholder(t *testing.T) {
	dir, sha := initRepo(t)

	v, err := Resolve(dir, Placeholder)
	require.NoError(t, err)
	assert.Equal(t, "git-"+sha[:7], v)
}

func TestResolve_FromSubdirectory(t *testing.T) {
	dir, sha := initRepo(t)
	sub := filepath.Join(dir, "dcompass")
	require.NoError(t, os.Mkdir(sub, 0o750))

	v, err := Resolve(sub, Placeholder)
	require.NoError(t, err)
	assert.Equal(t, "git-"+sha[:7], v)
}

func TestResolve_ExplicitVersionUntouched(t *testing.T) {
	v, err := Resolve(t.TempDir(), "0.3.0")
	require.NoError(t, err)
	assert.Equal(t, "0.3.0", v)
}

func TestResolve_NotARepository(t *testing.T) {
	_, err := Resolve(t.TempDir(), Placeholder)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryGit))
}
