package gitdates

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commitFile(t *testing.T, repo *git.Repository, root, rel, body string, when time.Time) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
	require.NoError(t, os.WriteFile(full, []byte(body), 0o600))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(rel)
	require.NoError(t, err)
	sig := &object.Signature{Name: "test", Email: "test@example.com", When: when}
	_, err = wt.Commit("update "+rel, &git.CommitOptions{Author: sig, Committer: sig})
	require.NoError(t, err)
}

func TestDates(t *testing.T) {
	root := t.TempDir()
	repo, err := git.PlainInit(root, false)
	require.NoError(t, err)

	first := time.Date(2023, 1, 2, 10, 0, 0, 0, time.UTC)
	second := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	commitFile(t, repo, root, "content/a.md", "one", first)
	commitFile(t, repo, root, "content/b.md", "other", first.Add(time.Hour))
	commitFile(t, repo, root, "content/a.md", "two", second)

	r := New(filepath.Join(root, "content"))
	require.True(t, r.Available())

	created, modified, ok := r.Dates("a.md")
	require.True(t, ok)
	assert.True(t, created.Equal(first), created)
	assert.True(t, modified.Equal(second), modified)

	created, modified, ok = r.Dates("b.md")
	require.True(t, ok)
	assert.True(t, created.Equal(modified))

	_, _, ok = r.Dates("missing.md")
	assert.False(t, ok)
}

func TestDates_NoRepository(t *testing.T) {
	r := New(t.TempDir())
	assert.False(t, r.Available())
	_, _, ok := r.Dates("a.md")
	assert.False(t, ok)
}
