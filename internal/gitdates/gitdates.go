// Package gitdates derives article creation and modification dates from the
// git history of the content directory.
package gitdates

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Resolver answers date queries for files below a content directory. It
// opens the enclosing repository on first use and caches results per path.
type Resolver struct {
	contentDir string

	openOnce sync.Once
	repo     *git.Repository
	root     string
	openErr  error

	mu    sync.Mutex
	cache map[string]entry
}

type entry struct {
	created, modified time.Time
	ok                bool
}

// New returns a Resolver for contentDir.
func New(contentDir string) *Resolver {
	return &Resolver{contentDir: contentDir, cache: map[string]entry{}}
}

func (r *Resolver) open() error {
	r.openOnce.Do(func() {
		abs, err := filepath.Abs(r.contentDir)
		if err != nil {
			r.openErr = err
			return
		}
		repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
		if err != nil {
			r.openErr = fmt.Errorf("open repository: %w", err)
			return
		}
		wt, err := repo.Worktree()
		if err != nil {
			r.openErr = fmt.Errorf("worktree: %w", err)
			return
		}
		r.repo = repo
		r.root = wt.Filesystem.Root()
	})
	return r.openErr
}

// Available reports whether the content directory is inside a repository.
func (r *Resolver) Available() bool { return r.open() == nil }

// Dates returns the oldest and newest commit times touching relPath, which
// is relative to the content directory. ok is false when there is no
// repository or the file has no history. Lookups are serialized.
func (r *Resolver) Dates(relPath string) (created, modified time.Time, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, hit := r.cache[relPath]
	if !hit {
		e = r.lookup(relPath)
		r.cache[relPath] = e
	}
	return e.created, e.modified, e.ok
}

func (r *Resolver) lookup(relPath string) entry {
	if err := r.open(); err != nil {
		return entry{}
	}
	abs, err := filepath.Abs(filepath.Join(r.contentDir, filepath.FromSlash(relPath)))
	if err != nil {
		return entry{}
	}
	inRepo, err := filepath.Rel(r.root, abs)
	if err != nil {
		return entry{}
	}
	inRepo = filepath.ToSlash(inRepo)

	head, err := r.repo.Head()
	if err != nil {
		return entry{}
	}
	iter, err := r.repo.Log(&git.LogOptions{From: head.Hash(), FileName: &inRepo})
	if err != nil {
		return entry{}
	}
	defer iter.Close()

	var e entry
	err = iter.ForEach(func(c *object.Commit) error {
		when := c.Committer.When
		if !e.ok || when.Before(e.created) {
			e.created = when
		}
		if !e.ok || when.After(e.modified) {
			e.modified = when
		}
		e.ok = true
		return nil
	})
	if err != nil {
		return entry{}
	}
	return e
}
