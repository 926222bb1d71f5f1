package preview

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/gardenbuild/internal/content"
	"git.home.luguber.info/inful/gardenbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/gardenbuild/internal/logfields"
)

// watcher is a recursive fsnotify watch on the content dir.
type watcher struct {
	fs     *fsnotify.Watcher
	root   string
	ignore *content.IgnoreMatcher
}

func newWatcher(root string, ignore *content.IgnoreMatcher) (*watcher, error) {
	if st, err := os.Stat(root); err != nil || !st.IsDir() {
		return nil, errors.NewError(errors.CategoryNotFound, "content dir not found or not a directory").
			WithContext(logfields.KeyPath, root).Build()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "fsnotify").Build()
	}
	w := &watcher{fs: fw, root: root, ignore: ignore}
	if err := w.addRecursive(root); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

func (w *watcher) Events() <-chan fsnotify.Event { return w.fs.Events }
func (w *watcher) Errors() <-chan error          { return w.fs.Errors }
func (w *watcher) Close() error                  { return w.fs.Close() }

// Handle reports whether ev should trigger a rebuild. Newly created
// directories are added to the watch.
func (w *watcher) Handle(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod || w.ignored(ev.Name) {
		return false
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = w.addRecursive(ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	return true
}

func (w *watcher) ignored(path string) bool {
	if shouldIgnoreEvent(path) {
		return true
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return true
	}
	return w.ignore.Match(filepath.ToSlash(rel))
}

func (w *watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != w.root && w.ignored(path) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnoreEvent returns true for hidden, editor swap and OS metadata
// files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"),
		strings.HasSuffix(base, ".swp"),
		strings.HasSuffix(base, ".swx"),
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case base == "Thumbs.db":
		return true
	}
	return false
}
