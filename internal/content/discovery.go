package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/gardenbuild/internal/logfields"
)

// ErrContentDirNotFound is returned when the configured content root is missing.
var ErrContentDirNotFound = errors.New("content directory not found")

// Source is a discovered file below the content root.
type Source struct {
	Path         string    // Absolute path to the file
	RelativePath string    // Slash-separated path relative to the content root
	IsMarkdown   bool      // False for images and other assets
	Size         int64     // Size in bytes
	ModTime      time.Time // Filesystem modification time
}

// Discover walks root and returns every markdown file and asset not excluded
// by ignore. Hidden files and directories are always skipped. The result is
// sorted by relative path.
func Discover(ctx context.Context, root string, ignore []string) ([]Source, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrContentDirNotFound, root)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrContentDirNotFound, root)
	}

	matcher, err := NewIgnoreMatcher(ignore)
	if err != nil {
		return nil, err
	}

	var sources []Source
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if strings.HasPrefix(d.Name(), ".") || matcher.Match(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return err
		}
		sources = append(sources, Source{
			Path:         path,
			RelativePath: rel,
			IsMarkdown:   IsMarkdownFile(rel),
			Size:         fi.Size(),
			ModTime:      fi.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(sources, func(i, j int) bool { return sources[i].RelativePath < sources[j].RelativePath })
	slog.Debug("Content discovered", logfields.Path(root), logfields.Count(len(sources)))
	return sources, nil
}

// IsMarkdownFile reports whether name has a markdown extension.
func IsMarkdownFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// Markdown returns only the markdown sources.
func Markdown(sources []Source) []Source {
	out := make([]Source, 0, len(sources))
	for _, s := range sources {
		if s.IsMarkdown {
			out = append(out, s)
		}
	}
	return out
}

// Assets returns only the non-markdown sources.
func Assets(sources []Source) []Source {
	out := make([]Source, 0, len(sources))
	for _, s := range sources {
		if !s.IsMarkdown {
			out = append(out, s)
		}
	}
	return out
}
