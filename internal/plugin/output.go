package plugin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrPathEscapesOutput is returned for output paths outside the output dir.
var ErrPathEscapesOutput = errors.New("path escapes output directory")

// Output is where emitters write. Paths are slash-separated and relative to
// the output directory.
type Output interface {
	Dir() string
	WriteFile(ctx context.Context, relPath string, data []byte) (string, error)
	CopyFile(ctx context.Context, src, relPath string) (string, error)
	Exists(relPath string) bool
}

// DirOutput writes below a root directory.
type DirOutput struct {
	root string
}

// NewDirOutput returns an Output rooted at dir.
func NewDirOutput(dir string) *DirOutput {
	return &DirOutput{root: dir}
}

func (o *DirOutput) Dir() string { return o.root }

// clean validates relPath and returns it cleaned along with the absolute path.
func (o *DirOutput) clean(relPath string) (string, string, error) {
	rel := path.Clean(strings.ReplaceAll(relPath, "\\", "/"))
	if rel == "." || rel == ".." || path.IsAbs(rel) || strings.HasPrefix(rel, "../") {
		return "", "", fmt.Errorf("%w: %q", ErrPathEscapesOutput, relPath)
	}
	return rel, filepath.Join(o.root, filepath.FromSlash(rel)), nil
}

// WriteFile writes data to relPath, creating parent directories.
func (o *DirOutput) WriteFile(ctx context.Context, relPath string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	rel, abs, err := o.clean(relPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return "", err
	}
	return rel, nil
}

// CopyFile copies src to relPath.
func (o *DirOutput) CopyFile(ctx context.Context, src, relPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	rel, abs, err := o.clean(relPath)
	if err != nil {
		return "", err
	}
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(abs)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return rel, nil
}

// Exists reports whether relPath exists in the output.
func (o *DirOutput) Exists(relPath string) bool {
	_, abs, err := o.clean(relPath)
	if err != nil {
		return false
	}
	_, err = os.Stat(abs)
	return err == nil
}
