package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/gardenbuild/internal/content"
	"git.home.luguber.info/inful/gardenbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/gardenbuild/internal/frontmatter"
)

// NewCmd scaffolds an article with front matter.
type NewCmd struct {
	Title string   `arg:"" help:"Article title"`
	Tags  []string `sep:"," help:"Comma separated tags"`
	Dir   string   `help:"Sub-directory of the content directory"`
	Draft bool     `help:"Mark the article as a draft"`

	now func() time.Time `kong:"-"`
}

func (n *NewCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfigOrDefault()
	if err != nil {
		return err
	}
	title := strings.TrimSpace(n.Title)
	name := content.SlugifyTag(strings.ReplaceAll(title, "/", " "))
	if name == "" {
		return errors.ValidationError("title has no usable characters").
			WithContext("title", n.Title).Build()
	}
	if strings.Contains(filepath.ToSlash(filepath.Clean(n.Dir)), "..") || filepath.IsAbs(n.Dir) {
		return errors.ValidationError("directory must stay inside the content directory").
			WithContext("dir", n.Dir).Build()
	}
	path := filepath.Join(cfg.Build.ContentDir, n.Dir, name+".md")
	if _, err := os.Stat(path); err == nil {
		return errors.ValidationError("article already exists").
			WithContext("path", path).Build()
	}

	now := time.Now
	if n.now != nil {
		now = n.now
	}
	today := now()
	fields := map[string]any{
		"title":   title,
		"created": time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC),
	}
	if len(n.Tags) > 0 {
		fields["tags"] = n.Tags
	}
	if n.Draft {
		fields["draft"] = true
	}
	style := frontmatter.Style{Newline: "\n", HasTrailingNewline: true}
	fm, err := frontmatter.SerializeYAML(fields, style)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to encode front matter").Build()
	}
	doc := frontmatter.Join(fm, []byte("\n"), frontmatter.FormatYAML, true, style)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create directory").
			WithContext("path", filepath.Dir(path)).Build()
	}
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write article").
			WithContext("path", path).Build()
	}
	_, _ = fmt.Fprintf(g.Stdout, "Created %s\n", path)
	return nil
}
