package transformers

import (
	"context"
	"fmt"
	"sync"

	"git.home.luguber.info/inful/gardenbuild/internal/content"
	"git.home.luguber.info/inful/gardenbuild/internal/gitdates"
	"git.home.luguber.info/inful/gardenbuild/internal/plugin"
)

const DatesName = "created-modified-date"

// Date sources accepted in the priority option.
const (
	DateSourceFrontMatter = "frontmatter"
	DateSourceFilesystem  = "filesystem"
	DateSourceGit         = "git"
)

var datesSchema = map[string]any{
	"type":                 "object",
	"description":          "Fill created, modified and published dates from front matter, file times or git history",
	"additionalProperties": false,
	"properties": map[string]any{
		"priority": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items":    map[string]any{"enum": []any{DateSourceFrontMatter, DateSourceFilesystem, DateSourceGit}},
		},
	},
}

// Dates fills article dates from the configured sources. A date set by an
// earlier source is never overwritten by a later one.
type Dates struct {
	plugin.Base
	priority []string

	gitOnce sync.Once
	git     *gitdates.Resolver
}

func newDates(options map[string]any) (plugin.Plugin, error) {
	opts := struct {
		Priority []string `json:"priority"`
	}{Priority: []string{DateSourceFrontMatter, DateSourceFilesystem}}
	if err := plugin.DecodeOptions(options, &opts); err != nil {
		return nil, err
	}
	return &Dates{
		Base:     plugin.Base{Meta: meta(DatesName, datesSchema["description"].(string))},
		priority: opts.Priority,
	}, nil
}

func (t *Dates) gitResolver(contentDir string) *gitdates.Resolver {
	t.gitOnce.Do(func() { t.git = gitdates.New(contentDir) })
	return t.git
}

func (t *Dates) Transform(_ context.Context, doc *content.Document, site *plugin.Site) error {
	d := &doc.Dates
	for _, source := range t.priority {
		switch source {
		case DateSourceFrontMatter:
			if c, ok := content.FirstDate(doc.FrontMatter, content.CreatedKeys); ok && d.Created.IsZero() {
				d.Created = c
			}
			if m, ok := content.FirstDate(doc.FrontMatter, content.ModifiedKeys); ok && d.Modified.IsZero() {
				d.Modified = m
			}
			if p, ok := content.FirstDate(doc.FrontMatter, content.PublishedKeys); ok && d.Published.IsZero() {
				d.Published = p
			}
		case DateSourceFilesystem:
			mod := doc.Source.ModTime
			if mod.IsZero() {
				continue
			}
			if d.Created.IsZero() {
				d.Created = mod
			}
			if d.Modified.IsZero() {
				d.Modified = mod
			}
		case DateSourceGit:
			created, modified, ok := t.gitResolver(site.ContentDir).Dates(doc.RelativePath)
			if !ok {
				continue
			}
			if d.Created.IsZero() {
				d.Created = created
			}
			if d.Modified.IsZero() {
				d.Modified = modified
			}
		default:
			return fmt.Errorf("unknown date source %q", source)
		}
	}
	return nil
}
