// Package filters holds the built-in publish filters.
package filters

import (
	"git.home.luguber.info/inful/gardenbuild/internal/content"
	"git.home.luguber.info/inful/gardenbuild/internal/plugin"
)

const (
	RemoveDraftsName    = "remove-drafts"
	ExplicitPublishName = "explicit-publish"
)

var (
	removeDraftsSchema = map[string]any{
		"type":                 "object",
		"description":          "Drop documents marked draft: true",
		"additionalProperties": false,
	}
	explicitPublishSchema = map[string]any{
		"type":                 "object",
		"description":          "Keep only documents marked publish: true",
		"additionalProperties": false,
	}
)

// Register adds the built-in filters to r.
func Register(r *plugin.Registry) error {
	if err := r.Register(RemoveDraftsName, plugin.TypeFilter, "v1", removeDraftsSchema, newRemoveDrafts); err != nil {
		return err
	}
	return r.Register(ExplicitPublishName, plugin.TypeFilter, "v1", explicitPublishSchema, newExplicitPublish)
}

type RemoveDrafts struct{ plugin.Base }

func newRemoveDrafts(map[string]any) (plugin.Plugin, error) {
	return &RemoveDrafts{plugin.Base{Meta: plugin.Metadata{
		Name: RemoveDraftsName, Version: "v1", Type: plugin.TypeFilter,
		Description: removeDraftsSchema["description"].(string),
	}}}, nil
}

func (f *RemoveDrafts) Keep(doc *content.Document) bool { return !isTrue(doc, "draft", doc.Draft) }

type ExplicitPublish struct{ plugin.Base }

func newExplicitPublish(map[string]any) (plugin.Plugin, error) {
	return &ExplicitPublish{plugin.Base{Meta: plugin.Metadata{
		Name: ExplicitPublishName, Version: "v1", Type: plugin.TypeFilter,
		Description: explicitPublishSchema["description"].(string),
	}}}, nil
}

func (f *ExplicitPublish) Keep(doc *content.Document) bool {
	return isTrue(doc, "publish", doc.Publish)
}

// isTrue reads the article field, falling back to the raw front matter when
// the frontmatter transformer did not run.
func isTrue(doc *content.Document, key string, field bool) bool {
	if field {
		return true
	}
	switch v := doc.FrontMatter[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}

// KeepAll reports whether every filter keeps doc.
func KeepAll(fs []plugin.Filter, doc *content.Document) bool {
	for _, f := range fs {
		if !f.Keep(doc) {
			return false
		}
	}
	return true
}
