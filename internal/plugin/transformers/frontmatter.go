package transformers

import (
	"context"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/gardenbuild/internal/content"
	"git.home.luguber.info/inful/gardenbuild/internal/frontmatter"
	"git.home.luguber.info/inful/gardenbuild/internal/plugin"
)

const FrontMatterName = "frontmatter"

var frontMatterSchema = map[string]any{
	"type":                 "object",
	"description":          "Populate article fields from YAML or TOML front matter",
	"additionalProperties": false,
	"properties": map[string]any{
		"delimiters": map[string]any{
			"type":  "array",
			"items": map[string]any{"enum": []any{"---", "+++"}},
		},
		"language": map[string]any{"enum": []any{"yaml", "toml"}},
	},
}

// FrontMatter copies well-known front matter keys onto the article.
type FrontMatter struct {
	plugin.Base
	allowed map[frontmatter.Format]bool
}

func newFrontMatter(options map[string]any) (plugin.Plugin, error) {
	var opts struct {
		Delimiters []string `json:"delimiters"`
		Language   string   `json:"language"`
	}
	if err := plugin.DecodeOptions(options, &opts); err != nil {
		return nil, err
	}
	if len(opts.Delimiters) == 0 {
		opts.Delimiters = []string{"---", "+++"}
	}
	allowed := map[frontmatter.Format]bool{}
	for _, d := range opts.Delimiters {
		f, ok := frontmatter.FormatForDelimiter(d)
		if !ok {
			return nil, fmt.Errorf("unknown delimiter %q", d)
		}
		if opts.Language != "" && string(f) != opts.Language {
			continue
		}
		allowed[f] = true
	}
	if len(allowed) == 0 {
		return nil, fmt.Errorf("language %q has no enabled delimiter", opts.Language)
	}
	return &FrontMatter{
		Base:    plugin.Base{Meta: meta(FrontMatterName, frontMatterSchema["description"].(string))},
		allowed: allowed,
	}, nil
}

func (t *FrontMatter) Transform(_ context.Context, doc *content.Document, _ *plugin.Site) error {
	if !doc.HadFrontMatter {
		return nil
	}
	if !t.allowed[doc.Format] {
		return fmt.Errorf("%s front matter is not enabled", doc.Format)
	}
	fm := doc.FrontMatter

	if title := strings.TrimSpace(stringField(fm, "title")); title != "" {
		doc.Title = title
	}
	doc.AddTags(content.StringSet(firstPresent(fm, "tags", "tag"))...)
	doc.Aliases = content.StringSet(firstPresent(fm, "aliases", "alias"))
	doc.CSSClasses = content.StringSet(firstPresent(fm, "cssclasses", "cssclass"))
	doc.Draft = boolValue(fm["draft"])
	doc.Publish = boolValue(fm["publish"])
	if d := stringField(fm, "description"); d != "" {
		doc.Description = strings.TrimSpace(d)
	}
	doc.Lang = stringField(fm, "lang")
	doc.Permalink = strings.Trim(stringField(fm, "permalink"), "/")
	return nil
}

func stringField(fm map[string]any, key string) string {
	v, ok := fm[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func firstPresent(fm map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := fm[k]; ok && v != nil {
			return v
		}
	}
	return nil
}
