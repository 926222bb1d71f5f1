package transformers

import (
	"context"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"go.abhg.dev/goldmark/wikilink"

	"git.home.luguber.info/inful/gardenbuild/internal/content"
	"git.home.luguber.info/inful/gardenbuild/internal/markdown"
	"git.home.luguber.info/inful/gardenbuild/internal/plugin"
)

const ObsidianName = "obsidian-flavored-markdown"

var obsidianSchema = map[string]any{
	"type":                 "object",
	"description":          "Obsidian syntax: wikilinks, ==highlights==, #tags, callouts and %% comments %%",
	"additionalProperties": false,
	"properties": map[string]any{
		"wikilinks":  map[string]any{"type": "boolean"},
		"highlight":  map[string]any{"type": "boolean"},
		"parse_tags": map[string]any{"type": "boolean"},
		"callouts":   map[string]any{"type": "boolean"},
		"comments":   map[string]any{"type": "boolean"},
		// Raw HTML blocks always pass through untouched.
		"enable_in_html_embed": map[string]any{"type": "boolean"},
	},
}

type obsidianOptions struct {
	Wikilinks         bool `json:"wikilinks"`
	Highlight         bool `json:"highlight"`
	ParseTags         bool `json:"parse_tags"`
	Callouts          bool `json:"callouts"`
	Comments          bool `json:"comments"`
	EnableInHTMLEmbed bool `json:"enable_in_html_embed"`
}

// Obsidian adds the vault dialect on top of CommonMark.
type Obsidian struct {
	plugin.Base
	opts obsidianOptions

	fallbackOnce sync.Once
	fallback     *content.Resolver
}

func newObsidian(options map[string]any) (plugin.Plugin, error) {
	opts := obsidianOptions{Wikilinks: true, Highlight: true, ParseTags: true, Callouts: true, Comments: true}
	if err := plugin.DecodeOptions(options, &opts); err != nil {
		return nil, err
	}
	return &Obsidian{
		Base: plugin.Base{Meta: meta(ObsidianName, obsidianSchema["description"].(string))},
		opts: opts,
	}, nil
}

func (t *Obsidian) MarkdownExtensions() []goldmark.Extender {
	var exts []goldmark.Extender
	if t.opts.Highlight {
		exts = append(exts, markdown.Highlight{})
	}
	if t.opts.Callouts {
		exts = append(exts, markdown.Callouts{})
	}
	return exts
}

func (t *Obsidian) Transform(_ context.Context, doc *content.Document, site *plugin.Site) error {
	if t.opts.Comments {
		doc.Body = markdown.StripComments(doc.Body)
	}
	if t.opts.ParseTags {
		doc.AddTags(markdown.ExtractTags(doc.Body)...)
		doc.Extensions = append(doc.Extensions, markdown.TagLinks{URL: site.TagURL})
	}
	if t.opts.Wikilinks {
		doc.Extensions = append(doc.Extensions, &wikilink.Extender{
			Resolver: &wikiResolver{doc: doc, site: site, fallback: t.fallbackResolver},
		})
	}
	return nil
}

// fallbackResolver serves documents rendered without crawl-links.
func (t *Obsidian) fallbackResolver(site *plugin.Site) *content.Resolver {
	t.fallbackOnce.Do(func() {
		t.fallback = content.NewResolver(content.StrategyShortest, site.AllSlugs, site.Assets)
	})
	return t.fallback
}

// wikiResolver maps [[target#fragment]] to a site URL at render time, after
// link crawling has attached the build's resolver to the document.
type wikiResolver struct {
	doc      *content.Document
	site     *plugin.Site
	fallback func(*plugin.Site) *content.Resolver
}

func (r *wikiResolver) ResolveWikilink(n *wikilink.Node) ([]byte, error) {
	resolver := r.doc.Resolver
	if resolver == nil {
		resolver = r.fallback(r.site)
	}
	res := resolver.Resolve(r.doc.Slug, string(n.Target))
	if !res.Found {
		return nil, nil
	}
	if res.IsAsset {
		return []byte(r.site.AssetURL(res.Slug)), nil
	}
	dest := ""
	if res.Slug != r.doc.Slug || len(n.Target) > 0 {
		dest = r.site.URL(res.Slug)
	}
	if len(n.Fragment) > 0 {
		dest += "#" + HeadingAnchor(string(n.Fragment))
	}
	return []byte(dest), nil
}

// HeadingAnchor converts a heading reference to the id goldmark generates
// for that heading.
func HeadingAnchor(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r == ' ' || r == '-':
			b.WriteRune('-')
		case r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r > 0x7f:
			b.WriteRune(r)
		}
	}
	return b.String()
}
