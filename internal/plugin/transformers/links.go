package transformers

import (
	"context"
	"sync"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/gardenbuild/internal/config"
	"git.home.luguber.info/inful/gardenbuild/internal/content"
	"git.home.luguber.info/inful/gardenbuild/internal/markdown"
	"git.home.luguber.info/inful/gardenbuild/internal/plugin"
)

const CrawlLinksName = "crawl-links"

var crawlLinksSchema = map[string]any{
	"type":                 "object",
	"description":          "Resolve internal links to slugs, record the link graph and rewrite destinations",
	"additionalProperties": false,
	"properties": map[string]any{
		"markdown_link_resolution": map[string]any{"enum": []any{"absolute", "relative", "shortest"}},
		"pretty_links":             map[string]any{"type": "boolean"},
	},
}

// CrawlLinks resolves every internal link of a document. Resolved targets
// go to doc.Links, the rest to doc.UnresolvedLinks.
type CrawlLinks struct {
	plugin.Base
	strategy content.LinkStrategy
	pretty   bool

	once     sync.Once
	resolver *content.Resolver
}

func newCrawlLinks(options map[string]any) (plugin.Plugin, error) {
	opts := struct {
		Strategy string `json:"markdown_link_resolution"`
		Pretty   bool   `json:"pretty_links"`
	}{Pretty: true}
	if err := plugin.DecodeOptions(options, &opts); err != nil {
		return nil, err
	}
	strategy, err := content.ParseLinkStrategy(opts.Strategy)
	if err != nil {
		return nil, err
	}
	return &CrawlLinks{
		Base:     plugin.Base{Meta: meta(CrawlLinksName, crawlLinksSchema["description"].(string))},
		strategy: strategy,
		pretty:   opts.Pretty,
	}, nil
}

func (t *CrawlLinks) siteResolver(site *plugin.Site) *content.Resolver {
	t.once.Do(func() {
		t.resolver = content.NewResolver(t.strategy, site.AllSlugs, site.Assets)
	})
	return t.resolver
}

func (t *CrawlLinks) Transform(_ context.Context, doc *content.Document, site *plugin.Site) error {
	resolver := t.siteResolver(site)
	doc.Resolver = resolver

	links, err := markdown.ExtractLinks(doc.Body)
	if err != nil {
		return err
	}
	seen := map[string]bool{}
	missing := map[string]bool{}
	doc.Links, doc.UnresolvedLinks = nil, nil
	for _, l := range links {
		if l.Kind == markdown.LinkKindAuto || !content.IsInternal(l.Destination) {
			continue
		}
		res := resolver.Resolve(doc.Slug, l.Destination)
		switch {
		case !res.Found:
			if !missing[l.Destination] {
				missing[l.Destination] = true
				doc.UnresolvedLinks = append(doc.UnresolvedLinks, l.Destination)
			}
		case !res.IsAsset && res.Slug != doc.Slug:
			if !seen[res.Slug] {
				seen[res.Slug] = true
				doc.Links = append(doc.Links, res.Slug)
			}
		}
	}

	doc.Extensions = append(doc.Extensions, &linkRewriter{doc: doc, site: site, resolver: resolver, pretty: t.pretty})
	return nil
}

// linkRewriter points markdown links and images at their emitted URLs.
type linkRewriter struct {
	doc      *content.Document
	site     *plugin.Site
	resolver *content.Resolver
	pretty   bool
}

func (e *linkRewriter) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(util.Prioritized(e, 500)))
}

func (e *linkRewriter) Transform(node *gmast.Document, _ text.Reader, _ parser.Context) {
	_ = gmast.Walk(node, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *gmast.Link:
			if dest, ok := e.rewrite(string(v.Destination)); ok {
				v.Destination = []byte(dest)
				v.SetAttributeString("class", []byte("internal"))
			}
		case *gmast.Image:
			if dest, ok := e.rewrite(string(v.Destination)); ok {
				v.Destination = []byte(dest)
			}
		}
		return gmast.WalkContinue, nil
	})
}

func (e *linkRewriter) rewrite(dest string) (string, bool) {
	if !content.IsInternal(dest) {
		return "", false
	}
	res := e.resolver.Resolve(e.doc.Slug, dest)
	if !res.Found {
		return "", false
	}
	var out string
	if res.IsAsset {
		out = e.site.AssetURL(res.Slug)
	} else {
		out = content.URLPath(e.site.BasePath(), res.Slug, e.pretty)
	}
	if res.Fragment != "" {
		out += "#" + res.Fragment
	}
	return out, true
}

// SelectedLinkStrategy returns the resolution strategy of the configured
// crawl-links selection, or shortest when it is absent or invalid.
func SelectedLinkStrategy(cfg config.PluginsConfig) content.LinkStrategy {
	for _, sel := range cfg.Transformers {
		if sel.Name != CrawlLinksName {
			continue
		}
		s, _ := sel.Options["markdown_link_resolution"].(string)
		if strategy, err := content.ParseLinkStrategy(s); err == nil {
			return strategy
		}
	}
	return content.StrategyShortest
}
