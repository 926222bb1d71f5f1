package transformers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/gardenbuild/internal/config"
	"git.home.luguber.info/inful/gardenbuild/internal/content"
	"git.home.luguber.info/inful/gardenbuild/internal/plugin"
)

func newSite(t *testing.T, rel ...string) *plugin.Site {
	t.Helper()
	srcs := make([]content.Source, 0, len(rel))
	for _, r := range rel {
		srcs = append(srcs, content.Source{RelativePath: r, IsMarkdown: content.IsMarkdownFile(r)})
	}
	return plugin.NewSite(*config.Default(), t.TempDir(), time.Unix(0, 0), srcs)
}

func newDoc(t *testing.T, rel, raw string) *content.Document {
	t.Helper()
	doc, err := content.Parse(content.Source{RelativePath: rel, IsMarkdown: true}, []byte(raw))
	require.NoError(t, err)
	return doc
}

func construct(t *testing.T, ctor plugin.Constructor, options map[string]any) plugin.Transformer {
	t.Helper()
	p, err := ctor(options)
	require.NoError(t, err)
	return p.(plugin.Transformer)
}

// run applies ts in order and then renders.
func run(t *testing.T, site *plugin.Site, doc *content.Document, ts ...plugin.Transformer) {
	t.Helper()
	ctx := context.Background()
	for _, tr := range ts {
		require.NoError(t, tr.Transform(ctx, doc, site), tr.Metadata().Name)
	}
	require.NoError(t, NewRender(ts).Transform(ctx, doc, site))
}

func TestRegisterDefaultSelection(t *testing.T) {
	r := plugin.NewRegistry()
	require.NoError(t, Register(r))
	assert.Len(t, r.ListByType(plugin.TypeTransformer), 9)

	p, err := r.Build(config.PluginsConfig{Transformers: config.Default().Plugins.Transformers})
	require.NoError(t, err)
	require.NotEmpty(t, p.Transformers)
	assert.Equal(t, FrontMatterName, p.Transformers[0].Metadata().Name)

	err = r.Check(string(plugin.TypeTransformer), TOCName, map[string]any{"max_depth": 9})
	require.ErrorIs(t, err, plugin.ErrInvalidOptions)
}

func TestFrontMatter(t *testing.T) {
	site := newSite(t, "a.md")
	doc := newDoc(t, "a.md", "---\ntitle: Hello\ntags: [a, '#b', a]\naliases: old\ncssclass: wide\ndraft: 'true'\npermalink: /x/\n---\nbody\n")
	tr := construct(t, newFrontMatter, nil)
	require.NoError(t, tr.Transform(context.Background(), doc, site))

	assert.Equal(t, "Hello", doc.Title)
	assert.Equal(t, []string{"a", "b"}, doc.Tags)
	assert.Equal(t, []string{"old"}, doc.Aliases)
	assert.Equal(t, []string{"wide"}, doc.CSSClasses)
	assert.True(t, doc.Draft)
	assert.False(t, doc.Publish)
	assert.Equal(t, "x", doc.Permalink)

	untitled := newDoc(t, "my-note.md", "just text\n")
	require.NoError(t, tr.Transform(context.Background(), untitled, site))
	assert.Equal(t, "My Note", untitled.Title)
}

func TestFrontMatter_LanguageRestricts(t *testing.T) {
	tr := construct(t, newFrontMatter, map[string]any{"language": "yaml"})
	doc := newDoc(t, "a.md", "+++\ntitle = \"T\"\n+++\nbody\n")
	require.Error(t, tr.Transform(context.Background(), doc, newSite(t, "a.md")))

	_, err := newFrontMatter(map[string]any{"delimiters": []any{"+++"}, "language": "yaml"})
	require.Error(t, err)
}

func TestDates(t *testing.T) {
	site := newSite(t, "a.md")
	mtime := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	doc := newDoc(t, "a.md", "---\ndate: 2024-01-02\n---\nbody\n")
	doc.Source.ModTime = mtime
	tr := construct(t, newDates, nil)
	require.NoError(t, tr.Transform(context.Background(), doc, site))

	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), doc.Dates.Created.UTC())
	assert.Equal(t, mtime, doc.Dates.Modified)
	assert.Equal(t, doc.Dates.Created, doc.Dates.Published)

	fsFirst := construct(t, newDates, map[string]any{"priority": []any{"filesystem", "frontmatter"}})
	doc = newDoc(t, "a.md", "---\ncreated: 2020-01-01\n---\nbody\n")
	doc.Source.ModTime = mtime
	require.NoError(t, fsFirst.Transform(context.Background(), doc, site))
	assert.Equal(t, mtime, doc.Dates.Created)
}

func TestDates_GitOutsideRepositoryLeavesZero(t *testing.T) {
	tr := construct(t, newDates, map[string]any{"priority": []any{"git"}})
	doc := newDoc(t, "a.md", "body\n")
	require.NoError(t, tr.Transform(context.Background(), doc, newSite(t, "a.md")))
	assert.True(t, doc.Dates.Created.IsZero())
}

func TestTOC(t *testing.T) {
	site := newSite(t, "a.md")
	body := "# One\n## Two words\n### Three\n#### Four\n"

	doc := newDoc(t, "a.md", body)
	require.NoError(t, construct(t, newTOC, nil).Transform(context.Background(), doc, site))
	require.Len(t, doc.TOC, 3)
	assert.Equal(t, content.TOCEntry{Depth: 2, Text: "Two words", ID: "two-words"}, doc.TOC[1])

	doc = newDoc(t, "a.md", body)
	require.NoError(t, construct(t, newTOC, map[string]any{"min_entries": 5}).Transform(context.Background(), doc, site))
	assert.Nil(t, doc.TOC)

	doc = newDoc(t, "a.md", "---\nenableToc: false\n---\n"+body)
	require.NoError(t, construct(t, newTOC, nil).Transform(context.Background(), doc, site))
	assert.Nil(t, doc.TOC)
}

func TestCrawlLinksAndWikilinks(t *testing.T) {
	site := newSite(t, "a.md", "folder/b.md", "img/x.png")
	doc := newDoc(t, "a.md", "[b](folder/b.md) [gone](missing.md) [ext](https://example.com) ![i](img/x.png)\n\nSee [[b#Some Heading]] and [[nowhere]].\n")

	run(t, site, doc,
		construct(t, newObsidian, nil),
		construct(t, newCrawlLinks, nil),
	)

	assert.Equal(t, []string{"folder/b"}, doc.Links)
	assert.Equal(t, []string{"missing.md", "nowhere"}, doc.UnresolvedLinks)
	assert.Contains(t, doc.HTML, `href="/folder/b"`)
	assert.Contains(t, doc.HTML, `class="internal"`)
	assert.Contains(t, doc.HTML, `src="/img/x.png"`)
	assert.Contains(t, doc.HTML, `href="/folder/b#some-heading"`)
	assert.Contains(t, doc.HTML, `href="https://example.com"`)
	assert.Contains(t, doc.HTML, `href="missing.md"`)
}

func TestCrawlLinks_UglyURLs(t *testing.T) {
	site := newSite(t, "a.md", "b.md")
	doc := newDoc(t, "a.md", "[b](b)\n")
	run(t, site, doc, construct(t, newCrawlLinks, map[string]any{"pretty_links": false, "markdown_link_resolution": "relative"}))
	assert.Contains(t, doc.HTML, `href="/b.html"`)
}

func TestObsidian(t *testing.T) {
	site := newSite(t, "a.md")
	doc := newDoc(t, "a.md", "---\ntags: [x]\n---\nA ==marked== note about #garden. %%secret%%\n\n> [!note] Heads up\n> text\n")
	run(t, site, doc, construct(t, newFrontMatter, nil), construct(t, newObsidian, nil))

	assert.Equal(t, []string{"x", "garden"}, doc.Tags)
	assert.Contains(t, doc.HTML, "<mark>marked</mark>")
	assert.Contains(t, doc.HTML, `href="/tags/garden"`)
	assert.Contains(t, doc.HTML, `class="callout note"`)
	assert.NotContains(t, doc.HTML, "secret")

	plain := newDoc(t, "a.md", "A ==marked== note about #garden.\n")
	run(t, site, plain, construct(t, newObsidian, map[string]any{"highlight": false, "parse_tags": false}))
	assert.Empty(t, plain.Tags)
	assert.NotContains(t, plain.HTML, "<mark>")
}

func TestHighlightAndGFM(t *testing.T) {
	_, err := newHighlight(map[string]any{"theme": map[string]any{"light": "no-such-style"}})
	require.Error(t, err)

	site := newSite(t, "a.md")
	doc := newDoc(t, "a.md", "```go\nfunc main() {}\n```\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n\"quoted\"\n")
	run(t, site, doc, construct(t, newHighlight, nil), construct(t, newGFM, nil))
	assert.Contains(t, doc.HTML, `class="chroma"`)
	assert.Contains(t, doc.HTML, "<table>")
	assert.Contains(t, doc.HTML, "&ldquo;quoted&rdquo;")

	themes, ok := SelectedHighlightThemes(config.Default().Plugins)
	require.True(t, ok)
	assert.Equal(t, HighlightThemes{Light: "github", Dark: "github-dark"}, themes)
}

func TestHardLineBreaks(t *testing.T) {
	site := newSite(t, "a.md")
	doc := newDoc(t, "a.md", "one\ntwo\n")
	run(t, site, doc, construct(t, newHardLineBreaks, nil))
	assert.Contains(t, doc.HTML, "<br")
}

func TestDescription(t *testing.T) {
	site := newSite(t, "a.md")
	doc := newDoc(t, "a.md", "# Title\n\nThe quick brown fox jumps over the lazy dog.\n")
	require.NoError(t, construct(t, newDescription, map[string]any{"description_length": 20}).Transform(context.Background(), doc, site))
	assert.Equal(t, "Title The quick...", doc.Description)

	doc.Description = "kept"
	require.NoError(t, construct(t, newDescription, nil).Transform(context.Background(), doc, site))
	assert.Equal(t, "kept", doc.Description)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "one two...", Truncate("one two three", 9))
	assert.Equal(t, "héllo...", Truncate("héllo wörld", 7))
}

func TestHeadingAnchor(t *testing.T) {
	assert.Equal(t, "some-heading", HeadingAnchor("Some Heading"))
	assert.Equal(t, "a_b-2", HeadingAnchor("A_b 2!"))
}

func TestSelectedLinkStrategy(t *testing.T) {
	assert.Equal(t, content.StrategyShortest, SelectedLinkStrategy(config.PluginsConfig{}))
	cfg := config.PluginsConfig{Transformers: []config.PluginSelection{
		{Name: CrawlLinksName, Options: map[string]any{"markdown_link_resolution": "relative"}},
	}}
	assert.Equal(t, content.StrategyRelative, SelectedLinkStrategy(cfg))
}
