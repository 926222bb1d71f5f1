package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLinks(t *testing.T) {
	body := []byte("See [a](notes/a.md) and ![img](img/p.png) <https://x.example>.\n\n" +
		"Wiki [[Target Note#Section|alias]] and embed ![[pic.png]].\n\n" +
		"`[[not a link]]`\n\n```\n[nope](nope.md)\n```\n\n[ref]: other.md\n")

	links, err := ExtractLinks(body)
	require.NoError(t, err)

	got := map[LinkKind][]string{}
	for _, l := range links {
		got[l.Kind] = append(got[l.Kind], l.Destination)
	}
	assert.Equal(t, []string{"notes/a.md"}, got[LinkKindInline])
	assert.Equal(t, []string{"img/p.png"}, got[LinkKindImage])
	assert.Equal(t, []string{"https://x.example"}, got[LinkKindAuto])
	assert.Equal(t, []string{"Target Note#Section"}, got[LinkKindWikilink])
	assert.Equal(t, []string{"pic.png"}, got[LinkKindEmbed])
	assert.Equal(t, []string{"other.md"}, got[LinkKindReferenceDefinition])
}

func TestExtractHeadings(t *testing.T) {
	body := []byte("# One\n\n## Two *em*\n\n### Three\n\n#### Four\n")
	hs := ExtractHeadings(body, 3)
	require.Len(t, hs, 3)
	assert.Equal(t, Heading{Level: 1, Text: "One", ID: "one"}, hs[0])
	assert.Equal(t, "Two em", hs[1].Text)
	assert.Equal(t, 3, hs[2].Level)

	assert.Len(t, ExtractHeadings(body, 0), 4)
}

func TestHeadingIDsMatchRenderedHTML(t *testing.T) {
	md, err := NewEngine(EngineOptions{})
	require.NoError(t, err)
	out, err := Render(md, []byte("## Hello World\n"))
	require.NoError(t, err)
	hs := ExtractHeadings([]byte("## Hello World\n"), 6)
	require.Len(t, hs, 1)
	assert.Contains(t, out, `id="`+hs[0].ID+`"`)
}

func TestPlainText(t *testing.T) {
	body := []byte("# Title\n\nSome **bold** text\nwith [a link](x.md).\n\n```go\ncode()\n```\n\n<div>raw</div>\n\nEnd [[Note]].\n")
	assert.Equal(t, "Title Some bold text with a link. End Note.", PlainText(body))
}

func TestNewEngineOptions(t *testing.T) {
	_, err := NewEngine(EngineOptions{Extensions: []string{"nope"}})
	require.Error(t, err)

	md, err := NewEngine(EngineOptions{Extensions: []string{"gfm"}, HardWraps: true, Unsafe: true})
	require.NoError(t, err)
	out, err := Render(md, []byte("a\nb ~~c~~\n\n<span>x</span>\n"))
	require.NoError(t, err)
	assert.Contains(t, out, "<br")
	assert.Contains(t, out, "<del>c</del>")
	assert.Contains(t, out, "<span>x</span>")

	safe, err := NewEngine(EngineOptions{})
	require.NoError(t, err)
	out, err = Render(safe, []byte("<span>x</span>\n"))
	require.NoError(t, err)
	assert.NotContains(t, out, "<span>x</span>")
}

func TestHardWrapsExtender(t *testing.T) {
	md, err := NewEngine(EngineOptions{}, HardWraps{})
	require.NoError(t, err)
	out, err := Render(md, []byte("a\nb\n"))
	require.NoError(t, err)
	assert.Contains(t, out, "<br")
}

func TestHighlight(t *testing.T) {
	md, err := NewEngine(EngineOptions{}, Highlight{})
	require.NoError(t, err)
	out, err := Render(md, []byte("this is ==marked== text and a = b\n"))
	require.NoError(t, err)
	assert.Contains(t, out, "<mark>marked</mark>")
	assert.Contains(t, out, "a = b")
}

func TestCallouts(t *testing.T) {
	md, err := NewEngine(EngineOptions{}, Callouts{})
	require.NoError(t, err)
	out, err := Render(md, []byte("> [!warning] Careful\n> body text\n"))
	require.NoError(t, err)
	assert.Contains(t, out, `class="callout warning"`)
	assert.Contains(t, out, `data-callout="warning"`)
	assert.Contains(t, out, `<p class="callout-title">Careful</p>`)
	assert.Contains(t, out, "body text")
	assert.NotContains(t, out, "[!warning]")

	out, err = Render(md, []byte("> [!tip]\n"))
	require.NoError(t, err)
	assert.Contains(t, out, `<p class="callout-title">Tip</p>`)

	out, err = Render(md, []byte("> plain quote\n"))
	require.NoError(t, err)
	assert.NotContains(t, out, "callout")
}

func TestStripComments(t *testing.T) {
	body := []byte("keep %%hidden%% this\n%%\nmulti\nline\n%%\n```\n%%code%%\n```\n")
	assert.Equal(t, "keep  this\n\n```\n%%code%%\n```\n", string(StripComments(body)))

	plain := []byte("nothing here")
	assert.Equal(t, plain, StripComments(plain))
}

func TestExtractTags(t *testing.T) {
	body := []byte("Talking about #go and #static-sites/hugo.\n\nNot `#code` or issue #42.\n")
	assert.Equal(t, []string{"go", "static-sites/hugo"}, ExtractTags(body))
}

func TestTagLinks(t *testing.T) {
	md, err := NewEngine(EngineOptions{}, TagLinks{URL: func(tag string) string { return "/tags/" + tag }})
	require.NoError(t, err)
	out, err := Render(md, []byte("About #go here\n"))
	require.NoError(t, err)
	assert.Contains(t, out, `<a href="/tags/go" class="tag-link">#go</a>`)
	assert.Contains(t, out, "About ")
	assert.Contains(t, out, " here")
}

func TestExtensionNames(t *testing.T) {
	names := ExtensionNames()
	assert.Contains(t, names, "gfm")
	_, ok := ExtensionByName("footnote")
	assert.True(t, ok)
}
