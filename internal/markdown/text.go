package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/wikilink"
)

// Heading is a section heading with the ID goldmark assigns when rendering.
type Heading struct {
	Level int
	Text  string
	ID    string
}

// ExtractHeadings returns headings up to maxDepth in document order. IDs
// match those produced by an engine from NewEngine.
func ExtractHeadings(body []byte, maxDepth int) []Heading {
	p := goldmark.New(
		goldmark.WithExtensions(&wikilink.Extender{}),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	).Parser()
	root := p.Parse(text.NewReader(body))

	var out []Heading
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		h, ok := n.(*gmast.Heading)
		if !entering || !ok {
			return gmast.WalkContinue, nil
		}
		if maxDepth <= 0 || h.Level <= maxDepth {
			heading := Heading{Level: h.Level, Text: inlineText(h, body)}
			if id, ok := h.AttributeString("id"); ok {
				if b, ok := id.([]byte); ok {
					heading.ID = string(b)
				}
			}
			out = append(out, heading)
		}
		return gmast.WalkSkipChildren, nil
	})
	return out
}

// PlainText returns the readable text of body with markup, code blocks and
// raw HTML removed. Whitespace is collapsed to single spaces.
func PlainText(body []byte) string {
	root := analysisParser().Parse(text.NewReader(body))

	var b strings.Builder
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		switch node := n.(type) {
		case *gmast.FencedCodeBlock, *gmast.CodeBlock, *gmast.HTMLBlock, *gmast.RawHTML:
			return gmast.WalkSkipChildren, nil
		case *wikilink.Node:
			if entering && !node.HasChildren() && !node.Embed {
				b.Write(node.Target)
			}
			if node.Embed {
				return gmast.WalkSkipChildren, nil
			}
		case *gmast.Text:
			if entering {
				b.Write(node.Segment.Value(body))
				if node.SoftLineBreak() || node.HardLineBreak() {
					b.WriteByte(' ')
				}
			}
		case *gmast.String:
			if entering {
				b.Write(node.Value)
			}
		}
		if !entering && n.Type() == gmast.TypeBlock {
			b.WriteByte(' ')
		}
		return gmast.WalkContinue, nil
	})
	return strings.Join(strings.Fields(b.String()), " ")
}

func inlineText(n gmast.Node, src []byte) string {
	var b strings.Builder
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := c.(type) {
		case *gmast.Text:
			b.Write(node.Segment.Value(src))
			if node.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *gmast.String:
			b.Write(node.Value)
		case *wikilink.Node:
			if !node.HasChildren() {
				b.Write(node.Target)
			}
		}
		return gmast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}
