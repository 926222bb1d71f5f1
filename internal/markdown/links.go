package markdown

import (
	"sort"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/wikilink"
)

type LinkKind string

const (
	LinkKindInline              LinkKind = "inline"
	LinkKindImage               LinkKind = "image"
	LinkKindAuto                LinkKind = "auto"
	LinkKindReferenceDefinition LinkKind = "reference_definition"
	LinkKindWikilink            LinkKind = "wikilink"
	LinkKindEmbed               LinkKind = "embed"
)

// Link is a link-like construct found in a markdown body. For wikilinks the
// Destination is the target with the fragment re-attached ("note#heading").
type Link struct {
	Kind        LinkKind
	Destination string
}

// analysisParser understands wikilinks so [[...]] is not mistaken for
// bracketed text. Code spans and fenced blocks never produce link nodes.
func analysisParser() parser.Parser {
	return goldmark.New(goldmark.WithExtensions(&wikilink.Extender{})).Parser()
}

// ExtractLinks parses a Markdown body and extracts link-like constructs.
//
// This is an analysis API; it does not attempt to re-render Markdown.
func ExtractLinks(body []byte) ([]Link, error) {
	ctx := parser.NewContext()
	root := analysisParser().Parse(text.NewReader(body), parser.WithContext(ctx))

	links := make([]Link, 0)
	err := gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *gmast.AutoLink:
			links = append(links, Link{Kind: LinkKindAuto, Destination: string(node.URL(body))})
		case *gmast.Image:
			links = append(links, Link{Kind: LinkKindImage, Destination: string(node.Destination)})
		case *gmast.Link:
			// Goldmark resolves reference-style links to a Link node with a Destination.
			links = append(links, Link{Kind: LinkKindInline, Destination: string(node.Destination)})
		case *wikilink.Node:
			dest := string(node.Target)
			if len(node.Fragment) > 0 {
				dest += "#" + string(node.Fragment)
			}
			kind := LinkKindWikilink
			if node.Embed {
				kind = LinkKindEmbed
			}
			links = append(links, Link{Kind: kind, Destination: dest})
		}
		return gmast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	// Reference definitions are stored in the parse context (not represented as AST nodes).
	refs := ctx.References()
	sort.Slice(refs, func(i, j int) bool {
		return string(refs[i].Label()) < string(refs[j].Label())
	})
	for _, ref := range refs {
		links = append(links, Link{Kind: LinkKindReferenceDefinition, Destination: string(ref.Destination())})
	}

	return links, nil
}
