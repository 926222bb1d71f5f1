package markdown

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// KindHighlight is the node kind of ==highlighted== text.
var KindHighlight = gmast.NewNodeKind("Highlight")

// HighlightNode is ==highlighted== inline text, rendered as <mark>.
type HighlightNode struct {
	gmast.BaseInline
}

func (n *HighlightNode) Kind() gmast.NodeKind { return KindHighlight }

func (n *HighlightNode) Dump(source []byte, level int) {
	gmast.DumpHelper(n, source, level, nil, nil)
}

type highlightDelimiterProcessor struct{}

func (p *highlightDelimiterProcessor) IsDelimiter(b byte) bool { return b == '=' }

func (p *highlightDelimiterProcessor) CanOpenCloser(opener, closer *parser.Delimiter) bool {
	return opener.Char == closer.Char
}

func (p *highlightDelimiterProcessor) OnMatch(consumes int) gmast.Node {
	return &HighlightNode{}
}

var defaultHighlightDelimiterProcessor = &highlightDelimiterProcessor{}

type highlightParser struct{}

func (s *highlightParser) Trigger() []byte { return []byte{'='} }

func (s *highlightParser) Parse(parent gmast.Node, block text.Reader, pc parser.Context) gmast.Node {
	before := block.PrecendingCharacter()
	line, segment := block.PeekLine()
	node := parser.ScanDelimiter(line, before, 1, defaultHighlightDelimiterProcessor)
	if node == nil || node.OriginalLength != 2 || before == '=' {
		return nil
	}
	node.Segment = segment.WithStop(segment.Start + node.OriginalLength)
	block.Advance(node.OriginalLength)
	pc.PushDelimiter(node)
	return node
}

func (s *highlightParser) CloseBlock(parent gmast.Node, pc parser.Context) {}

type highlightRenderer struct{}

func (r *highlightRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindHighlight, func(w util.BufWriter, _ []byte, _ gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if entering {
			_, _ = w.WriteString("<mark>")
		} else {
			_, _ = w.WriteString("</mark>")
		}
		return gmast.WalkContinue, nil
	})
}

// Highlight adds ==text== support.
type Highlight struct{}

func (Highlight) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(util.Prioritized(&highlightParser{}, 500)))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(util.Prioritized(&highlightRenderer{}, 500)))
}

var calloutPattern = regexp.MustCompile(`^\[!([A-Za-z0-9_-]+)\]([+-]?)\s*(.*)$`)

var calloutTitle = cases.Title(language.Und)

// Callouts turns blockquotes starting with "[!type] Title" into callouts:
// the blockquote gets class "callout <type>" and a data-callout attribute,
// and the marker line becomes a paragraph with class "callout-title".
type Callouts struct{}

func (Callouts) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(util.Prioritized(calloutTransformer{}, 500)))
}

type calloutTransformer struct{}

func (calloutTransformer) Transform(doc *gmast.Document, reader text.Reader, _ parser.Context) {
	src := reader.Source()
	var quotes []*gmast.Blockquote
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if bq, ok := n.(*gmast.Blockquote); ok && entering {
			quotes = append(quotes, bq)
		}
		return gmast.WalkContinue, nil
	})
	for _, bq := range quotes {
		applyCallout(bq, src)
	}
}

func applyCallout(bq *gmast.Blockquote, src []byte) {
	para, ok := bq.FirstChild().(*gmast.Paragraph)
	if !ok {
		return
	}

	var line strings.Builder
	var consumed []gmast.Node
	for c := para.FirstChild(); c != nil; c = c.NextSibling() {
		t, ok := c.(*gmast.Text)
		if !ok {
			break
		}
		line.Write(t.Segment.Value(src))
		consumed = append(consumed, c)
		if t.SoftLineBreak() || t.HardLineBreak() {
			break
		}
	}
	m := calloutPattern.FindStringSubmatch(strings.TrimSpace(line.String()))
	if m == nil {
		return
	}

	kind := strings.ToLower(m[1])
	title := strings.TrimSpace(m[3])
	if title == "" {
		title = calloutTitle.String(kind)
	}

	for _, c := range consumed {
		para.RemoveChild(para, c)
	}
	bq.SetAttributeString("class", []byte("callout "+kind))
	bq.SetAttributeString("data-callout", []byte(kind))
	switch m[2] {
	case "+":
		bq.SetAttributeString("data-callout-fold", []byte("open"))
	case "-":
		bq.SetAttributeString("data-callout-fold", []byte("closed"))
	}

	head := gmast.NewParagraph()
	head.SetAttributeString("class", []byte("callout-title"))
	head.AppendChild(head, gmast.NewString([]byte(title)))
	bq.InsertBefore(bq, para, head)
	if !para.HasChildren() {
		bq.RemoveChild(bq, para)
	}
}

var commentPattern = regexp.MustCompile(`(?s)%%.*?%%`)

// StripComments removes %% comments %% outside fenced code blocks.
func StripComments(body []byte) []byte {
	if !bytes.Contains(body, []byte("%%")) {
		return body
	}
	var out, chunk bytes.Buffer
	flush := func() {
		out.Write(commentPattern.ReplaceAll(chunk.Bytes(), nil))
		chunk.Reset()
	}
	fence := ""
	for _, line := range bytes.SplitAfter(body, []byte("\n")) {
		trimmed := strings.TrimSpace(string(line))
		switch {
		case fence == "" && (strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~")):
			flush()
			fence = trimmed[:3]
			out.Write(line)
		case fence != "":
			out.Write(line)
			if strings.HasPrefix(trimmed, fence) {
				fence = ""
			}
		default:
			chunk.Write(line)
		}
	}
	flush()
	return out.Bytes()
}

var inlineTagPattern = regexp.MustCompile(`(^|[\s(])#([\p{L}\p{N}_/-]*[\p{L}_/-][\p{L}\p{N}_/-]*)`)

// ExtractTags returns inline #tags found in prose. Tags in code, links and
// headings markers are not considered. Purely numeric tags like #1 are ignored.
func ExtractTags(body []byte) []string {
	root := analysisParser().Parse(text.NewReader(body))
	var tags []string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.CodeSpan, *gmast.FencedCodeBlock, *gmast.CodeBlock, *gmast.HTMLBlock, *gmast.Link, *gmast.AutoLink:
			return gmast.WalkSkipChildren, nil
		case *gmast.Text:
			for _, m := range inlineTagPattern.FindAllSubmatch(node.Segment.Value(body), -1) {
				tags = append(tags, strings.Trim(string(m[2]), "/"))
			}
		}
		return gmast.WalkContinue, nil
	})
	return tags
}

// TagLinks rewrites inline #tags in prose into links to their tag pages.
type TagLinks struct {
	// URL returns the destination for a tag.
	URL func(tag string) string
}

func (e TagLinks) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(util.Prioritized(&tagLinkTransformer{url: e.URL}, 600)))
}

type tagLinkTransformer struct {
	url func(string) string
}

func (t *tagLinkTransformer) Transform(doc *gmast.Document, reader text.Reader, _ parser.Context) {
	src := reader.Source()
	var texts []*gmast.Text
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.CodeSpan, *gmast.Link, *gmast.AutoLink, *gmast.Heading:
			return gmast.WalkSkipChildren, nil
		case *gmast.Text:
			if inlineTagPattern.Match(node.Segment.Value(src)) {
				texts = append(texts, node)
			}
		}
		return gmast.WalkContinue, nil
	})
	for _, node := range texts {
		t.split(node, src)
	}
}

func (t *tagLinkTransformer) split(node *gmast.Text, src []byte) {
	parent := node.Parent()
	if parent == nil {
		return
	}
	seg := node.Segment
	value := seg.Value(src)
	pos := 0
	for _, m := range inlineTagPattern.FindAllSubmatchIndex(value, -1) {
		// m[4]..m[5] is the tag name; the '#' sits right before it.
		hash := m[4] - 1
		if hash > pos {
			parent.InsertBefore(parent, node, gmast.NewTextSegment(text.NewSegment(seg.Start+pos, seg.Start+hash)))
		}
		tag := strings.Trim(string(value[m[4]:m[5]]), "/")
		link := gmast.NewLink()
		link.Destination = []byte(t.url(tag))
		link.SetAttributeString("class", []byte("tag-link"))
		link.AppendChild(link, gmast.NewTextSegment(text.NewSegment(seg.Start+hash, seg.Start+m[5])))
		parent.InsertBefore(parent, node, link)
		pos = m[5]
	}
	rest := gmast.NewTextSegment(text.NewSegment(seg.Start+pos, seg.Stop))
	rest.SetSoftLineBreak(node.SoftLineBreak())
	rest.SetHardLineBreak(node.HardLineBreak())
	parent.InsertBefore(parent, node, rest)
	parent.RemoveChild(parent, node)
}
