package markdown

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// EngineOptions controls how the goldmark engine is assembled.
type EngineOptions struct {
	// Extensions lists built-in extensions by name (see ExtensionNames).
	Extensions []string
	HardWraps  bool
	// Unsafe lets raw HTML in notes through to the output.
	Unsafe bool
}

var builtinExtensions = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"tasklist":      extension.TaskList,
	"footnote":      extension.Footnote,
	"definition":    extension.DefinitionList,
	"typographer":   extension.Typographer,
}

// ExtensionNames returns the names accepted in EngineOptions.Extensions.
func ExtensionNames() []string {
	names := make([]string, 0, len(builtinExtensions))
	for n := range builtinExtensions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ExtensionByName returns a built-in goldmark extension.
func ExtensionByName(name string) (goldmark.Extender, bool) {
	e, ok := builtinExtensions[name]
	return e, ok
}

// NewEngine builds a goldmark instance with auto heading IDs plus the named
// extensions and any extra extenders, in that order.
func NewEngine(opts EngineOptions, extra ...goldmark.Extender) (goldmark.Markdown, error) {
	exts := make([]goldmark.Extender, 0, len(opts.Extensions)+len(extra))
	for _, name := range opts.Extensions {
		e, ok := builtinExtensions[name]
		if !ok {
			return nil, fmt.Errorf("unknown markdown extension %q", name)
		}
		exts = append(exts, e)
	}
	exts = append(exts, extra...)

	rendererOpts := []goldmark.Option{}
	var htmlOpts []renderer.Option
	if opts.Unsafe {
		htmlOpts = append(htmlOpts, html.WithUnsafe())
	}
	if opts.HardWraps {
		htmlOpts = append(htmlOpts, html.WithHardWraps())
	}
	if len(htmlOpts) > 0 {
		rendererOpts = append(rendererOpts, goldmark.WithRendererOptions(htmlOpts...))
	}

	return goldmark.New(
		append(rendererOpts,
			goldmark.WithExtensions(exts...),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		)...,
	), nil
}

// Render converts body to HTML with md.
func Render(md goldmark.Markdown, body []byte) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert(body, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// HardWraps is an extender that renders soft line breaks as <br>.
type HardWraps struct{}

func (HardWraps) Extend(m goldmark.Markdown) {
	m.Renderer().AddOptions(html.WithHardWraps())
}
