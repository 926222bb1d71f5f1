package transformers

import (
	"context"

	"github.com/yuin/goldmark"

	"git.home.luguber.info/inful/gardenbuild/internal/content"
	"git.home.luguber.info/inful/gardenbuild/internal/markdown"
	"git.home.luguber.info/inful/gardenbuild/internal/plugin"
)

const RenderName = "render"

// Render converts the body to HTML. The builder appends it after the
// configured transformers; it is not selectable.
type Render struct {
	plugin.Base
	static []goldmark.Extender
}

// NewRender collects the markdown extensions of the selected transformers,
// in order.
func NewRender(selected []plugin.Transformer) *Render {
	var static []goldmark.Extender
	for _, t := range selected {
		if ext, ok := t.(plugin.MarkdownExtender); ok {
			static = append(static, ext.MarkdownExtensions()...)
		}
	}
	return &Render{
		Base:   plugin.Base{Meta: meta(RenderName, "Render markdown to HTML")},
		static: static,
	}
}

func (t *Render) Transform(_ context.Context, doc *content.Document, _ *plugin.Site) error {
	exts := make([]goldmark.Extender, 0, len(t.static)+len(doc.Extensions))
	exts = append(exts, t.static...)
	exts = append(exts, doc.Extensions...)
	md, err := markdown.NewEngine(markdown.EngineOptions{Unsafe: true}, exts...)
	if err != nil {
		return err
	}
	html, err := markdown.Render(md, doc.Body)
	if err != nil {
		return err
	}
	doc.HTML = html
	return nil
}
