package transformers

import (
	"context"

	"github.com/yuin/goldmark"

	"git.home.luguber.info/inful/gardenbuild/internal/content"
	"git.home.luguber.info/inful/gardenbuild/internal/markdown"
	"git.home.luguber.info/inful/gardenbuild/internal/plugin"
)

const (
	GFMName            = "github-flavored-markdown"
	HardLineBreaksName = "hard-line-breaks"
)

var gfmSchema = map[string]any{
	"type":                 "object",
	"description":          "GitHub flavored markdown: tables, task lists, strikethrough, autolinks and footnotes",
	"additionalProperties": false,
	"properties": map[string]any{
		"enable_smart_punctuation": map[string]any{"type": "boolean"},
	},
}

var hardLineBreaksSchema = map[string]any{
	"type":                 "object",
	"description":          "Render single newlines as line breaks",
	"additionalProperties": false,
}

// GFM enables the GitHub dialect.
type GFM struct {
	plugin.Base
	smart bool
}

func newGFM(options map[string]any) (plugin.Plugin, error) {
	opts := struct {
		Smart bool `json:"enable_smart_punctuation"`
	}{Smart: true}
	if err := plugin.DecodeOptions(options, &opts); err != nil {
		return nil, err
	}
	return &GFM{Base: plugin.Base{Meta: meta(GFMName, gfmSchema["description"].(string))}, smart: opts.Smart}, nil
}

func (t *GFM) Transform(context.Context, *content.Document, *plugin.Site) error { return nil }

func (t *GFM) MarkdownExtensions() []goldmark.Extender {
	names := []string{"gfm", "footnote"}
	if t.smart {
		names = append(names, "typographer")
	}
	exts := make([]goldmark.Extender, 0, len(names))
	for _, n := range names {
		e, _ := markdown.ExtensionByName(n)
		exts = append(exts, e)
	}
	return exts
}

// HardLineBreaks turns soft breaks into <br>.
type HardLineBreaks struct {
	plugin.Base
}

func newHardLineBreaks(map[string]any) (plugin.Plugin, error) {
	return &HardLineBreaks{Base: plugin.Base{Meta: meta(HardLineBreaksName, hardLineBreaksSchema["description"].(string))}}, nil
}

func (t *HardLineBreaks) Transform(context.Context, *content.Document, *plugin.Site) error {
	return nil
}

func (t *HardLineBreaks) MarkdownExtensions() []goldmark.Extender {
	return []goldmark.Extender{markdown.HardWraps{}}
}
