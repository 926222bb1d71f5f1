package transformers

import (
	"context"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"

	"git.home.luguber.info/inful/gardenbuild/internal/config"
	"git.home.luguber.info/inful/gardenbuild/internal/content"
	"git.home.luguber.info/inful/gardenbuild/internal/plugin"
)

const HighlightName = "syntax-highlighting"

var highlightSchema = map[string]any{
	"type":                 "object",
	"description":          "Highlight fenced code blocks with chroma CSS classes",
	"additionalProperties": false,
	"properties": map[string]any{
		"theme": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]any{
				"light": map[string]any{"type": "string", "minLength": 1},
				"dark":  map[string]any{"type": "string", "minLength": 1},
			},
		},
		"line_numbers": map[string]any{"type": "boolean"},
	},
}

// HighlightThemes names the chroma styles used for the light and dark color
// schemes.
type HighlightThemes struct {
	Light string `json:"light"`
	Dark  string `json:"dark"`
}

type highlightOptions struct {
	Theme       HighlightThemes `json:"theme"`
	LineNumbers bool            `json:"line_numbers"`
}

func decodeHighlightOptions(options map[string]any) (highlightOptions, error) {
	opts := highlightOptions{Theme: HighlightThemes{Light: "github", Dark: "github-dark"}}
	if err := plugin.DecodeOptions(options, &opts); err != nil {
		return opts, err
	}
	for _, name := range []string{opts.Theme.Light, opts.Theme.Dark} {
		if _, ok := styles.Registry[name]; !ok {
			return opts, fmt.Errorf("unknown chroma style %q", name)
		}
	}
	return opts, nil
}

// Highlight renders fenced code through chroma. Colors come from the
// stylesheet written by the static emitter.
type Highlight struct {
	plugin.Base
	opts highlightOptions
}

func newHighlight(options map[string]any) (plugin.Plugin, error) {
	opts, err := decodeHighlightOptions(options)
	if err != nil {
		return nil, err
	}
	return &Highlight{
		Base: plugin.Base{Meta: meta(HighlightName, highlightSchema["description"].(string))},
		opts: opts,
	}, nil
}

func (t *Highlight) Transform(context.Context, *content.Document, *plugin.Site) error { return nil }

func (t *Highlight) MarkdownExtensions() []goldmark.Extender {
	return []goldmark.Extender{
		highlighting.NewHighlighting(
			highlighting.WithStyle(t.opts.Theme.Light),
			highlighting.WithFormatOptions(
				chromahtml.WithClasses(true),
				chromahtml.WithLineNumbers(t.opts.LineNumbers),
			),
		),
	}
}

// SelectedHighlightThemes returns the themes of the configured
// syntax-highlighting transformer. ok is false when it is not selected.
func SelectedHighlightThemes(cfg config.PluginsConfig) (HighlightThemes, bool) {
	for _, sel := range cfg.Transformers {
		if sel.Name != HighlightName {
			continue
		}
		opts, err := decodeHighlightOptions(sel.Options)
		if err != nil {
			return HighlightThemes{}, false
		}
		return opts.Theme, true
	}
	return HighlightThemes{}, false
}
