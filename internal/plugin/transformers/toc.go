package transformers

import (
	"context"

	"git.home.luguber.info/inful/gardenbuild/internal/content"
	"git.home.luguber.info/inful/gardenbuild/internal/markdown"
	"git.home.luguber.info/inful/gardenbuild/internal/plugin"
)

const TOCName = "table-of-contents"

var tocSchema = map[string]any{
	"type":                 "object",
	"description":          "Collect headings into a table of contents",
	"additionalProperties": false,
	"properties": map[string]any{
		"max_depth":   map[string]any{"type": "integer", "minimum": 1, "maximum": 6},
		"min_entries": map[string]any{"type": "integer", "minimum": 0},
	},
}

// TOC fills doc.TOC. A document opts out with "enableToc: false".
type TOC struct {
	plugin.Base
	maxDepth   int
	minEntries int
}

func newTOC(options map[string]any) (plugin.Plugin, error) {
	opts := struct {
		MaxDepth   int `json:"max_depth"`
		MinEntries int `json:"min_entries"`
	}{MaxDepth: 3, MinEntries: 1}
	if err := plugin.DecodeOptions(options, &opts); err != nil {
		return nil, err
	}
	return &TOC{
		Base:       plugin.Base{Meta: meta(TOCName, tocSchema["description"].(string))},
		maxDepth:   opts.MaxDepth,
		minEntries: opts.MinEntries,
	}, nil
}

func (t *TOC) Transform(_ context.Context, doc *content.Document, _ *plugin.Site) error {
	if v, ok := doc.FrontMatter["enableToc"]; ok && !boolValue(v) {
		doc.TOC = nil
		return nil
	}
	headings := markdown.ExtractHeadings(doc.Body, t.maxDepth)
	if len(headings) < t.minEntries || len(headings) == 0 {
		doc.TOC = nil
		return nil
	}
	toc := make([]content.TOCEntry, 0, len(headings))
	for _, h := range headings {
		toc = append(toc, content.TOCEntry{Depth: h.Level, Text: h.Text, ID: h.ID})
	}
	doc.TOC = toc
	return nil
}
