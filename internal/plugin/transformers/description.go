package transformers

import (
	"context"
	"strings"
	"unicode/utf8"

	"git.home.luguber.info/inful/gardenbuild/internal/content"
	"git.home.luguber.info/inful/gardenbuild/internal/markdown"
	"git.home.luguber.info/inful/gardenbuild/internal/plugin"
)

const DescriptionName = "description"

var descriptionSchema = map[string]any{
	"type":                 "object",
	"description":          "Derive a description from the opening text when front matter has none",
	"additionalProperties": false,
	"properties": map[string]any{
		"description_length": map[string]any{"type": "integer", "minimum": 1},
	},
}

type Description struct {
	plugin.Base
	length int
}

func newDescription(options map[string]any) (plugin.Plugin, error) {
	opts := struct {
		Length int `json:"description_length"`
	}{Length: 150}
	if err := plugin.DecodeOptions(options, &opts); err != nil {
		return nil, err
	}
	return &Description{
		Base:   plugin.Base{Meta: meta(DescriptionName, descriptionSchema["description"].(string))},
		length: opts.Length,
	}, nil
}

func (t *Description) Transform(_ context.Context, doc *content.Document, _ *plugin.Site) error {
	if doc.Description != "" {
		return nil
	}
	doc.Description = Truncate(markdown.PlainText(doc.Body), t.length)
	return nil
}

// Truncate shortens s to at most n runes, cutting at a word boundary and
// appending "..." when anything was dropped.
func Truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	cut := string(runes[:n])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "..."
}
