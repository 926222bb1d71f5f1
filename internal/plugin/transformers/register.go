// Package transformers holds the built-in parse-stage plugins.
package transformers

import (
	"git.home.luguber.info/inful/gardenbuild/internal/plugin"
)

const version = "v1"

func meta(name, description string) plugin.Metadata {
	return plugin.Metadata{Name: name, Version: version, Type: plugin.TypeTransformer, Description: description}
}

// Register adds every built-in transformer to r.
func Register(r *plugin.Registry) error {
	table := []struct {
		name   string
		schema map[string]any
		ctor   plugin.Constructor
	}{
		{FrontMatterName, frontMatterSchema, newFrontMatter},
		{DatesName, datesSchema, newDates},
		{HighlightName, highlightSchema, newHighlight},
		{ObsidianName, obsidianSchema, newObsidian},
		{GFMName, gfmSchema, newGFM},
		{HardLineBreaksName, hardLineBreaksSchema, newHardLineBreaks},
		{TOCName, tocSchema, newTOC},
		{CrawlLinksName, crawlLinksSchema, newCrawlLinks},
		{DescriptionName, descriptionSchema, newDescription},
	}
	for _, e := range table {
		if err := r.Register(e.name, plugin.TypeTransformer, version, e.schema, e.ctor); err != nil {
			return err
		}
	}
	return nil
}

func boolValue(v any) bool {
	switch vv := v.(type) {
	case bool:
		return vv
	case string:
		return vv == "true" || vv == "yes"
	}
	return false
}
