package build

import (
	"context"
	"fmt"
	"sort"
	"time"

	"git.home.luguber.info/inful/gardenbuild/internal/config"
	"git.home.luguber.info/inful/gardenbuild/internal/content"
	dberrors "git.home.luguber.info/inful/gardenbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/gardenbuild/internal/logfields"
	"git.home.luguber.info/inful/gardenbuild/internal/plugin"
	"git.home.luguber.info/inful/gardenbuild/internal/plugin/builtin"
	"git.home.luguber.info/inful/gardenbuild/internal/plugin/filters"
)

// CatalogEntry is one article after the configured transformers ran.
type CatalogEntry struct {
	Doc       *content.Document
	Published bool // false when a filter drops it
}

// Catalog runs discovery and the configured transformers without rendering
// or writing output. Entries are sorted by slug. A nil registry means the
// built-in plugins.
func Catalog(ctx context.Context, cfg *config.Config, registry *plugin.Registry) ([]CatalogEntry, error) {
	if registry == nil {
		registry = builtin.NewRegistry()
	}
	pipeline, err := registry.Build(cfg.Plugins)
	if err != nil {
		return nil, dberrors.WrapError(err, dberrors.CategoryPlugin, "plugin configuration invalid").Build()
	}
	sources, err := content.Discover(ctx, cfg.Build.ContentDir, cfg.Configuration.IgnorePatterns)
	if err != nil {
		return nil, dberrors.WrapError(fmt.Errorf("%w: %w", ErrDiscovery, err), dberrors.CategoryFileSystem, "content discovery failed").
			WithContext(logfields.KeyPath, cfg.Build.ContentDir).Build()
	}
	site := plugin.NewSite(*cfg.Clone(), cfg.Build.ContentDir, time.Now(), sources)

	var entries []CatalogEntry
	for _, src := range content.Markdown(sources) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := content.Load(src)
		if err != nil {
			return nil, dberrors.WrapError(fmt.Errorf("%w: %w", ErrParse, err), dberrors.CategoryContent, "cannot read article").
				WithContext(logfields.KeyFile, src.RelativePath).Build()
		}
		for _, t := range pipeline.Transformers {
			if err := t.Transform(ctx, doc, site); err != nil {
				return nil, dberrors.WrapError(fmt.Errorf("%w: %w", ErrParse, plugin.Wrap(t, err)), dberrors.CategoryPlugin, "transformer failed").
					WithContext(logfields.KeyFile, src.RelativePath).
					WithContext(logfields.KeyPlugin, t.Metadata().Name).Build()
			}
		}
		entries = append(entries, CatalogEntry{Doc: doc, Published: filters.KeepAll(pipeline.Filters, doc)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Doc.Slug < entries[j].Doc.Slug })
	return entries, nil
}
