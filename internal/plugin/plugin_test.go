package plugin

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/gardenbuild/internal/config"
	"git.home.luguber.info/inful/gardenbuild/internal/content"
)

type stubFilter struct {
	Base
	keep bool
}

func (s *stubFilter) Keep(*content.Document) bool { return s.keep }

type stubTransformer struct{ Base }

func (s *stubTransformer) Transform(context.Context, *content.Document, *Site) error { return nil }

var keepSchema = map[string]any{
	"type":                 "object",
	"description":          "test filter",
	"additionalProperties": false,
	"properties": map[string]any{
		"keep": map[string]any{"type": "boolean"},
	},
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, r.Register("keep", TypeFilter, "v1", keepSchema, func(opts map[string]any) (Plugin, error) {
		var o struct {
			Keep bool `json:"keep"`
		}
		if err := DecodeOptions(opts, &o); err != nil {
			return nil, err
		}
		return &stubFilter{Base: Base{Meta: Metadata{Name: "keep", Version: "v1", Type: TypeFilter}}, keep: o.Keep}, nil
	}))
	require.NoError(t, r.Register("noop", TypeTransformer, "v1", nil, func(map[string]any) (Plugin, error) {
		return &stubTransformer{Base: Base{Meta: Metadata{Name: "noop", Version: "v1", Type: TypeTransformer}}}, nil
	}))
	return r
}

func TestRegistry_RegisterAndList(t *testing.T) {
	r := newTestRegistry(t)
	assert.Equal(t, 2, r.Count())
	assert.True(t, r.Has("keep"))

	err := r.Register("keep", TypeFilter, "v2", nil, func(map[string]any) (Plugin, error) { return nil, nil })
	require.ErrorIs(t, err, ErrDuplicatePlugin)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "noop", list[0].Name, "transformers sort first")
	assert.Equal(t, "test filter", list[1].Description)
	assert.Len(t, r.ListByType(TypeFilter), 1)

	require.Error(t, r.Register("", TypeFilter, "v1", nil, nil))
	require.Error(t, r.Register("bad", Type("x"), "v1", nil, func(map[string]any) (Plugin, error) { return nil, nil }))
}

func TestRegistry_Instantiate(t *testing.T) {
	r := newTestRegistry(t)

	p, err := r.Instantiate(TypeFilter, config.PluginSelection{Name: "keep", Options: map[string]any{"keep": true}})
	require.NoError(t, err)
	assert.True(t, p.(Filter).Keep(&content.Document{}))

	_, err = r.Instantiate(TypeFilter, config.PluginSelection{Name: "missing"})
	require.ErrorIs(t, err, ErrUnknownPlugin)

	_, err = r.Instantiate(TypeEmitter, config.PluginSelection{Name: "keep"})
	require.ErrorIs(t, err, ErrStageMismatch)

	_, err = r.Instantiate(TypeFilter, config.PluginSelection{Name: "keep", Options: map[string]any{"keep": "yes"}})
	require.ErrorIs(t, err, ErrInvalidOptions)
	var perr *PluginError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "keep", perr.Plugin)

	_, err = r.Instantiate(TypeFilter, config.PluginSelection{Name: "keep", Options: map[string]any{"other": 1}})
	require.ErrorIs(t, err, ErrInvalidOptions)
}

func TestRegistry_CheckImplementsConfigChecker(t *testing.T) {
	r := newTestRegistry(t)
	cfg := config.Config{Plugins: config.PluginsConfig{
		Transformers: []config.PluginSelection{{Name: "noop"}},
		Filters:      []config.PluginSelection{{Name: "keep"}, {Name: "noop"}},
	}}
	err := cfg.ValidatePlugins(r)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStageMismatch)
}

func TestRegistry_BuildPreservesOrder(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register("noop2", TypeTransformer, "v1", nil, func(map[string]any) (Plugin, error) {
		return &stubTransformer{Base: Base{Meta: Metadata{Name: "noop2", Version: "v1", Type: TypeTransformer}}}, nil
	}))

	p, err := r.Build(config.PluginsConfig{
		Transformers: []config.PluginSelection{{Name: "noop2"}, {Name: "noop"}},
		Filters:      []config.PluginSelection{{Name: "keep"}},
	})
	require.NoError(t, err)
	require.Len(t, p.Transformers, 2)
	assert.Equal(t, "noop2", p.Transformers[0].Metadata().Name)
	assert.Equal(t, "noop", p.Transformers[1].Metadata().Name)
	assert.Len(t, p.Filters, 1)
	assert.Empty(t, p.Emitters)
}

func TestDirOutput(t *testing.T) {
	dir := t.TempDir()
	out := NewDirOutput(dir)
	ctx := context.Background()

	rel, err := out.WriteFile(ctx, "a/b.html", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "a/b.html", rel)
	assert.True(t, out.Exists("a/b.html"))

	for _, bad := range []string{"../x", "/etc/passwd", "a/../../x", ""} {
		_, err := out.WriteFile(ctx, bad, nil)
		require.ErrorIs(t, err, ErrPathEscapesOutput, bad)
	}

	src := filepath.Join(t.TempDir(), "src.png")
	require.NoError(t, os.WriteFile(src, []byte("png"), 0o644))
	rel, err = out.CopyFile(ctx, src, "img/p.png")
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, "img", "p.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
	assert.Equal(t, "img/p.png", rel)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = out.WriteFile(canceled, "c.html", nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSite(t *testing.T) {
	cfg := config.Default()
	cfg.Configuration.BaseURL = "example.com/garden"
	srcs := []content.Source{
		{RelativePath: "b.md", IsMarkdown: true},
		{RelativePath: "a.md", IsMarkdown: true},
		{RelativePath: "img/x.png"},
	}
	site := NewSite(*cfg, "content", time.Unix(0, 0), srcs)
	assert.Equal(t, []string{"a", "b"}, site.AllSlugs)
	assert.Equal(t, []string{"img/x.png"}, site.Assets)

	older := &content.Document{Article: content.Article{Slug: "b", Tags: []string{"go"}, Dates: content.Dates{Created: time.Unix(100, 0)}}, Links: []string{"a", "gone"}}
	newer := &content.Document{Article: content.Article{Slug: "a", Tags: []string{"go", "web"}, Dates: content.Dates{Created: time.Unix(200, 0)}}}
	site.Publish([]*content.Document{older, newer})

	assert.Equal(t, "a", site.Documents[0].Slug)
	assert.Equal(t, []string{"go", "web"}, site.SortedTags())
	assert.Len(t, site.Tags["go"], 2)
	d, ok := site.Document("b")
	require.True(t, ok)
	assert.Same(t, older, d)
	assert.Equal(t, []*content.Document{older}, site.Backlinks("a"))
	assert.Empty(t, site.Backlinks("gone"))

	assert.Equal(t, "/garden/a", site.URL("a"))
	assert.Equal(t, "https://example.com/garden/a", site.AbsoluteURL(site.URL("a")))
	assert.Equal(t, "/garden/tags/go", site.TagURL("go"))
	assert.Equal(t, "/garden/img/x.png", site.AssetURL("img/x.png"))
	assert.Equal(t, []*content.Document{newer, older}, site.NewestFirst(site.Documents))
}
