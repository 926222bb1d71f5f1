package emitters

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"

	"git.home.luguber.info/inful/gardenbuild/internal/content"
	"git.home.luguber.info/inful/gardenbuild/internal/logfields"
	"git.home.luguber.info/inful/gardenbuild/internal/plugin"
	"git.home.luguber.info/inful/gardenbuild/internal/plugin/transformers"
	"git.home.luguber.info/inful/gardenbuild/internal/theme"
)

var (
	aliasRedirectsSchema     = noOptions("Redirect pages for front matter aliases and permalinks")
	assetsSchema             = noOptions("Copy non-markdown files from the content directory")
	staticSchema             = noOptions("Theme stylesheet and syntax highlighting colors")
	componentResourcesSchema = noOptions("Client scripts for dark mode, popovers, SPA navigation and analytics")
	cnameSchema              = noOptions("CNAME file for custom domains")
)

// AliasRedirects writes a meta-refresh page at every alias of a document.
type AliasRedirects struct{ plugin.Base }

func newAliasRedirects(map[string]any) (plugin.Plugin, error) {
	return &AliasRedirects{plugin.Base{Meta: meta(AliasRedirectsName, aliasRedirectsSchema)}}, nil
}

func (e *AliasRedirects) Emit(ctx context.Context, site *plugin.Site, out plugin.Output) ([]string, error) {
	th, err := loadTheme()
	if err != nil {
		return nil, err
	}
	var written []string
	for _, d := range site.Documents {
		from := append([]string{}, d.Aliases...)
		if d.Permalink != "" {
			from = append(from, d.Permalink)
		}
		for _, alias := range from {
			slug := content.Slugify(strings.Trim(alias, "/"))
			if slug == "" || slug == d.Slug {
				continue
			}
			if _, taken := site.Document(slug); taken {
				slog.Warn("Alias shadows an existing page; skipping",
					logfields.Slug(d.Slug), slog.String("alias", alias))
				continue
			}
			var buf bytes.Buffer
			if err := th.RenderRedirect(&buf, theme.Redirect{
				Lang:   site.Config.Configuration.Locale,
				Title:  d.Title,
				Target: site.URL(d.Slug),
			}); err != nil {
				return written, err
			}
			rel, err := out.WriteFile(ctx, content.OutputPath(slug), buf.Bytes())
			if err != nil {
				return written, err
			}
			written = append(written, rel)
		}
	}
	return written, nil
}

// Assets copies every discovered non-markdown file. Ignore patterns were
// applied during discovery.
type Assets struct{ plugin.Base }

func newAssets(map[string]any) (plugin.Plugin, error) {
	return &Assets{plugin.Base{Meta: meta(AssetsName, assetsSchema)}}, nil
}

func (e *Assets) Emit(ctx context.Context, site *plugin.Site, out plugin.Output) ([]string, error) {
	written := make([]string, 0, len(site.Assets))
	for _, rel := range site.Assets {
		src := filepath.Join(site.ContentDir, filepath.FromSlash(rel))
		p, err := out.CopyFile(ctx, src, path.Clean(rel))
		if err != nil {
			return written, fmt.Errorf("copy %s: %w", rel, err)
		}
		written = append(written, p)
	}
	return written, nil
}

// Static writes index.css and static/highlight.css.
type Static struct{ plugin.Base }

func newStatic(map[string]any) (plugin.Plugin, error) {
	return &Static{plugin.Base{Meta: meta(StaticName, staticSchema)}}, nil
}

func (e *Static) Emit(ctx context.Context, site *plugin.Site, out plugin.Output) ([]string, error) {
	css, err := out.WriteFile(ctx, "index.css", theme.StyleSheet(site.Config.Configuration.Theme))
	if err != nil {
		return nil, err
	}
	hl, err := HighlightCSS(site)
	if err != nil {
		return []string{css}, err
	}
	hlPath, err := out.WriteFile(ctx, "static/highlight.css", hl)
	if err != nil {
		return []string{css}, err
	}
	return []string{css, hlPath}, nil
}

// HighlightCSS renders the chroma classes for the configured light theme
// and scopes the dark theme under the saved-theme attribute. It is empty when
// syntax highlighting is not selected.
func HighlightCSS(site *plugin.Site) ([]byte, error) {
	themes, ok := transformers.SelectedHighlightThemes(site.Config.Plugins)
	if !ok {
		return []byte{}, nil
	}
	formatter := chromahtml.New(chromahtml.WithClasses(true))

	var light, dark bytes.Buffer
	if err := formatter.WriteCSS(&light, styles.Get(themes.Light)); err != nil {
		return nil, err
	}
	if err := formatter.WriteCSS(&dark, styles.Get(themes.Dark)); err != nil {
		return nil, err
	}
	scoped := strings.ReplaceAll(dark.String(), "*/ .", `*/ :root[saved-theme="dark"] .`)
	return append(light.Bytes(), scoped...), nil
}

// ComponentResources writes prescript.js and postscript.js.
type ComponentResources struct{ plugin.Base }

func newComponentResources(map[string]any) (plugin.Plugin, error) {
	return &ComponentResources{plugin.Base{Meta: meta(ComponentResourcesName, componentResourcesSchema)}}, nil
}

func (e *ComponentResources) Emit(ctx context.Context, site *plugin.Site, out plugin.Output) ([]string, error) {
	pre, err := out.WriteFile(ctx, "prescript.js", theme.PreScript())
	if err != nil {
		return nil, err
	}
	post, err := out.WriteFile(ctx, "postscript.js", theme.PostScript(site.Config.Configuration))
	if err != nil {
		return []string{pre}, err
	}
	return []string{pre, post}, nil
}

// CNAME writes the base URL host for custom-domain hosting. Hosts serving
// from a sub-path get no CNAME.
type CNAME struct{ plugin.Base }

func newCNAME(map[string]any) (plugin.Plugin, error) {
	return &CNAME{plugin.Base{Meta: meta(CNAMEName, cnameSchema)}}, nil
}

func (e *CNAME) Emit(ctx context.Context, site *plugin.Site, out plugin.Output) ([]string, error) {
	host := site.Config.Configuration.Host()
	if host == "" || site.BasePath() != "" {
		return nil, nil
	}
	rel, err := out.WriteFile(ctx, "CNAME", []byte(host))
	if err != nil {
		return nil, err
	}
	return []string{rel}, nil
}
