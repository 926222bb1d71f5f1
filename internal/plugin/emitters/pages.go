package emitters

import (
	"bytes"
	"context"
	"html/template"
	"path"
	"sort"
	"strings"

	"git.home.luguber.info/inful/gardenbuild/internal/content"
	"git.home.luguber.info/inful/gardenbuild/internal/markdown"
	"git.home.luguber.info/inful/gardenbuild/internal/plugin"
	"git.home.luguber.info/inful/gardenbuild/internal/theme"
)

// basePage fills the fields every layout shares.
func basePage(site *plugin.Site, slug, heading string) *theme.Page {
	cfg := site.Config.Configuration
	return &theme.Page{
		SiteTitle:    cfg.PageTitle,
		Title:        site.Title(heading),
		Heading:      heading,
		Lang:         cfg.Locale,
		BasePath:     site.BasePath(),
		Slug:         slug,
		CanonicalURL: site.AbsoluteURL(site.URL(slug)),
		Preconnect:   cfg.Theme.FontOrigin == "googleFonts" && cfg.Theme.CDNCaching,
		GeneratedAt:  site.GeneratedAt,
		Breadcrumbs:  breadcrumbs(site, slug),
	}
}

// breadcrumbs lists the folders above slug, starting at the home page.
func breadcrumbs(site *plugin.Site, slug string) []theme.Link {
	simple := strings.TrimSuffix(content.SimplifySlug(slug), "/")
	if simple == "" {
		return nil
	}
	crumbs := []theme.Link{{Title: "Home", URL: site.URL("index")}}
	parts := strings.Split(simple, "/")
	for i := 1; i < len(parts); i++ {
		folder := strings.Join(parts[:i], "/")
		crumbs = append(crumbs, theme.Link{Title: folderTitle(site, folder), URL: site.URL(folder + "/index")})
	}
	return crumbs
}

func folderTitle(site *plugin.Site, folder string) string {
	if folder == "" {
		return "Home"
	}
	if d, ok := site.Document(folder + "/index"); ok {
		return d.Title
	}
	return content.TitleFromPath(folder + "/index.md")
}

func tagLinks(site *plugin.Site, tags []string) []theme.Link {
	out := make([]theme.Link, 0, len(tags))
	for _, t := range tags {
		out = append(out, theme.Link{Title: t, URL: site.TagURL(t)})
	}
	return out
}

func listItem(site *plugin.Site, d *content.Document) theme.ListItem {
	return theme.ListItem{
		Title:       d.Title,
		URL:         site.URL(d.Slug),
		Description: d.Description,
		Date:        site.Date(d),
		Tags:        tagLinks(site, d.Tags),
	}
}

func readingTime(body []byte) int {
	words := len(strings.Fields(markdown.PlainText(body)))
	if words == 0 {
		return 0
	}
	return (words + 199) / 200
}

// contentPage builds the page of a single document.
func contentPage(site *plugin.Site, d *content.Document) *theme.Page {
	p := basePage(site, d.Slug, d.Title)
	if d.Lang != "" {
		p.Lang = d.Lang
	}
	p.Description = d.Description
	p.CSSClasses = d.CSSClasses
	p.Date = site.Date(d)
	p.ReadingTime = readingTime(d.Body)
	p.Tags = tagLinks(site, d.Tags)
	p.TOC = d.TOC
	p.Content = template.HTML(d.HTML) //nolint:gosec // rendered by goldmark from site content
	for _, b := range site.Backlinks(d.Slug) {
		p.Backlinks = append(p.Backlinks, theme.Link{Title: b.Title, URL: site.URL(b.Slug)})
	}
	return p
}

func writePage(ctx context.Context, out plugin.Output, rel, layout string, p *theme.Page) (string, error) {
	th, err := loadTheme()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := th.Render(&buf, layout, p); err != nil {
		return "", err
	}
	return out.WriteFile(ctx, rel, buf.Bytes())
}

// folders returns every folder containing a published document, including
// the root "", sorted.
func folders(site *plugin.Site) []string {
	set := map[string]struct{}{"": {}}
	for _, d := range site.Documents {
		dir := path.Dir(d.Slug)
		for dir != "." && dir != "/" {
			set[dir] = struct{}{}
			dir = path.Dir(dir)
		}
	}
	out := make([]string, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// indexSlug is the slug of a folder's index page.
func indexSlug(folder string) string {
	if folder == "" {
		return "index"
	}
	return folder + "/index"
}

// generatedFolders are the folders without an authored index document.
func generatedFolders(site *plugin.Site) []string {
	var out []string
	for _, f := range folders(site) {
		if _, ok := site.Document(indexSlug(f)); !ok {
			out = append(out, f)
		}
	}
	return out
}

// allTags returns every tag and every parent of a hierarchical tag, sorted.
// Tags sharing a slug, such as "Go" and "go", appear once under the first
// spelling in sort order.
func allTags(site *plugin.Site) []string {
	set := map[string]struct{}{}
	for _, t := range site.SortedTags() {
		parts := strings.Split(t, "/")
		for i := 1; i <= len(parts); i++ {
			set[strings.Join(parts[:i], "/")] = struct{}{}
		}
	}
	tags := make([]string, 0, len(set))
	for t := range set {
		tags = append(tags, t)
	}
	sort.Strings(tags)

	seen := make(map[string]bool, len(tags))
	out := tags[:0]
	for _, t := range tags {
		s := content.SlugifyTag(t)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, t)
	}
	return out
}

// taggedWith returns documents carrying tag or one of its sub-tags,
// comparing by slug.
func taggedWith(site *plugin.Site, tag string) []*content.Document {
	want := content.SlugifyTag(tag)
	var out []*content.Document
	for _, d := range site.Documents {
		for _, t := range d.Tags {
			if s := content.SlugifyTag(t); s == want || strings.HasPrefix(s, want+"/") {
				out = append(out, d)
				break
			}
		}
	}
	return out
}
