package plugin

import (
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/gardenbuild/internal/config"
	"git.home.luguber.info/inful/gardenbuild/internal/content"
)

// Site is the read-only view plugins get of the build.
//
// During the parse stage Documents and Tags are empty; AllSlugs and Assets
// are known from discovery. Both are filled before emitters run.
type Site struct {
	Config      config.Config
	ContentDir  string
	GeneratedAt time.Time
	// AllSlugs holds every discovered article slug, sorted.
	AllSlugs []string
	// Assets holds content-relative paths of non-markdown files, sorted.
	Assets []string
	// Documents holds the published documents sorted by slug.
	Documents []*content.Document
	// Tags maps a tag to the published documents carrying it.
	Tags map[string][]*content.Document
	// Unchanged lists slugs whose previous page output can be reused.
	Unchanged map[string]bool

	bySlug    map[string]*content.Document
	backlinks map[string][]*content.Document
}

// NewSite creates the parse-stage view.
func NewSite(cfg config.Config, contentDir string, generatedAt time.Time, sources []content.Source) *Site {
	s := &Site{
		Config:      cfg,
		ContentDir:  contentDir,
		GeneratedAt: generatedAt,
		Tags:        map[string][]*content.Document{},
		Unchanged:   map[string]bool{},
		bySlug:      map[string]*content.Document{},
		backlinks:   map[string][]*content.Document{},
	}
	for _, src := range sources {
		if src.IsMarkdown {
			s.AllSlugs = append(s.AllSlugs, content.Slugify(src.RelativePath))
		} else {
			s.Assets = append(s.Assets, src.RelativePath)
		}
	}
	sort.Strings(s.AllSlugs)
	sort.Strings(s.Assets)
	return s
}

// Publish installs the published documents, sorted by slug, and indexes
// them by tag.
func (s *Site) Publish(docs []*content.Document) {
	sorted := append([]*content.Document(nil), docs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Slug < sorted[j].Slug })
	s.Documents = sorted
	s.Tags = map[string][]*content.Document{}
	s.bySlug = make(map[string]*content.Document, len(sorted))
	s.backlinks = map[string][]*content.Document{}
	for _, d := range sorted {
		s.bySlug[d.Slug] = d
		for _, tag := range d.Tags {
			s.Tags[tag] = append(s.Tags[tag], d)
		}
	}
	for _, d := range sorted {
		for _, target := range d.Links {
			if _, ok := s.bySlug[target]; ok {
				s.backlinks[target] = append(s.backlinks[target], d)
			}
		}
	}
}

// Backlinks returns the published documents linking to slug, sorted by slug.
func (s *Site) Backlinks(slug string) []*content.Document {
	return s.backlinks[slug]
}

// Document returns the published document with slug.
func (s *Site) Document(slug string) (*content.Document, bool) {
	d, ok := s.bySlug[slug]
	return d, ok
}

// SortedTags returns every tag in lexical order.
func (s *Site) SortedTags() []string {
	tags := make([]string, 0, len(s.Tags))
	for t := range s.Tags {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// BasePath is the URL path prefix from the configured base URL.
func (s *Site) BasePath() string { return s.Config.Configuration.BasePath() }

// URL is the site-absolute URL for a slug.
func (s *Site) URL(slug string) string {
	return content.URLPath(s.BasePath(), slug, true)
}

// AbsoluteURL is the full https URL for a site path such as "/a/b".
// Without a base URL it returns the path unchanged.
func (s *Site) AbsoluteURL(path string) string {
	host := s.Config.Configuration.Host()
	if host == "" {
		return path
	}
	return "https://" + host + path
}

// TagURL is the URL of a tag page.
func (s *Site) TagURL(tag string) string {
	return s.URL("tags/" + content.SlugifyTag(tag))
}

// AssetURL is the URL of a copied asset.
func (s *Site) AssetURL(rel string) string {
	return strings.TrimSuffix(s.BasePath(), "/") + "/" + strings.TrimPrefix(rel, "/")
}

// Date returns the document date selected by default_date_type.
func (s *Site) Date(d *content.Document) time.Time {
	return d.Dates.Get(string(s.Config.Configuration.DefaultDateType))
}

// Title returns the page title with the configured suffix.
func (s *Site) Title(pageTitle string) string {
	return pageTitle + s.Config.Configuration.PageTitleSuffix
}

// NewestFirst returns docs sorted by the site date, newest first, with slug
// as a tie-breaker.
func (s *Site) NewestFirst(docs []*content.Document) []*content.Document {
	out := append([]*content.Document(nil), docs...)
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := s.Date(out[i]), s.Date(out[j])
		if !di.Equal(dj) {
			return di.After(dj)
		}
		return out[i].Slug < out[j].Slug
	})
	return out
}
