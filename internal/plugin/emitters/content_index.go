package emitters

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"time"

	"git.home.luguber.info/inful/gardenbuild/internal/content"
	"git.home.luguber.info/inful/gardenbuild/internal/markdown"
	"git.home.luguber.info/inful/gardenbuild/internal/plugin"
)

var contentIndexSchema = map[string]any{
	"type":                 "object",
	"description":          "sitemap.xml, the RSS feed and the client-side content index",
	"additionalProperties": false,
	"properties": map[string]any{
		"enable_sitemap": map[string]any{"type": "boolean"},
		"enable_rss":     map[string]any{"type": "boolean"},
		"rss_limit":      map[string]any{"type": "integer", "minimum": 1},
		"rss_full_html":  map[string]any{"type": "boolean"},
	},
}

type contentIndexOptions struct {
	EnableSitemap bool `json:"enable_sitemap"`
	EnableRSS     bool `json:"enable_rss"`
	RSSLimit      int  `json:"rss_limit"`
	RSSFullHTML   bool `json:"rss_full_html"`
}

// ContentIndex writes sitemap.xml, index.xml and static/contentIndex.json.
type ContentIndex struct {
	plugin.Base
	opts contentIndexOptions
}

func newContentIndex(options map[string]any) (plugin.Plugin, error) {
	opts := contentIndexOptions{EnableSitemap: true, EnableRSS: true, RSSLimit: 10}
	if err := plugin.DecodeOptions(options, &opts); err != nil {
		return nil, err
	}
	return &ContentIndex{Base: plugin.Base{Meta: meta(ContentIndexName, contentIndexSchema)}, opts: opts}, nil
}

func (e *ContentIndex) Emit(ctx context.Context, site *plugin.Site, out plugin.Output) ([]string, error) {
	var written []string
	write := func(rel string, data []byte, err error) error {
		if err != nil {
			return err
		}
		p, err := out.WriteFile(ctx, rel, data)
		if err != nil {
			return err
		}
		written = append(written, p)
		return nil
	}

	if e.opts.EnableSitemap {
		data, err := Sitemap(site)
		if err := write("sitemap.xml", data, err); err != nil {
			return written, err
		}
	}
	if e.opts.EnableRSS {
		data, err := RSS(site, e.opts.RSSLimit, e.opts.RSSFullHTML)
		if err := write("index.xml", data, err); err != nil {
			return written, err
		}
	}
	data, err := ContentIndexJSON(site)
	if err := write("static/contentIndex.json", data, err); err != nil {
		return written, err
	}
	return written, nil
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// Sitemap lists every published document plus the generated folder and tag
// pages of the selected emitters.
func Sitemap(site *plugin.Site) ([]byte, error) {
	set := urlSet{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	add := func(slug string, mod time.Time) {
		u := sitemapURL{Loc: site.AbsoluteURL(site.URL(slug))}
		if !mod.IsZero() {
			u.LastMod = mod.UTC().Format("2006-01-02")
		}
		set.URLs = append(set.URLs, u)
	}
	for _, d := range site.Documents {
		add(d.Slug, d.Dates.Get("modified"))
	}
	if selected(site, FolderPageName) {
		for _, f := range generatedFolders(site) {
			add(indexSlug(f), time.Time{})
		}
	}
	if selected(site, TagPageName) {
		for _, t := range allTags(site) {
			add("tags/"+content.SlugifyTag(t), time.Time{})
		}
		add("tags/index", time.Time{})
	}
	return marshalXML(set)
}

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Atom    string     `xml:"xmlns:atom,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Language    string    `xml:"language,omitempty"`
	Generator   string    `xml:"generator"`
	LastBuild   string    `xml:"lastBuildDate,omitempty"`
	AtomLink    atomLink  `xml:"atom:link"`
	Items       []rssItem `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	GUID        string   `xml:"guid"`
	Description cdata    `xml:"description"`
	PubDate     string   `xml:"pubDate,omitempty"`
	Categories  []string `xml:"category"`
}

type cdata struct {
	Text string `xml:",cdata"`
}

// RSS builds an RSS 2.0 feed of the newest limit documents.
func RSS(site *plugin.Site, limit int, fullHTML bool) ([]byte, error) {
	cfg := site.Config.Configuration
	home := site.AbsoluteURL(site.URL("index"))
	ch := rssChannel{
		Title:       cfg.PageTitle,
		Link:        home,
		Description: "Recent content on " + cfg.PageTitle,
		Language:    cfg.Locale,
		Generator:   "gardenbuild",
		AtomLink:    atomLink{Href: site.AbsoluteURL(site.AssetURL("index.xml")), Rel: "self", Type: "application/rss+xml"},
	}
	if !site.GeneratedAt.IsZero() {
		ch.LastBuild = site.GeneratedAt.UTC().Format(time.RFC1123Z)
	}

	docs := site.NewestFirst(site.Documents)
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	for _, d := range docs {
		link := site.AbsoluteURL(site.URL(d.Slug))
		item := rssItem{Title: d.Title, Link: link, GUID: link, Categories: d.Tags}
		if fullHTML {
			item.Description = cdata{Text: d.HTML}
		} else {
			item.Description = cdata{Text: d.Description}
		}
		if date := site.Date(d); !date.IsZero() {
			item.PubDate = date.UTC().Format(time.RFC1123Z)
		}
		ch.Items = append(ch.Items, item)
	}
	return marshalXML(rssFeed{Version: "2.0", Atom: "http://www.w3.org/2005/Atom", Channel: ch})
}

// IndexEntry is one document in static/contentIndex.json, used by client
// search and link previews.
type IndexEntry struct {
	Title       string   `json:"title"`
	Links       []string `json:"links"`
	Tags        []string `json:"tags"`
	Content     string   `json:"content"`
	Description string   `json:"description,omitempty"`
	Date        string   `json:"date,omitempty"`
}

// ContentIndexJSON maps each published slug to its IndexEntry.
func ContentIndexJSON(site *plugin.Site) ([]byte, error) {
	index := make(map[string]IndexEntry, len(site.Documents))
	for _, d := range site.Documents {
		e := IndexEntry{
			Title:       d.Title,
			Links:       nonNil(d.Links),
			Tags:        nonNil(d.Tags),
			Content:     markdown.PlainText(d.Body),
			Description: d.Description,
		}
		if date := site.Date(d); !date.IsZero() {
			e.Date = date.UTC().Format(time.RFC3339)
		}
		index[d.Slug] = e
	}
	return json.Marshal(index)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func marshalXML(v any) ([]byte, error) {
	body, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), append(body, '\n')...), nil
}
