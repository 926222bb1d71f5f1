package content

import (
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/inful/mdfp"
	"github.com/yuin/goldmark"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/gardenbuild/internal/frontmatter"
)

// Dates holds the three article dates. A zero value means unknown.
type Dates struct {
	Created   time.Time
	Modified  time.Time
	Published time.Time
}

// Get returns the date selected by kind ("created", "modified" or
// "published"), falling back to the other dates when it is unknown.
func (d Dates) Get(kind string) time.Time {
	order := []time.Time{d.Created, d.Modified, d.Published}
	switch kind {
	case "modified":
		order = []time.Time{d.Modified, d.Created, d.Published}
	case "published":
		order = []time.Time{d.Published, d.Created, d.Modified}
	}
	for _, t := range order {
		if !t.IsZero() {
			return t
		}
	}
	return time.Time{}
}

// Article is a single authored markdown note.
type Article struct {
	Slug         string
	FilePath     string
	RelativePath string
	Title        string
	Tags         []string
	Aliases      []string
	Dates        Dates
	Draft        bool
	Publish      bool
	Description  string
	Lang         string
	CSSClasses   []string
	Permalink    string
	Body         []byte
	FrontMatter  map[string]any
}

// TOCEntry is one heading in a document's table of contents.
type TOCEntry struct {
	Depth int
	Text  string
	ID    string
}

// Document is the pipeline's unit of work: an Article plus the state the
// transformers build up. Each document is owned by one goroutine during the
// parse stage.
type Document struct {
	Article

	Source          Source
	RawFrontMatter  []byte
	Format          frontmatter.Format
	HadFrontMatter  bool
	HTML            string
	TOC             []TOCEntry
	Links           []string
	UnresolvedLinks []string
	Fingerprint     string
	// Extensions are goldmark extenders added for this document only.
	Extensions []goldmark.Extender
	// Resolver is set by link crawling and used when rendering wikilinks.
	Resolver *Resolver
}

// Load reads src and splits its front matter. Article fields other than the
// slug, paths, fallback title and body are left for transformers to fill.
func Load(src Source) (*Document, error) {
	raw, err := os.ReadFile(src.Path)
	if err != nil {
		return nil, err
	}
	return Parse(src, raw)
}

// Parse builds a Document from raw file bytes.
func Parse(src Source, raw []byte) (*Document, error) {
	fm, body, format, had, _, err := frontmatter.Split(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.RelativePath, err)
	}
	fields, err := frontmatter.Parse(fm, format)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid front matter: %w", src.RelativePath, err)
	}

	slug := Slugify(src.RelativePath)
	doc := &Document{
		Article: Article{
			Slug:         slug,
			FilePath:     src.Path,
			RelativePath: src.RelativePath,
			Title:        TitleFromPath(src.RelativePath),
			Body:         body,
			FrontMatter:  fields,
		},
		Source:         src,
		RawFrontMatter: fm,
		Format:         format,
		HadFrontMatter: had,
	}

	doc.Fingerprint, err = Fingerprint(fields, body)
	if err != nil {
		return nil, fmt.Errorf("%s: fingerprint: %w", src.RelativePath, err)
	}
	return doc, nil
}

// Fingerprint is the mdfp content fingerprint over canonical YAML front
// matter and the body. A stored "fingerprint" key is excluded.
func Fingerprint(fields map[string]any, body []byte) (string, error) {
	forHash := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == mdfp.FingerprintField {
			continue
		}
		forHash[k] = v
	}
	serialized, err := frontmatter.SerializeYAML(forHash, frontmatter.Style{Newline: "\n"})
	if err != nil {
		return "", err
	}
	fm := strings.TrimSuffix(string(serialized), "\n")
	return mdfp.CalculateFingerprintFromParts(fm, string(body)), nil
}

var titleCaser = cases.Title(language.Und)

// TitleFromPath derives a display title from a file name. Index files take
// the name of their folder.
func TitleFromPath(relPath string) string {
	base := path.Base(strings.ReplaceAll(relPath, "\\", "/"))
	name := strings.TrimSuffix(base, path.Ext(base))
	if strings.EqualFold(name, "index") {
		dir := path.Dir(relPath)
		if dir == "." || dir == "/" {
			return "Home"
		}
		name = path.Base(dir)
	}
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return titleCaser.String(strings.TrimSpace(name))
}

// StringSet coerces a front matter value into a de-duplicated list of
// strings. It accepts a YAML list or a single string separated by commas or
// whitespace. A leading "#" is stripped and empty items are dropped.
func StringSet(v any) []string {
	var items []string
	switch vv := v.(type) {
	case nil:
		return nil
	case string:
		items = strings.FieldsFunc(vv, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n'
		})
	case []string:
		items = vv
	case []any:
		for _, item := range vv {
			if item == nil {
				continue
			}
			items = append(items, fmt.Sprint(item))
		}
	default:
		items = []string{fmt.Sprint(vv)}
	}

	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(item), "#"))
		if item == "" {
			continue
		}
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

// AddTags appends tags to the article, keeping the set property.
func (a *Article) AddTags(tags ...string) {
	a.Tags = StringSet(append(append([]string{}, a.Tags...), tags...))
}
