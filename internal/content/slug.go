package content

import (
	"path"
	"strings"

	"github.com/goliatone/go-slug"
)

var slugReplacer = strings.NewReplacer(
	" ", "-",
	"&", "-and-",
	"%", "",
	"?", "",
	"#", "",
)

// Slugify turns a content-relative file path into a slug. The extension of
// markdown files is stripped and path separators are kept, so "Notes/My
// Post.md" becomes "Notes/My-Post". Index files keep their "index" segment;
// SimplifySlug maps them to the folder.
func Slugify(relPath string) string {
	p := strings.ReplaceAll(relPath, "\\", "/")
	p = strings.Trim(p, "/")
	if IsMarkdownFile(p) {
		p = strings.TrimSuffix(p, path.Ext(p))
	}

	segments := strings.Split(p, "/")
	out := segments[:0]
	for _, s := range segments {
		s = slugReplacer.Replace(s)
		for strings.Contains(s, "--") {
			s = strings.ReplaceAll(s, "--", "-")
		}
		if s == "" || s == "." {
			continue
		}
		out = append(out, s)
	}
	return strings.Join(out, "/")
}

// SimplifySlug strips a trailing "index" segment. "a/index" becomes "a/"
// and the root "index" becomes "".
func SimplifySlug(s string) string {
	if s == "index" {
		return ""
	}
	if strings.HasSuffix(s, "/index") {
		return strings.TrimSuffix(s, "index")
	}
	return s
}

// IsFolderSlug reports whether s names a folder index.
func IsFolderSlug(s string) bool {
	return s == "index" || strings.HasSuffix(s, "/index")
}

// OutputPath is the HTML file written for a slug.
func OutputPath(s string) string {
	return s + ".html"
}

// URLPath returns the site-absolute URL for a slug, honoring a base path such
// as "/blog" taken from the configured base URL. Pretty links omit ".html".
func URLPath(basePath, s string, pretty bool) string {
	basePath = strings.TrimSuffix(basePath, "/")
	simple := SimplifySlug(s)
	if !pretty && simple != "" && !strings.HasSuffix(simple, "/") {
		simple += ".html"
	}
	return basePath + "/" + simple
}

// tagSymbols spells out characters that carry meaning in tag names, so
// "C++", "C#" and "C" get distinct slugs.
var tagSymbols = strings.NewReplacer(
	"+", "-plus-",
	"#", "-sharp-",
	"&", "-and-",
	"@", "-at-",
)

// SlugifyTag normalizes a tag for use in URLs. Hierarchical tags keep their
// "/" separators. A leading "#" from inline tag syntax is dropped.
func SlugifyTag(tag string) string {
	tag = strings.Trim(strings.TrimLeft(strings.TrimSpace(tag), "#"), "/")
	parts := strings.Split(tag, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = tagSymbols.Replace(strings.TrimSpace(p))
		s, err := slug.Normalize(p)
		if err != nil || s == "" {
			s = strings.ToLower(slugReplacer.Replace(p))
		}
		for strings.Contains(s, "--") {
			s = strings.ReplaceAll(s, "--", "-")
		}
		if s = strings.Trim(s, "-"); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "/")
}

// DuplicateSlugs groups markdown sources whose paths slugify to the same
// slug. Only slugs shared by more than one file are returned; each list is
// in source order.
func DuplicateSlugs(sources []Source) map[string][]string {
	bySlug := map[string][]string{}
	for _, src := range sources {
		if src.IsMarkdown {
			s := Slugify(src.RelativePath)
			bySlug[s] = append(bySlug[s], src.RelativePath)
		}
	}
	for s, paths := range bySlug {
		if len(paths) < 2 {
			delete(bySlug, s)
		}
	}
	return bySlug
}
