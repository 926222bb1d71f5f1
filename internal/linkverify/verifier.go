// Package linkverify checks the links inside emitted HTML against the files
// of the output directory.
package linkverify

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/gardenbuild/internal/lint"
)

// BrokenLink is an internal link whose target file does not exist.
type BrokenLink struct {
	Page string // Output-relative path of the page holding the link
	URL  string
	Tag  string
	Line int
}

// Result summarizes one verification run.
type Result struct {
	Pages   int
	Checked int
	Broken  []BrokenLink
}

// Issues converts broken links to lint issues for the check formatters.
func (r *Result) Issues() []lint.Issue {
	issues := make([]lint.Issue, 0, len(r.Broken))
	for _, b := range r.Broken {
		issues = append(issues, lint.Issue{
			FilePath:    b.Page,
			Severity:    lint.SeverityError,
			Rule:        "rendered-links",
			Message:     fmt.Sprintf("Broken <%s> link: %s", b.Tag, b.URL),
			Explanation: "No file in the output directory serves this URL",
			Line:        b.Line,
		})
	}
	return issues
}

// Verifier checks rendered pages of one output directory.
type Verifier struct {
	outputDir string
	basePath  string
	host      string
}

// NewVerifier creates a verifier for outputDir. basePath is the URL prefix
// the site is served under ("" or "/sub") and host its own host name.
func NewVerifier(outputDir, basePath, host string) *Verifier {
	return &Verifier{
		outputDir: outputDir,
		basePath:  strings.TrimSuffix(basePath, "/"),
		host:      host,
	}
}

// Verify walks every .html file and checks its internal links.
func (v *Verifier) Verify(ctx context.Context) (*Result, error) {
	result := &Result{}
	err := filepath.WalkDir(v.outputDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".html") {
			return nil
		}
		rel, err := filepath.Rel(v.outputDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		links, err := ExtractLinks(p, v.host)
		if err != nil {
			return err
		}
		result.Pages++
		for _, l := range FilterLinks(links, true, false) {
			result.Checked++
			if !v.exists(rel, l.URL) {
				result.Broken = append(result.Broken, BrokenLink{Page: rel, URL: l.URL, Tag: l.Tag, Line: l.Line})
			}
		}
		return nil
	})
	sort.SliceStable(result.Broken, func(i, j int) bool { return result.Broken[i].Page < result.Broken[j].Page })
	return result, err
}

// pageURL is the URL a page is served at with pretty URLs.
func (v *Verifier) pageURL(rel string) string {
	u := "/" + strings.TrimSuffix(rel, ".html")
	if u == "/index" || strings.HasSuffix(u, "/index") {
		u = strings.TrimSuffix(u, "index")
	}
	return v.basePath + u
}

// exists resolves link as seen from page rel and reports whether a file
// serves it. Redirect pages count as targets too.
func (v *Verifier) exists(rel, link string) bool {
	base, err := url.Parse(v.pageURL(rel))
	if err != nil {
		return false
	}
	ref, err := url.Parse(link)
	if err != nil {
		return false
	}
	target := base.ResolveReference(ref).Path
	if v.basePath != "" {
		if !strings.HasPrefix(target, v.basePath+"/") && target != v.basePath {
			return false
		}
		target = strings.TrimPrefix(target, v.basePath)
	}
	target = strings.Trim(path.Clean("/"+target), "/")

	candidates := []string{target + ".html", path.Join(target, "index.html")}
	if target != "" {
		candidates = append([]string{target}, candidates...)
	}
	for _, c := range candidates {
		info, err := os.Stat(filepath.Join(v.outputDir, filepath.FromSlash(c)))
		if err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}
