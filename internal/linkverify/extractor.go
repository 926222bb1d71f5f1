package linkverify

import (
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/gardenbuild/internal/foundation/errors"
)

// Link represents an extracted link from HTML content.
type Link struct {
	URL        string // The URL or path
	Text       string // Link text/title
	Tag        string // HTML tag (a, img, script, link, etc.)
	Attribute  string // Attribute containing the link (href, src, etc.)
	IsInternal bool   // True if the target is a file of this site
	Line       int    // Approximate line number in HTML
}

// linkAttrs maps elements to the attribute holding their URL.
var linkAttrs = map[string]string{
	"a":      "href",
	"link":   "href",
	"img":    "src",
	"script": "src",
	"video":  "src",
	"audio":  "src",
	"source": "src",
}

// ExtractLinks extracts all links from an HTML file. host is the site's
// own host; absolute URLs on it count as internal.
func ExtractLinks(htmlPath string, host string) ([]*Link, error) {
	file, err := os.Open(filepath.Clean(htmlPath))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to open HTML file").WithContext("html_path", htmlPath).Build()
	}
	defer func() {
		_ = file.Close() // Ignore close errors on read-only operation
	}()

	return ExtractLinksFromReader(file, host)
}

// ExtractLinksFromReader extracts all links from an HTML reader.
func ExtractLinksFromReader(r io.Reader, host string) ([]*Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "failed to parse HTML").Build()
	}

	var links []*Link
	var lineNum int
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode {
			lineNum++
			if attr, ok := linkAttrs[n.Data]; ok {
				if v := getAttr(n, attr); v != "" {
					text := extractText(n)
					switch n.Data {
					case "img":
						text = getAttr(n, "alt")
					case "link":
						text = getAttr(n, "rel")
					}
					links = append(links, &Link{
						URL:        v,
						Text:       text,
						Tag:        n.Data,
						Attribute:  attr,
						IsInternal: isInternalLink(v, host),
						Line:       lineNum,
					})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(doc)
	return links, nil
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// extractText extracts text content from an HTML node and its children.
func extractText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}
	var text strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		text.WriteString(extractText(c))
	}
	return strings.TrimSpace(text.String())
}

// isInternalLink reports whether linkURL points at a file of this site.
// Anchors and special schemes are neither internal nor checked.
func isInternalLink(linkURL string, host string) bool {
	if linkURL == "" || strings.HasPrefix(linkURL, "#") {
		return false
	}
	u, err := url.Parse(linkURL)
	if err != nil {
		return false
	}
	switch {
	case u.Scheme == "" && u.Host == "":
		return u.Path != ""
	case u.Scheme == "" || u.Scheme == "http" || u.Scheme == "https":
		return host != "" && strings.EqualFold(u.Hostname(), host)
	default:
		return false
	}
}

// FilterLinks filters links based on criteria.
func FilterLinks(links []*Link, includeInternal, includeExternal bool) []*Link {
	var filtered []*Link
	for _, link := range links {
		if link.IsInternal && includeInternal {
			filtered = append(filtered, link)
		} else if !link.IsInternal && includeExternal {
			filtered = append(filtered, link)
		}
	}
	return filtered
}
