// Package theme renders page layouts and the site stylesheet and scripts.
// Layouts and static assets are embedded in the binary.
package theme

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"git.home.luguber.info/inful/gardenbuild/internal/config"
	"git.home.luguber.info/inful/gardenbuild/internal/content"
)

//go:embed layouts/*.html
var layoutFS embed.FS

//go:embed assets/*
var assetFS embed.FS

// Layout names accepted by Render.
const (
	LayoutContent  = "content"
	LayoutList     = "list"
	LayoutNotFound = "notfound"
)

// Link is a titled URL.
type Link struct {
	Title string
	URL   string
}

// ListItem is one entry of a folder or tag listing.
type ListItem struct {
	Title       string
	URL         string
	Description string
	Date        time.Time
	Tags        []Link
}

// Page is the data every layout receives.
type Page struct {
	SiteTitle    string
	Title        string
	Heading      string
	Lang         string
	BasePath     string
	Slug         string
	Description  string
	CanonicalURL string
	Preconnect   bool
	GeneratedAt  time.Time
	CSSClasses   []string
	Breadcrumbs  []Link

	Date        time.Time
	ReadingTime int
	Tags        []Link
	TOC         []content.TOCEntry
	Content     template.HTML
	Backlinks   []Link

	Items []ListItem
}

// Redirect is the data of an alias redirect page.
type Redirect struct {
	Lang   string
	Title  string
	Target string
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("Jan 2, 2006")
	},
	"isodate": func(t time.Time) string { return t.Format(time.RFC3339) },
}

// Theme holds the parsed layouts. It is safe for concurrent use.
type Theme struct {
	layouts  map[string]*template.Template
	redirect *template.Template
}

// New parses the embedded layouts.
func New() (*Theme, error) {
	base, err := template.New("base.html").Funcs(funcs).ParseFS(layoutFS, "layouts/base.html")
	if err != nil {
		return nil, fmt.Errorf("parse base layout: %w", err)
	}
	t := &Theme{layouts: map[string]*template.Template{}}
	for _, name := range []string{LayoutContent, LayoutList, LayoutNotFound} {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := clone.ParseFS(layoutFS, "layouts/"+name+".html"); err != nil {
			return nil, fmt.Errorf("parse %s layout: %w", name, err)
		}
		t.layouts[name] = clone
	}
	t.redirect, err = template.New("redirect.html").ParseFS(layoutFS, "layouts/redirect.html")
	if err != nil {
		return nil, fmt.Errorf("parse redirect layout: %w", err)
	}
	return t, nil
}

// Render executes layout with p.
func (t *Theme) Render(w io.Writer, layout string, p *Page) error {
	tpl, ok := t.layouts[layout]
	if !ok {
		return fmt.Errorf("unknown layout %q", layout)
	}
	return tpl.ExecuteTemplate(w, "base", p)
}

// RenderRedirect writes a meta-refresh page.
func (t *Theme) RenderRedirect(w io.Writer, r Redirect) error {
	return t.redirect.Execute(w, r)
}

func asset(name string) []byte {
	b, err := assetFS.ReadFile("assets/" + name)
	if err != nil {
		panic(fmt.Sprintf("embedded theme asset missing: %s", name))
	}
	return b
}

// GoogleFontsURL is the stylesheet URL for the configured typography.
func GoogleFontsURL(t config.Typography) string {
	family := func(name, spec string) string {
		return "family=" + strings.ReplaceAll(strings.TrimSpace(name), " ", "+") + spec
	}
	return "https://fonts.googleapis.com/css2?" + strings.Join([]string{
		family(t.Header, ":wght@400;700"),
		family(t.Body, ":ital,wght@0,400;0,600;1,400;1,600"),
		family(t.Code, ":wght@400;600"),
	}, "&") + "&display=swap"
}

// StyleSheet returns index.css: font import, palette variables for both
// color schemes and the base styles.
func StyleSheet(t config.ThemeConfig) []byte {
	var b bytes.Buffer
	if t.FontOrigin == "googleFonts" {
		fmt.Fprintf(&b, "@import url(%q);\n\n", GoogleFontsURL(t.Typography))
	}
	writeVars := func(selector string, p config.Palette) {
		fmt.Fprintf(&b, "%s {\n", selector)
		for _, kv := range [][2]string{
			{"light", p.Light},
			{"lightgray", p.LightGray},
			{"gray", p.Gray},
			{"darkgray", p.DarkGray},
			{"dark", p.Dark},
			{"secondary", p.Secondary},
			{"tertiary", p.Tertiary},
			{"highlight", p.Highlight},
			{"textHighlight", p.TextHighlight},
		} {
			fmt.Fprintf(&b, "  --%s: %s;\n", kv[0], kv[1])
		}
		if selector == ":root" {
			fmt.Fprintf(&b, "  --headerFont: %q, system-ui, sans-serif;\n", t.Typography.Header)
			fmt.Fprintf(&b, "  --bodyFont: %q, system-ui, sans-serif;\n", t.Typography.Body)
			fmt.Fprintf(&b, "  --codeFont: %q, ui-monospace, monospace;\n", t.Typography.Code)
		}
		b.WriteString("}\n\n")
	}
	writeVars(":root", t.Colors.LightMode)
	writeVars(`:root[saved-theme="dark"]`, t.Colors.DarkMode)
	b.Write(asset("base.css"))
	return b.Bytes()
}

// PreScript runs in <head> before first paint.
func PreScript() []byte { return asset("prescript.js") }

// PostScript runs at the end of <body>. It bundles the components enabled in
// the site configuration and the analytics loader.
func PostScript(site config.SiteConfig) []byte {
	var b bytes.Buffer
	b.Write(asset("darkmode.js"))
	if site.EnablePopovers {
		b.Write(asset("popover.js"))
	}
	if site.EnableSPA {
		b.Write(asset("spa.js"))
	}
	b.WriteString(analyticsScript(site))
	return b.Bytes()
}

func analyticsScript(site config.SiteConfig) string {
	a := site.Analytics
	if a == nil {
		return ""
	}
	switch a.Provider {
	case "plausible":
		host := a.Host
		if host == "" {
			host = "https://plausible.io"
		}
		return fmt.Sprintf(`(function () {
  var s = document.createElement("script");
  s.defer = true;
  s.src = %q;
  s.setAttribute("data-domain", %q);
  document.head.appendChild(s);
})();
`, strings.TrimSuffix(host, "/")+"/js/script.js", site.Host())
	case "google":
		if a.TrackingID == "" {
			return ""
		}
		return fmt.Sprintf(`(function () {
  var s = document.createElement("script");
  s.async = true;
  s.src = "https://www.googletagmanager.com/gtag/js?id=" + %q;
  document.head.appendChild(s);
  window.dataLayer = window.dataLayer || [];
  function gtag() { dataLayer.push(arguments); }
  gtag("js", new Date());
  gtag("config", %q);
})();
`, a.TrackingID, a.TrackingID)
	}
	return ""
}
