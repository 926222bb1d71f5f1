package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"git.home.luguber.info/inful/gardenbuild/internal/build"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// newTable returns a bordered table with bold headers.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// ListCmd lists articles the way the site sees them.
type ListCmd struct {
	Tag    string `help:"Only articles carrying this tag"`
	Drafts bool   `help:"Include articles the filters drop"`
}

func (l *ListCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	entries, err := build.Catalog(ctx, cfg, nil)
	if err != nil {
		return err
	}
	t := newTable("SLUG", "DATE", "TITLE", "TAGS")
	shown := 0
	for _, e := range entries {
		if !e.Published && !l.Drafts {
			continue
		}
		if l.Tag != "" && !hasTag(e.Doc.Tags, l.Tag) {
			continue
		}
		date := ""
		if d := e.Doc.Dates.Get(string(cfg.Configuration.DefaultDateType)); !d.IsZero() {
			date = d.Format("2006-01-02")
		}
		title := e.Doc.Title
		if !e.Published {
			title += " (unpublished)"
		}
		t.Row(e.Doc.Slug, date, title, strings.Join(e.Doc.Tags, ", "))
		shown++
	}
	if shown == 0 {
		_, _ = fmt.Fprintln(g.Stdout, "No articles found")
		return nil
	}
	_, _ = fmt.Fprintln(g.Stdout, t.Render())
	_, _ = fmt.Fprintf(g.Stdout, "%d article(s)\n", shown)
	return nil
}

func hasTag(tags []string, want string) bool {
	want = strings.TrimPrefix(want, "#")
	for _, t := range tags {
		if strings.EqualFold(t, want) {
			return true
		}
	}
	return false
}
