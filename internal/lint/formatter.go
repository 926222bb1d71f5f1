package lint

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Formatter formats linting results for output.
type Formatter interface {
	Format(w io.Writer, result *Result, root string) error
}

// NewFormatter returns the formatter for format ("text" or "json").
func NewFormatter(format string, useColor bool) (Formatter, error) {
	switch format {
	case "", "text":
		return NewTextFormatter(useColor), nil
	case "json":
		return NewJSONFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// TextFormatter formats results as human-readable text.
type TextFormatter struct {
	errorStyle   lipgloss.Style
	warningStyle lipgloss.Style
	infoStyle    lipgloss.Style
	pathStyle    lipgloss.Style
	dimStyle     lipgloss.Style
	useColor     bool
}

// NewTextFormatter creates a text formatter. Styles apply only when
// useColor is set, typically when stdout is a terminal.
func NewTextFormatter(useColor bool) *TextFormatter {
	return &TextFormatter{
		errorStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		warningStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("#F5A623")).Bold(true),
		infoStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")),
		pathStyle:    lipgloss.NewStyle().Bold(true),
		dimStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		useColor:     useColor,
	}
}

func (f *TextFormatter) render(style lipgloss.Style, s string) string {
	if !f.useColor {
		return s
	}
	return style.Render(s)
}

// Format outputs results in human-readable text format.
func (f *TextFormatter) Format(w io.Writer, result *Result, root string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Checking content in: %s\n", root)
	b.WriteString(f.render(f.dimStyle, strings.Repeat("━", 60)) + "\n\n")

	for _, issue := range result.Issues {
		f.formatIssue(&b, issue)
		b.WriteString("\n")
	}

	b.WriteString(f.render(f.dimStyle, strings.Repeat("━", 60)) + "\n")
	b.WriteString("Results:\n")
	fmt.Fprintf(&b, "  %d files scanned\n", result.FilesTotal)
	if n := result.ErrorCount(); n > 0 {
		b.WriteString("  " + f.render(f.errorStyle, fmt.Sprintf("%d error%s", n, pluralize(n))) + "\n")
	}
	if n := result.WarningCount(); n > 0 {
		b.WriteString("  " + f.render(f.warningStyle, fmt.Sprintf("%d warning%s", n, pluralize(n))) + "\n")
	}
	b.WriteString("\n")

	switch {
	case result.HasErrors():
		b.WriteString(f.render(f.errorStyle, "✗ Content has errors that break links or metadata.") + "\n")
	case result.HasWarnings():
		b.WriteString(f.render(f.warningStyle, "⚠ Content has warnings. Consider fixing before publishing.") + "\n")
	default:
		b.WriteString("✨ All content passes checks!\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// formatIssue formats a single issue.
func (f *TextFormatter) formatIssue(b *strings.Builder, issue Issue) {
	var icon string
	style := f.infoStyle
	switch issue.Severity {
	case SeverityError:
		icon, style = "✗", f.errorStyle
	case SeverityWarning:
		icon, style = "⚠", f.warningStyle
	case SeverityInfo:
		icon = "ℹ"
	}

	location := issue.FilePath
	if issue.Line > 0 {
		location = fmt.Sprintf("%s:%d", issue.FilePath, issue.Line)
	}
	fmt.Fprintf(b, "%s %s\n", f.render(style, icon), f.render(f.pathStyle, location))
	fmt.Fprintf(b, "  %s: %s %s\n", f.render(style, issue.Severity.String()), issue.Message,
		f.render(f.dimStyle, "["+issue.Rule+"]"))

	if issue.Explanation != "" {
		for line := range strings.SplitSeq(strings.TrimSpace(issue.Explanation), "\n") {
			fmt.Fprintf(b, "  %s\n", line)
		}
	}
	if issue.Fix != "" {
		fmt.Fprintf(b, "  Fix: %s\n", issue.Fix)
	}
}

// JSONFormatter formats results as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// JSONOutput represents the JSON output structure.
type JSONOutput struct {
	Path         string  `json:"path"`
	FilesTotal   int     `json:"files_total"`
	ErrorCount   int     `json:"error_count"`
	WarningCount int     `json:"warning_count"`
	Issues       []Issue `json:"issues"`
}

// Format outputs results as indented JSON.
func (f *JSONFormatter) Format(w io.Writer, result *Result, root string) error {
	out := JSONOutput{
		Path:         root,
		FilesTotal:   result.FilesTotal,
		ErrorCount:   result.ErrorCount(),
		WarningCount: result.WarningCount(),
		Issues:       result.Issues,
	}
	if out.Issues == nil {
		out.Issues = []Issue{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func pluralize(count int) string {
	if count == 1 {
		return ""
	}
	return "s"
}
