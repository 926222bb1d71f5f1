package lint

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"git.home.luguber.info/inful/gardenbuild/internal/content"
	"git.home.luguber.info/inful/gardenbuild/internal/frontmatter"
)

var (
	dateFields = []string{"date", "created", "modified", "lastmod", "updated", "published"}
	boolFields = []string{"draft", "publish"}
)

// FrontmatterRule checks that front matter, when present, is a closed and
// parsable key/value block with well-typed known fields.
type FrontmatterRule struct{}

// Name returns the name of the rule.
func (r *FrontmatterRule) Name() string {
	return "frontmatter-wellformed"
}

// AppliesTo checks if the rule applies to the given file path.
func (r *FrontmatterRule) AppliesTo(relPath string) bool {
	return content.IsMarkdownFile(relPath)
}

// Check validates the front matter block of src.
func (r *FrontmatterRule) Check(src content.Source) ([]Issue, error) {
	//nolint:gosec // G304: Reading file by path is expected for a linter
	raw, err := os.ReadFile(src.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	fm, _, format, had, _, err := frontmatter.Split(raw)
	if err != nil {
		if errors.Is(err, frontmatter.ErrMissingClosingDelimiter) {
			return []Issue{{
				FilePath:    src.RelativePath,
				Severity:    SeverityError,
				Rule:        r.Name(),
				Message:     "Front matter is not closed",
				Explanation: "The file starts with a front matter delimiter but no closing delimiter follows",
				Fix:         "Add the closing --- (or +++) line after the metadata",
				Line:        1,
			}}, nil
		}
		return nil, err
	}
	if !had {
		return nil, nil
	}

	fields, err := frontmatter.Parse(fm, format)
	if err != nil {
		return []Issue{{
			FilePath:    src.RelativePath,
			Severity:    SeverityError,
			Rule:        r.Name(),
			Message:     fmt.Sprintf("Invalid front matter: %v", err),
			Explanation: fmt.Sprintf("Front matter must be a %s key/value map", strings.ToUpper(string(format))),
			Fix:         "Fix the syntax errors in the front matter block",
			Line:        1,
		}}, nil
	}

	var issues []Issue
	warn := func(key, msg, fix string) {
		issues = append(issues, Issue{
			FilePath: src.RelativePath,
			Severity: SeverityWarning,
			Rule:     r.Name(),
			Message:  msg,
			Fix:      fix,
			Line:     keyLine(fm, key),
		})
	}

	if v, ok := fields["title"]; ok {
		if _, isString := v.(string); !isString {
			warn("title", fmt.Sprintf("'title' should be a string, got %s", typeName(v)), "Quote the title")
		}
	}
	for _, key := range []string{"tags", "aliases"} {
		if v, ok := fields[key]; ok && !isStringOrStringList(v) {
			warn(key, fmt.Sprintf("'%s' should be a string or a list of strings, got %s", key, typeName(v)),
				fmt.Sprintf("Write %s as [a, b]", key))
		}
	}
	for _, key := range sortedPresent(fields, dateFields) {
		if _, ok := content.ParseDate(fields[key]); !ok {
			warn(key, fmt.Sprintf("'%s' is not a recognizable date: %v", key, fields[key]),
				"Use YYYY-MM-DD or an RFC 3339 timestamp")
		}
	}
	for _, key := range sortedPresent(fields, boolFields) {
		if _, ok := fields[key].(bool); !ok {
			warn(key, fmt.Sprintf("'%s' should be true or false, got %s", key, typeName(fields[key])),
				fmt.Sprintf("Write %s: true or %s: false", key, key))
		}
	}
	return issues, nil
}

func isStringOrStringList(v any) bool {
	switch vv := v.(type) {
	case string:
		return true
	case []string:
		return true
	case []any:
		for _, item := range vv {
			if _, ok := item.(string); !ok {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int64, uint64, float64:
		return "number"
	case []any, []string:
		return "list"
	case map[string]any:
		return "map"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func sortedPresent(fields map[string]any, keys []string) []string {
	var out []string
	for _, k := range keys {
		if _, ok := fields[k]; ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// keyLine returns the file line of key inside the front matter block. The
// block starts on line 2, after the opening delimiter.
func keyLine(fm []byte, key string) int {
	for i, line := range bytes.Split(fm, []byte("\n")) {
		trimmed := strings.TrimSpace(string(line))
		if strings.HasPrefix(trimmed, key+":") || strings.HasPrefix(trimmed, key+" =") || strings.HasPrefix(trimmed, key+"=") {
			return i + 2
		}
	}
	return 1
}
