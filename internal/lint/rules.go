package lint

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"strings"

	"git.home.luguber.info/inful/gardenbuild/internal/content"
	"git.home.luguber.info/inful/gardenbuild/internal/frontmatter"
	"git.home.luguber.info/inful/gardenbuild/internal/markdown"
)

// lossyChars are dropped or rewritten when a path becomes a slug.
const lossyChars = "#?%&"

// backupSuffixes mark editor and backup leftovers that would be published
// as assets.
var backupSuffixes = []string{".bak", ".tmp", ".old", ".orig", ".swp", "~"}

// FilenameRule validates that file names survive slugification.
type FilenameRule struct{}

// Name returns the rule identifier.
func (r *FilenameRule) Name() string {
	return "filename-conventions"
}

// AppliesTo returns true for every discovered file.
func (r *FilenameRule) AppliesTo(string) bool { return true }

// Check validates filename conventions.
func (r *FilenameRule) Check(src content.Source) ([]Issue, error) {
	var issues []Issue
	for _, segment := range strings.Split(src.RelativePath, "/") {
		if i := strings.IndexAny(segment, lossyChars); i >= 0 {
			issues = append(issues, Issue{
				FilePath: src.RelativePath,
				Severity: SeverityWarning,
				Rule:     r.Name(),
				Message:  fmt.Sprintf("%q contains %q which is lost in the page URL", segment, segment[i]),
				Explanation: fmt.Sprintf("The slug of this file is %q. Links written with the original name may not resolve.",
					content.Slugify(src.RelativePath)),
				Fix: "Rename the file without #, ?, % or &",
			})
			break
		}
	}

	base := path.Base(src.RelativePath)
	for _, suffix := range backupSuffixes {
		if strings.HasSuffix(strings.ToLower(base), suffix) {
			issues = append(issues, Issue{
				FilePath:    src.RelativePath,
				Severity:    SeverityWarning,
				Rule:        r.Name(),
				Message:     "Backup or temporary file in content directory",
				Explanation: "Non-markdown files are copied to the site as assets",
				Fix:         "Remove the file or add it to ignore_patterns",
			})
			break
		}
	}
	return issues, nil
}

// InternalLinksRule checks that every internal link resolves to a note or
// an asset.
type InternalLinksRule struct {
	Resolver *content.Resolver
}

// Name returns the rule identifier.
func (r *InternalLinksRule) Name() string {
	return "internal-links-resolve"
}

// AppliesTo checks if the rule applies to the given file path.
func (r *InternalLinksRule) AppliesTo(relPath string) bool {
	return content.IsMarkdownFile(relPath)
}

// Check resolves every markdown link, image and wikilink of src.
func (r *InternalLinksRule) Check(src content.Source) ([]Issue, error) {
	//nolint:gosec // G304: Reading file by path is expected for a linter
	raw, err := os.ReadFile(src.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	_, body, _, _, _, err := frontmatter.Split(raw)
	if err != nil {
		// Reported by the front matter rule.
		return nil, nil //nolint:nilerr // the file is still linted by other rules
	}
	links, err := markdown.ExtractLinks(body)
	if err != nil {
		return nil, err
	}

	from := content.Slugify(src.RelativePath)
	seen := map[string]bool{}
	var issues []Issue
	for _, l := range links {
		if l.Kind == markdown.LinkKindAuto || !content.IsInternal(l.Destination) || seen[l.Destination] {
			continue
		}
		seen[l.Destination] = true
		if res := r.Resolver.Resolve(from, l.Destination); res.Found {
			continue
		}
		issues = append(issues, Issue{
			FilePath:    src.RelativePath,
			Severity:    SeverityError,
			Rule:        r.Name(),
			Message:     fmt.Sprintf("Broken link: %s", l.Destination),
			Explanation: fmt.Sprintf("No note or asset matches this %s link using %s resolution", l.Kind, r.Resolver.Strategy()),
			Fix:         "Fix the link target or create the missing note",
			Line:        lineOf(raw, l.Destination),
		})
	}
	return issues, nil
}

// lineOf returns the 1-based line of the first occurrence of needle in raw.
func lineOf(raw []byte, needle string) int {
	i := bytes.Index(raw, []byte(needle))
	if i < 0 {
		return 0
	}
	return bytes.Count(raw[:i], []byte("\n")) + 1
}
