package content

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// IgnoreMatcher decides whether a content-relative path is excluded.
//
// Patterns without a slash (e.g. "private" or "*.tmp") are matched against
// every path segment, so they apply at any depth. Patterns with a slash are
// matched against the full relative path and each of its parent directories.
type IgnoreMatcher struct {
	segment []glob.Glob
	path    []glob.Glob
}

// NewIgnoreMatcher compiles patterns with gobwas/glob using '/' as separator.
func NewIgnoreMatcher(patterns []string) (*IgnoreMatcher, error) {
	m := &IgnoreMatcher{}
	for _, raw := range patterns {
		p := strings.TrimSpace(raw)
		p = strings.TrimPrefix(p, "./")
		p = strings.TrimSuffix(p, "/")
		if p == "" {
			continue
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", raw, err)
		}
		if strings.Contains(p, "/") {
			m.path = append(m.path, g)
		} else {
			m.segment = append(m.segment, g)
		}
	}
	return m, nil
}

// Match reports whether rel (slash-separated) is ignored.
func (m *IgnoreMatcher) Match(rel string) bool {
	if m == nil {
		return false
	}
	rel = strings.Trim(rel, "/")
	if rel == "" {
		return false
	}
	segments := strings.Split(rel, "/")
	for _, g := range m.segment {
		for _, s := range segments {
			if g.Match(s) {
				return true
			}
		}
	}
	for _, g := range m.path {
		for i := range segments {
			if g.Match(strings.Join(segments[:i+1], "/")) {
				return true
			}
		}
	}
	return false
}
