package lint

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"git.home.luguber.info/inful/gardenbuild/internal/content"
)

// Linter performs structural checks on a content directory.
type Linter struct {
	cfg *Config
}

// NewLinter creates a new linter with the given configuration.
func NewLinter(cfg *Config) *Linter {
	if cfg == nil {
		cfg = &Config{Format: "text"}
	}
	return &Linter{cfg: cfg}
}

// rules builds the rule set for one run. The link rule needs the discovered
// slugs and assets.
func (l *Linter) rules(sources []content.Source) []Rule {
	var slugs, assets []string
	for _, s := range sources {
		if s.IsMarkdown {
			slugs = append(slugs, content.Slugify(s.RelativePath))
		} else {
			assets = append(assets, s.RelativePath)
		}
	}
	return []Rule{
		&FrontmatterRule{},
		&InternalLinksRule{Resolver: content.NewResolver(l.cfg.LinkStrategy, slugs, assets)},
		&FilenameRule{},
	}
}

// LintPath lints every file below root. When root is a single file, its
// directory is scanned for link targets and only that file is reported.
func (l *Linter) LintPath(ctx context.Context, root string) (*Result, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	dir, only := root, ""
	if !info.IsDir() {
		dir, only = filepath.Dir(root), filepath.Base(root)
	}

	sources, err := content.Discover(ctx, dir, l.cfg.IgnorePatterns)
	if err != nil {
		return nil, err
	}
	rules := l.rules(sources)

	result := &Result{Issues: []Issue{}}
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if only != "" && src.RelativePath != only {
			continue
		}
		result.FilesTotal++
		if err := l.lintFile(rules, src, result); err != nil {
			return result, err
		}
	}
	sort.SliceStable(result.Issues, func(i, j int) bool {
		a, b := result.Issues[i], result.Issues[j]
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		return a.Line < b.Line
	})
	return result, nil
}

// lintFile applies all applicable rules to a single file.
func (l *Linter) lintFile(rules []Rule, src content.Source, result *Result) error {
	for _, rule := range rules {
		if !rule.AppliesTo(src.RelativePath) {
			continue
		}
		issues, err := rule.Check(src)
		if err != nil {
			return fmt.Errorf("%s: %s: %w", rule.Name(), src.RelativePath, err)
		}
		for _, issue := range issues {
			// Skip info and warnings in quiet mode
			if l.cfg.Quiet && issue.Severity != SeverityError {
				continue
			}
			result.Issues = append(result.Issues, issue)
		}
	}
	return nil
}
