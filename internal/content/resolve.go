package content

import (
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"
)

// LinkStrategy selects how markdown link targets map to slugs.
type LinkStrategy string

const (
	// StrategyAbsolute treats targets as paths from the content root.
	StrategyAbsolute LinkStrategy = "absolute"
	// StrategyRelative treats targets as paths from the linking file.
	StrategyRelative LinkStrategy = "relative"
	// StrategyShortest resolves bare names to the unique note with that
	// name anywhere in the vault, falling back to absolute paths.
	StrategyShortest LinkStrategy = "shortest"
)

// ParseLinkStrategy validates a configured strategy name.
func ParseLinkStrategy(s string) (LinkStrategy, error) {
	switch LinkStrategy(s) {
	case StrategyAbsolute, StrategyRelative, StrategyShortest:
		return LinkStrategy(s), nil
	case "":
		return StrategyShortest, nil
	}
	return "", fmt.Errorf("unknown link resolution strategy %q", s)
}

// Resolution is the outcome of resolving one link target.
type Resolution struct {
	Slug     string // Article slug, or asset relative path when IsAsset
	Fragment string // Heading anchor without '#'
	IsAsset  bool
	Found    bool
}

// Resolver maps internal link targets to article slugs and asset paths.
// It is read-only after construction and safe for concurrent use.
type Resolver struct {
	strategy LinkStrategy
	slugs    map[string]struct{}
	assets   map[string]struct{}
	// base name (lowercase) -> slugs with that final segment
	byName map[string][]string
}

// NewResolver indexes the known slugs and asset paths.
func NewResolver(strategy LinkStrategy, slugs []string, assets []string) *Resolver {
	r := &Resolver{
		strategy: strategy,
		slugs:    make(map[string]struct{}, len(slugs)),
		assets:   make(map[string]struct{}, len(assets)),
		byName:   make(map[string][]string),
	}
	for _, s := range slugs {
		r.slugs[s] = struct{}{}
		name := strings.ToLower(path.Base(s))
		r.byName[name] = append(r.byName[name], s)
	}
	for _, names := range r.byName {
		sort.Strings(names)
	}
	for _, a := range assets {
		r.assets[a] = struct{}{}
	}
	return r
}

// Strategy returns the configured strategy.
func (r *Resolver) Strategy() LinkStrategy { return r.strategy }

// Has reports whether slug names a known article.
func (r *Resolver) Has(slug string) bool {
	_, ok := r.slugs[slug]
	return ok
}

// IsInternal reports whether a link destination points inside the site.
// External URLs, mailto and anchor-only links are not internal.
func IsInternal(dest string) bool {
	dest = strings.TrimSpace(dest)
	if dest == "" || strings.HasPrefix(dest, "#") || strings.HasPrefix(dest, "//") {
		return false
	}
	u, err := url.Parse(dest)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == ""
}

// Resolve maps target, as written inside the article fromSlug, to a slug or
// asset. Targets may carry a "#fragment", a ".md" extension and URL escapes.
func (r *Resolver) Resolve(fromSlug, target string) Resolution {
	target, fragment, _ := strings.Cut(strings.TrimSpace(target), "#")
	target, _, _ = strings.Cut(target, "?")
	if unescaped, err := url.PathUnescape(target); err == nil {
		target = unescaped
	}
	res := Resolution{Fragment: fragment}
	if target == "" {
		// Same-page anchor.
		res.Slug = fromSlug
		res.Found = true
		return res
	}

	rooted := strings.HasPrefix(target, "/")
	dir := path.Dir(fromSlug)
	candidates := make([]string, 0, 3)

	switch {
	case rooted:
		candidates = append(candidates, strings.TrimPrefix(path.Clean(target), "/"))
	case r.strategy == StrategyRelative:
		candidates = append(candidates, path.Join(dir, target))
	case r.strategy == StrategyAbsolute:
		candidates = append(candidates, path.Clean(target))
	default:
		if !strings.Contains(strings.TrimPrefix(target, "./"), "/") && !strings.HasPrefix(target, "..") {
			if unique := r.uniqueByName(target); unique != "" {
				candidates = append(candidates, unique)
			}
		}
		candidates = append(candidates, path.Clean(target), path.Join(dir, target))
	}

	for _, c := range candidates {
		if c == "" || strings.HasPrefix(c, "..") {
			continue
		}
		if _, ok := r.assets[c]; ok && !IsMarkdownFile(c) {
			res.Slug, res.IsAsset, res.Found = c, true, true
			return res
		}
		s := Slugify(c)
		for _, variant := range []string{s, s + "/index"} {
			if _, ok := r.slugs[variant]; ok {
				res.Slug, res.Found = variant, true
				return res
			}
		}
	}

	if len(candidates) > 0 {
		res.Slug = Slugify(candidates[0])
	}
	return res
}

func (r *Resolver) uniqueByName(target string) string {
	name := strings.ToLower(Slugify(target))
	if matches := r.byName[name]; len(matches) == 1 {
		return matches[0]
	}
	return ""
}
