// Package normalization maps loosely written configuration strings onto
// their canonical enum values.
package normalization

import (
	"fmt"
	"sort"
	"strings"
)

// Normalizer provides type-safe string-to-enum normalization with aliases.
type Normalizer[T ~string] struct {
	name      string
	values    map[string]T
	validKeys []string // canonical spellings, for error messages
}

// NewNormalizer creates a normalizer accepting every canonical value plus
// the given aliases. Keys are matched case-insensitively after trimming.
func NewNormalizer[T ~string](name string, canonical []T, aliases map[string]T) *Normalizer[T] {
	n := &Normalizer[T]{name: name, values: make(map[string]T, len(canonical)+len(aliases))}
	for _, v := range canonical {
		n.values[clean(string(v))] = v
		n.validKeys = append(n.validKeys, string(v))
	}
	for k, v := range aliases {
		n.values[clean(k)] = v
	}
	sort.Strings(n.validKeys)
	return n
}

// Normalize converts raw to its canonical value. Unknown input is returned
// cleaned together with an error listing the valid options.
func (n *Normalizer[T]) Normalize(raw string) (T, error) {
	cleaned := clean(raw)
	if v, ok := n.values[cleaned]; ok {
		return v, nil
	}
	return T(cleaned), fmt.Errorf("invalid %s %q, valid options: %v", n.name, raw, n.validKeys)
}

// NormalizeWithWarning converts raw and describes the change when the
// result differs from what was written. Unknown and empty input is only
// cleaned so later validation can report it.
func (n *Normalizer[T]) NormalizeWithWarning(field, raw string) (T, string) {
	if raw == "" {
		return "", ""
	}
	v, err := n.Normalize(raw)
	if err != nil || string(v) == raw {
		return v, ""
	}
	return v, fmt.Sprintf("normalized %s from %q to %q", field, raw, string(v))
}

// ValidValues returns the canonical spellings.
func (n *Normalizer[T]) ValidValues() []string {
	return append([]string(nil), n.validKeys...)
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
