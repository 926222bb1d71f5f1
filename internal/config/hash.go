package config

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hash returns a stable sha256 over the canonical YAML encoding. The
// logging section is excluded since it does not affect output.
func (c *Config) Hash() string {
	cp := c.Clone()
	cp.Logging = LoggingConfig{}
	data, err := cp.Marshal()
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Configuration.IgnorePatterns = append([]string(nil), c.Configuration.IgnorePatterns...)
	if c.Configuration.Analytics != nil {
		a := *c.Configuration.Analytics
		cp.Configuration.Analytics = &a
	}
	cp.Plugins = PluginsConfig{
		Transformers: cloneSelections(c.Plugins.Transformers),
		Filters:      cloneSelections(c.Plugins.Filters),
		Emitters:     cloneSelections(c.Plugins.Emitters),
	}
	return &cp
}

// BasePath is the path portion of base_url ("" or "/sub").
func (s SiteConfig) BasePath() string {
	_, path, found := strings.Cut(s.BaseURL, "/")
	if !found || strings.Trim(path, "/") == "" {
		return ""
	}
	return "/" + strings.Trim(path, "/")
}

// Host is the host portion of base_url.
func (s SiteConfig) Host() string {
	host, _, _ := strings.Cut(s.BaseURL, "/")
	return host
}

func cloneSelections(in []PluginSelection) []PluginSelection {
	if in == nil {
		return nil
	}
	out := make([]PluginSelection, len(in))
	for i, s := range in {
		out[i] = PluginSelection{Name: s.Name}
		if s.Options != nil {
			out[i].Options, _ = deepCopy(s.Options).(map[string]any)
		}
	}
	return out
}

func deepCopy(v any) any {
	switch vv := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(vv))
		for k, inner := range vv {
			out[k] = deepCopy(inner)
		}
		return out
	case []any:
		out := make([]any, len(vv))
		for i, inner := range vv {
			out[i] = deepCopy(inner)
		}
		return out
	case []string:
		return append([]string(nil), vv...)
	default:
		return v
	}
}
