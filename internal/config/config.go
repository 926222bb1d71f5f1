// Package config holds the site configuration record: loading, defaults,
// validation, hashing and the example file written by "gardenbuild init".
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	foundationerrors "git.home.luguber.info/inful/gardenbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/gardenbuild/internal/logfields"
)

// DefaultFile is the configuration path used when none is given.
const DefaultFile = "gardenbuild.yaml"

// Config is the whole configuration. It is read-only during a build; the
// builder works on a Clone.
type Config struct {
	Configuration SiteConfig    `yaml:"configuration"`
	Plugins       PluginsConfig `yaml:"plugins"`
	Build         BuildConfig   `yaml:"build"`
	Notify        NotifyConfig  `yaml:"notify"`
	Logging       LoggingConfig `yaml:"logging"`
}

// SiteConfig describes the site itself.
type SiteConfig struct {
	PageTitle       string           `yaml:"page_title"`
	PageTitleSuffix string           `yaml:"page_title_suffix"`
	EnableSPA       bool             `yaml:"enable_spa"`
	EnablePopovers  bool             `yaml:"enable_popovers"`
	Analytics       *AnalyticsConfig `yaml:"analytics,omitempty"`
	Locale          string           `yaml:"locale"`
	BaseURL         string           `yaml:"base_url"`
	IgnorePatterns  []string         `yaml:"ignore_patterns"`
	DefaultDateType DateType         `yaml:"default_date_type"`
	Theme           ThemeConfig      `yaml:"theme"`
}

// DateType selects which article date is shown and used for sorting.
type DateType string

const (
	DateCreated   DateType = "created"
	DateModified  DateType = "modified"
	DatePublished DateType = "published"
)

// AnalyticsConfig selects an analytics snippet for the emitted pages.
type AnalyticsConfig struct {
	Provider   string `yaml:"provider"` // none|plausible|google
	Host       string `yaml:"host,omitempty"`
	TrackingID string `yaml:"tracking_id,omitempty"`
}

// ThemeConfig holds fonts and the two color palettes.
type ThemeConfig struct {
	FontOrigin string     `yaml:"font_origin"` // googleFonts|local
	CDNCaching bool       `yaml:"cdn_caching"`
	Typography Typography `yaml:"typography"`
	Colors     Colors     `yaml:"colors"`
}

type Typography struct {
	Header string `yaml:"header"`
	Body   string `yaml:"body"`
	Code   string `yaml:"code"`
}

type Colors struct {
	LightMode Palette `yaml:"light_mode"`
	DarkMode  Palette `yaml:"dark_mode"`
}

// Palette is one color scheme. Every key is required.
type Palette struct {
	Light         string `yaml:"light"`
	LightGray     string `yaml:"lightgray"`
	Gray          string `yaml:"gray"`
	DarkGray      string `yaml:"darkgray"`
	Dark          string `yaml:"dark"`
	Secondary     string `yaml:"secondary"`
	Tertiary      string `yaml:"tertiary"`
	Highlight     string `yaml:"highlight"`
	TextHighlight string `yaml:"text_highlight"`
}

// PluginSelection names a registered plugin and its options.
type PluginSelection struct {
	Name    string         `yaml:"name"`
	Options map[string]any `yaml:"options,omitempty"`
}

// PluginsConfig lists the selected plugins per stage, in execution order.
type PluginsConfig struct {
	Transformers []PluginSelection `yaml:"transformers"`
	Filters      []PluginSelection `yaml:"filters"`
	Emitters     []PluginSelection `yaml:"emitters"`
}

// BuildConfig controls paths and build behavior.
type BuildConfig struct {
	ContentDir  string `yaml:"content_dir"`
	OutputDir   string `yaml:"output_dir"`
	Concurrency int    `yaml:"concurrency"` // 0 = runtime.NumCPU()
	Incremental bool   `yaml:"incremental"`
	HistoryDB   string `yaml:"history_db"` // empty disables history
}

// NotifyConfig enables NATS build events when NATSURL is set.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// Load reads, expands, defaults and validates a configuration file.
//
// Values from .env/.env.local are loaded first without overriding the
// process environment, then ${VAR} references in the file are expanded.
// Keys the Config type does not know are rejected.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(filepath.Dir(path)); err != nil {
		slog.Debug("No .env file loaded", logfields.Error(err))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, foundationerrors.ConfigError("configuration file not found").
				WithContext("path", path).
				WithHint("run 'gardenbuild init' to create one").
				Build()
		}
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to read configuration").
			WithContext("path", path).Fatal().Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		if classified, ok := foundationerrors.AsClassified(err); ok {
			return nil, classified.WithContext("path", path)
		}
		return nil, err
	}
	return cfg, nil
}

// Parse decodes configuration bytes over Default(), then normalizes and
// validates the result.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	// Decoding over the defaults keeps every key the file leaves out.
	cfg.Plugins = PluginsConfig{}
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "invalid configuration YAML").
			Fatal().Build()
	}
	// A stage left out of the file gets the default selection; an explicit
	// empty list disables the stage.
	defaults := DefaultPlugins()
	if cfg.Plugins.Transformers == nil {
		cfg.Plugins.Transformers = defaults.Transformers
	}
	if cfg.Plugins.Filters == nil {
		cfg.Plugins.Filters = defaults.Filters
	}
	if cfg.Plugins.Emitters == nil {
		cfg.Plugins.Emitters = defaults.Emitters
	}

	for _, w := range normalize(cfg) {
		slog.Warn("Configuration normalized", slog.String("detail", w))
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "configuration validation failed").
			Fatal().Build()
	}
	return cfg, nil
}

// Init writes the default configuration to path. An existing file is only
// replaced when force is set.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return foundationerrors.ConfigError("configuration file already exists").
			WithContext("path", path).
			WithHint("use --force to overwrite").
			Build()
	}

	body, err := Default().Marshal()
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryInternal, "failed to encode default configuration").Build()
	}
	header := "# gardenbuild site configuration\n# Generated by 'gardenbuild init'. Values support ${ENV} expansion.\n"
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to create config directory").Build()
		}
	}
	if err := os.WriteFile(path, append([]byte(header), body...), 0o600); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to write configuration").
			WithContext("path", path).Build()
	}
	return nil
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
