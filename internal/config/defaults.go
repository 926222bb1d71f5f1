package config

import (
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/gardenbuild/internal/foundation/normalization"
)

// Default returns the configuration of a fresh site.
func Default() *Config {
	return &Config{
		Configuration: SiteConfig{
			PageTitle:       "Unreal Notes",
			EnableSPA:       true,
			EnablePopovers:  true,
			Analytics:       &AnalyticsConfig{Provider: "plausible"},
			Locale:          "en-US",
			BaseURL:         "notes.example.com",
			IgnorePatterns:  []string{"private", "templates", ".obsidian"},
			DefaultDateType: DateCreated,
			Theme: ThemeConfig{
				FontOrigin: "googleFonts",
				CDNCaching: true,
				Typography: Typography{
					Header: "Schibsted Grotesk",
					Body:   "Source Sans Pro",
					Code:   "IBM Plex Mono",
				},
				Colors: Colors{
					LightMode: Palette{
						Light:         "#faf8f8",
						LightGray:     "#e5e5e5",
						Gray:          "#b8b8b8",
						DarkGray:      "#4e4e4e",
						Dark:          "#2b2b2b",
						Secondary:     "#284b63",
						Tertiary:      "#84a59d",
						Highlight:     "rgba(143, 159, 169, 0.15)",
						TextHighlight: "#fff23688",
					},
					DarkMode: Palette{
						Light:         "#161618",
						LightGray:     "#393639",
						Gray:          "#646464",
						DarkGray:      "#d4d4d4",
						Dark:          "#ebebec",
						Secondary:     "#7b97aa",
						Tertiary:      "#84a59d",
						Highlight:     "rgba(143, 159, 169, 0.15)",
						TextHighlight: "#b3aa0288",
					},
				},
			},
		},
		Plugins: DefaultPlugins(),
		Build: BuildConfig{
			ContentDir:  "content",
			OutputDir:   "public",
			Incremental: true,
		},
		Notify: NotifyConfig{
			Subject: "gardenbuild.site.built",
		},
		Logging: LoggingConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
		},
	}
}

// DefaultPlugins is the standard plugin selection.
func DefaultPlugins() PluginsConfig {
	return PluginsConfig{
		Transformers: []PluginSelection{
			{Name: "frontmatter"},
			{Name: "created-modified-date", Options: map[string]any{
				"priority": []any{"frontmatter", "filesystem"},
			}},
			{Name: "syntax-highlighting", Options: map[string]any{
				"theme": map[string]any{"light": "github", "dark": "github-dark"},
			}},
			{Name: "obsidian-flavored-markdown", Options: map[string]any{
				"enable_in_html_embed": false,
			}},
			{Name: "github-flavored-markdown"},
			{Name: "table-of-contents"},
			{Name: "crawl-links", Options: map[string]any{
				"markdown_link_resolution": "shortest",
			}},
			{Name: "description"},
		},
		Filters: []PluginSelection{
			{Name: "remove-drafts"},
		},
		Emitters: []PluginSelection{
			{Name: "alias-redirects"},
			{Name: "component-resources"},
			{Name: "content-page"},
			{Name: "folder-page"},
			{Name: "tag-page"},
			{Name: "content-index", Options: map[string]any{
				"enable_sitemap": true,
				"enable_rss":     true,
			}},
			{Name: "assets"},
			{Name: "static"},
			{Name: "not-found-page"},
			{Name: "cname"},
		},
	}
}

func applyDefaults(c *Config) {
	if c.Configuration.Locale == "" {
		c.Configuration.Locale = "en-US"
	}
	if c.Configuration.DefaultDateType == "" {
		c.Configuration.DefaultDateType = DateCreated
	}
	if c.Configuration.Theme.FontOrigin == "" {
		c.Configuration.Theme.FontOrigin = "googleFonts"
	}
	if c.Build.ContentDir == "" {
		c.Build.ContentDir = "content"
	}
	if c.Build.OutputDir == "" {
		c.Build.OutputDir = "public"
	}
	if c.Notify.Subject == "" {
		c.Notify.Subject = "gardenbuild.site.built"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = LogLevelInfo
	}
	if c.Logging.Format == "" {
		c.Logging.Format = LogFormatText
	}
}

// normalize canonicalizes values and returns human-readable warnings for
// every change that alters what the user wrote.
func normalize(c *Config) []string {
	var warnings []string

	base := strings.TrimSpace(c.Configuration.BaseURL)
	if i := strings.Index(base, "://"); i >= 0 {
		warnings = append(warnings, "base_url should not include a protocol; stripped "+base[:i+3])
		base = base[i+3:]
	}
	c.Configuration.BaseURL = strings.TrimSuffix(base, "/")

	var w string
	c.Configuration.DefaultDateType, w = dateTypes.NormalizeWithWarning("default_date_type", string(c.Configuration.DefaultDateType))
	warnings = appendWarning(warnings, w)
	c.Logging.Level, w = logLevels.NormalizeWithWarning("logging.level", string(c.Logging.Level))
	warnings = appendWarning(warnings, w)
	c.Logging.Format, w = logFormats.NormalizeWithWarning("logging.format", string(c.Logging.Format))
	warnings = appendWarning(warnings, w)
	if a := c.Configuration.Analytics; a != nil {
		a.Provider = strings.ToLower(strings.TrimSpace(a.Provider))
	}

	if c.Build.Concurrency < 0 {
		warnings = append(warnings, "build.concurrency below zero; using the number of CPUs")
		c.Build.Concurrency = 0
	}
	return warnings
}

var (
	dateTypes = normalization.NewNormalizer("date type",
		[]DateType{DateCreated, DateModified, DatePublished},
		map[string]DateType{"date": DatePublished, "updated": DateModified, "lastmod": DateModified})
	logLevels = normalization.NewNormalizer("log level",
		[]LogLevel{LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError},
		map[string]LogLevel{"warning": LogLevelWarn})
	logFormats = normalization.NewNormalizer("log format", []LogFormat{LogFormatText, LogFormatJSON}, nil)
)

func appendWarning(warnings []string, w string) []string {
	if w == "" {
		return warnings
	}
	return append(warnings, w)
}

// LogLevel mirrors slog levels in configuration.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat selects the slog handler.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// SlogLevel converts the configured level.
func (l LoggingConfig) SlogLevel() slog.Level {
	switch l.Level {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
