package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/text/language"
)

func init() {
	// Report field names as they appear in the YAML file.
	validation.ErrorTag = "yaml"
}

// Stage names used in plugin selections.
const (
	StageTransformer = "transformer"
	StageFilter      = "filter"
	StageEmitter     = "emitter"
)

// PluginChecker verifies that a plugin exists for a stage and accepts the
// given options. The plugin registry implements it.
type PluginChecker interface {
	Check(stage, name string, options map[string]any) error
}

// Validate checks the structural invariants of the configuration. Plugin
// names and options are checked separately by ValidatePlugins.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Configuration),
		validation.Field(&c.Plugins),
		validation.Field(&c.Build),
		validation.Field(&c.Logging),
	)
}

// ValidatePlugins checks every selection against checker.
func (c *Config) ValidatePlugins(checker PluginChecker) error {
	var errs []error
	check := func(stage string, sels []PluginSelection) {
		for i, sel := range sels {
			if err := checker.Check(stage, sel.Name, sel.Options); err != nil {
				errs = append(errs, fmt.Errorf("plugins.%ss[%d] (%s): %w", stage, i, sel.Name, err))
			}
		}
	}
	check(StageTransformer, c.Plugins.Transformers)
	check(StageFilter, c.Plugins.Filters)
	check(StageEmitter, c.Plugins.Emitters)
	return errors.Join(errs...)
}

func (s SiteConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.PageTitle, validation.Required),
		validation.Field(&s.Locale, validation.Required, validation.By(validLocale)),
		validation.Field(&s.BaseURL, validation.By(validBaseURL)),
		validation.Field(&s.DefaultDateType, validation.In(DateCreated, DateModified, DatePublished)),
		validation.Field(&s.IgnorePatterns, validation.Each(validation.Required)),
		validation.Field(&s.Analytics),
		validation.Field(&s.Theme),
	)
}

func (a AnalyticsConfig) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Provider, validation.In("none", "plausible", "google")),
		validation.Field(&a.TrackingID, validation.When(a.Provider == "google", validation.Required)),
	)
}

func (t ThemeConfig) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.FontOrigin, validation.In("googleFonts", "local")),
		validation.Field(&t.Typography),
		validation.Field(&t.Colors),
	)
}

func (t Typography) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Header, validation.Required),
		validation.Field(&t.Body, validation.Required),
		validation.Field(&t.Code, validation.Required),
	)
}

func (c Colors) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.LightMode),
		validation.Field(&c.DarkMode),
	)
}

func (p Palette) Validate() error {
	color := []validation.Rule{validation.Required, validation.By(validCSSColor)}
	return validation.ValidateStruct(&p,
		validation.Field(&p.Light, color...),
		validation.Field(&p.LightGray, color...),
		validation.Field(&p.Gray, color...),
		validation.Field(&p.DarkGray, color...),
		validation.Field(&p.Dark, color...),
		validation.Field(&p.Secondary, color...),
		validation.Field(&p.Tertiary, color...),
		validation.Field(&p.Highlight, color...),
		validation.Field(&p.TextHighlight, color...),
	)
}

func (p PluginsConfig) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Transformers, validation.By(uniqueNames)),
		validation.Field(&p.Filters, validation.By(uniqueNames)),
		validation.Field(&p.Emitters, validation.By(uniqueNames)),
	)
}

func (s PluginSelection) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Name, validation.Required),
	)
}

func (b BuildConfig) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.ContentDir, validation.Required),
		validation.Field(&b.OutputDir, validation.Required, validation.By(func(any) error {
			if strings.TrimSpace(b.OutputDir) == "/" {
				return errors.New("must not be the filesystem root")
			}
			return nil
		})),
		validation.Field(&b.Concurrency, validation.Min(0)),
	)
}

func (l LoggingConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError)),
		validation.Field(&l.Format, validation.In(LogFormatText, LogFormatJSON)),
	)
}

func uniqueNames(value any) error {
	sels, _ := value.([]PluginSelection)
	seen := make(map[string]struct{}, len(sels))
	for _, s := range sels {
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("plugin %q selected twice", s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}

func validLocale(value any) error {
	s, _ := value.(string)
	if _, err := language.Parse(s); err != nil {
		return fmt.Errorf("not a BCP 47 language tag: %w", err)
	}
	return nil
}

func validBaseURL(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if strings.Contains(s, "://") {
		return errors.New("must not include a protocol")
	}
	if strings.ContainsAny(s, " \t?#") {
		return errors.New("must be a host with an optional path")
	}
	if strings.HasPrefix(s, "/") {
		return errors.New("must start with a host name")
	}
	return nil
}

var (
	hexColor  = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3,4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
	rgbColor  = regexp.MustCompile(`^rgb\(\s*\d{1,3}%?\s*,\s*\d{1,3}%?\s*,\s*\d{1,3}%?\s*\)$`)
	rgbaColor = regexp.MustCompile(`^rgba\(\s*\d{1,3}%?\s*,\s*\d{1,3}%?\s*,\s*\d{1,3}%?\s*,\s*(?:0|1|0?\.\d+|1\.0+|\d{1,3}%)\s*\)$`)
)

// IsCSSColor reports whether s is a hex, rgb() or rgba() color.
func IsCSSColor(s string) bool {
	s = strings.TrimSpace(s)
	return hexColor.MatchString(s) || rgbColor.MatchString(s) || rgbaColor.MatchString(s)
}

func validCSSColor(value any) error {
	s, _ := value.(string)
	if s == "" || IsCSSColor(s) {
		return nil
	}
	return errors.New("must be a CSS color (#rgb, #rrggbb, #rrggbbaa, rgb() or rgba())")
}
