package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundationerrors "git.home.luguber.info/inful/gardenbuild/internal/foundation/errors"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "frontmatter", cfg.Plugins.Transformers[0].Name)
	assert.Equal(t, "remove-drafts", cfg.Plugins.Filters[0].Name)
	assert.Len(t, cfg.Plugins.Emitters, 10)
	assert.True(t, cfg.Build.Incremental)
}

func TestParse_MinimalUsesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("configuration:\n  page_title: My Garden\n"))
	require.NoError(t, err)
	assert.Equal(t, "My Garden", cfg.Configuration.PageTitle)
	assert.Equal(t, "en-US", cfg.Configuration.Locale)
	assert.Equal(t, "content", cfg.Build.ContentDir)
	assert.Equal(t, DefaultPlugins(), cfg.Plugins)
	assert.Equal(t, "#284b63", cfg.Configuration.Theme.Colors.LightMode.Secondary)
}

func TestParse_EmptyDocument(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default().Configuration.PageTitle, cfg.Configuration.PageTitle)
}

func TestParse_PluginOrderPreservedAndStagesIndependent(t *testing.T) {
	cfg, err := Parse([]byte(`
plugins:
  transformers:
    - name: description
    - name: frontmatter
  filters: []
`))
	require.NoError(t, err)
	require.Len(t, cfg.Plugins.Transformers, 2)
	assert.Equal(t, "description", cfg.Plugins.Transformers[0].Name)
	assert.Equal(t, "frontmatter", cfg.Plugins.Transformers[1].Name)
	assert.Empty(t, cfg.Plugins.Filters)
	assert.NotNil(t, cfg.Plugins.Filters)
	assert.Equal(t, DefaultPlugins().Emitters, cfg.Plugins.Emitters)
}

func TestParse_UnknownKeyRejected(t *testing.T) {
	_, err := Parse([]byte("configuration:\n  page_titel: typo\n"))
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryConfig))
}

func TestParse_StripsBaseURLScheme(t *testing.T) {
	cfg, err := Parse([]byte("configuration:\n  base_url: https://example.com/blog/\n"))
	require.NoError(t, err)
	assert.Equal(t, "example.com/blog", cfg.Configuration.BaseURL)
	assert.Equal(t, "/blog", cfg.Configuration.BasePath())
	assert.Equal(t, "example.com", cfg.Configuration.Host())
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("GARDEN_TITLE", "From Env")
	cfg, err := Parse([]byte("configuration:\n  page_title: ${GARDEN_TITLE}\n"))
	require.NoError(t, err)
	assert.Equal(t, "From Env", cfg.Configuration.PageTitle)
}

func TestParse_NormalizesEnumAliases(t *testing.T) {
	cfg, err := Parse([]byte("configuration:\n  default_date_type: Updated\nlogging:\n  level: WARNING\n  format: JSON\n"))
	require.NoError(t, err)
	assert.Equal(t, DateModified, cfg.Configuration.DefaultDateType)
	assert.Equal(t, LogLevelWarn, cfg.Logging.Level)
	assert.Equal(t, LogFormatJSON, cfg.Logging.Format)
}

func TestValidate_Failures(t *testing.T) {
	cases := map[string]string{
		"missing title": "configuration:\n  page_title: \"\"\n",
		"bad locale":    "configuration:\n  locale: \"not a locale!\"\n",
		"bad color":     "configuration:\n  theme:\n    colors:\n      light_mode:\n        light: blue\n",
		"bad date type": "configuration:\n  default_date_type: birthday\n",
		"bad font":      "configuration:\n  theme:\n    font_origin: cdn\n",
		"dup plugin":    "plugins:\n  filters:\n    - name: remove-drafts\n    - name: remove-drafts\n",
		"empty name":    "plugins:\n  emitters:\n    - name: \"\"\n",
		"bad log level": "logging:\n  level: loud\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.Error(t, err)
		})
	}
}

func TestIsCSSColor(t *testing.T) {
	for _, ok := range []string{"#fff", "#ffff", "#faf8f8", "#fff23688", "rgb(1, 2, 3)", "rgba(143, 159, 169, 0.15)", "rgba(0,0,0,1)"} {
		assert.True(t, IsCSSColor(ok), ok)
	}
	for _, bad := range []string{"blue", "#ff", "#gggggg", "rgb(1,2)", ""} {
		assert.False(t, IsCSSColor(bad), bad)
	}
}

func TestHashStableAndSensitive(t *testing.T) {
	a := Default()
	b := Default()
	assert.Equal(t, a.Hash(), b.Hash())

	b.Logging.Level = LogLevelDebug
	assert.Equal(t, a.Hash(), b.Hash(), "logging does not affect output")

	b.Configuration.PageTitle = "Other"
	assert.NotEqual(t, a.Hash(), b.Hash())

	c := Default()
	c.Plugins.Transformers[5].Options = map[string]any{"max_depth": 2}
	assert.NotEqual(t, a.Hash(), c.Hash())
}

func TestCloneIsDeep(t *testing.T) {
	a := Default()
	before := a.Hash()
	b := a.Clone()
	b.Configuration.IgnorePatterns[0] = "changed"
	b.Plugins.Transformers[1].Options["priority"] = []any{"git"}
	b.Configuration.Analytics.Provider = "google"
	assert.Equal(t, before, a.Hash())
}

type fakeChecker struct{ known map[string]string }

func (f fakeChecker) Check(stage, name string, _ map[string]any) error {
	if f.known[name] != stage {
		return errors.New("unknown")
	}
	return nil
}

func TestValidatePlugins(t *testing.T) {
	cfg := Default()
	known := map[string]string{}
	for _, s := range cfg.Plugins.Transformers {
		known[s.Name] = StageTransformer
	}
	for _, s := range cfg.Plugins.Filters {
		known[s.Name] = StageFilter
	}
	for _, s := range cfg.Plugins.Emitters {
		known[s.Name] = StageEmitter
	}
	require.NoError(t, cfg.ValidatePlugins(fakeChecker{known}))

	cfg.Plugins.Filters = append(cfg.Plugins.Filters, PluginSelection{Name: "nope"})
	err := cfg.ValidatePlugins(fakeChecker{known})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plugins.filters[1] (nope)")
}

func TestInitAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site", DefaultFile)

	require.NoError(t, Init(path, false))
	err := Init(path, false)
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryConfig))
	require.NoError(t, Init(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Hash(), cfg.Hash())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	classified, ok := foundationerrors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, foundationerrors.CategoryConfig, classified.Category())
	assert.NotEmpty(t, classified.Hint())
}

func TestLoad_EnvFileNextToConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GARDEN_ENV_TITLE=Dotenv Title\n"), 0o600))
	path := filepath.Join(dir, DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte("configuration:\n  page_title: ${GARDEN_ENV_TITLE}\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("GARDEN_ENV_TITLE") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Dotenv Title", cfg.Configuration.PageTitle)
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", LoggingConfig{Level: LogLevelDebug}.SlogLevel().String())
	assert.Equal(t, "INFO", LoggingConfig{}.SlogLevel().String())
}
