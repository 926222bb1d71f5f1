package build

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/gardenbuild/internal/config"
	"git.home.luguber.info/inful/gardenbuild/internal/content"
	"git.home.luguber.info/inful/gardenbuild/internal/eventstore"
	dberrors "git.home.luguber.info/inful/gardenbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/gardenbuild/internal/metrics"
	"git.home.luguber.info/inful/gardenbuild/internal/notify"
)

type fixture struct {
	root    string
	content string
	output  string
	cfg     *config.Config
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{
		root:    root,
		content: filepath.Join(root, "content"),
		output:  filepath.Join(root, "public"),
		cfg:     config.Default(),
	}
	f.cfg.Build.ContentDir = f.content
	f.cfg.Build.OutputDir = f.output
	f.cfg.Build.Concurrency = 2

	writeFile(t, filepath.Join(f.content, "a.md"), "---\ntitle: Alpha\ntags: [go]\n---\nSee [[b]] for more.\n")
	writeFile(t, filepath.Join(f.content, "notes", "b.md"), "---\ntitle: Beta\n---\n# Heading\n\nBody of b.\n")
	writeFile(t, filepath.Join(f.content, "draft.md"), "---\ntitle: Draft\ndraft: true\n---\nNot yet.\n")
	writeFile(t, filepath.Join(f.content, "img", "x.png"), "png")
	return f
}

func (f *fixture) exists(rel string) bool {
	_, err := os.Stat(filepath.Join(f.output, filepath.FromSlash(rel)))
	return err == nil
}

type countingRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	outcomes map[string]int
	stages   map[string]map[metrics.ResultLabel]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{outcomes: map[string]int{}, stages: map[string]map[metrics.ResultLabel]int{}}
}

func (c *countingRecorder) IncBuildOutcome(o string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes[o]++
}

func (c *countingRecorder) IncStageResult(stage string, r metrics.ResultLabel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stages[stage] == nil {
		c.stages[stage] = map[metrics.ResultLabel]int{}
	}
	c.stages[stage][r]++
}

type capturePublisher struct {
	events []notify.BuildEvent
}

func (c *capturePublisher) Publish(_ context.Context, ev notify.BuildEvent) error {
	c.events = append(c.events, ev)
	return nil
}

func (c *capturePublisher) Close() {}

func TestBuilder_RunWritesSite(t *testing.T) {
	f := newFixture(t)
	rec := newCountingRecorder()
	pub := &capturePublisher{}
	store, err := eventstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	hashBefore := f.cfg.Hash()
	b := NewBuilder(f.cfg, WithRecorder(rec), WithNotifier(pub), WithHistory(store))
	report, err := b.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeSuccess, report.Outcome, report.Warnings)
	assert.NotEmpty(t, report.BuildID)
	assert.Equal(t, 3, report.Discovered)
	assert.Equal(t, 1, report.Assets)
	assert.Equal(t, 3, report.Parsed)
	assert.Equal(t, 2, report.Published)
	assert.Equal(t, 1, report.Filtered)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, report.Parsed-report.Filtered, report.Published)

	for _, rel := range []string{"a.html", "notes/b.html", "index.html", "notes/index.html",
		"tags/go.html", "sitemap.xml", "index.xml", "img/x.png", "index.css", "404.html", ManifestFile} {
		assert.True(t, f.exists(rel), rel)
	}
	assert.False(t, f.exists("draft.html"))

	names := make([]string, 0, len(report.Stages))
	for _, s := range report.Stages {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{StageDiscover, StageParse, StageFilter, StageEmit, StageManifest}, names)

	assert.Equal(t, hashBefore, f.cfg.Hash(), "config must not change during a build")
	assert.Equal(t, 1, rec.outcomes["success"])
	assert.Equal(t, 1, rec.stages[StageParse][metrics.ResultSuccess])

	require.Len(t, pub.events, 1)
	assert.Equal(t, report.BuildID, pub.events[0].BuildID)
	assert.Equal(t, report.Emitted, pub.events[0].Emitted)

	hist, err := store.List(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "success", hist[0].Outcome)
	assert.Equal(t, 2, hist[0].Published)

	page, err := os.ReadFile(filepath.Join(f.output, "a.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "Alpha")
	assert.Contains(t, string(page), `href="/notes/b"`)
}

func TestBuilder_Incremental(t *testing.T) {
	f := newFixture(t)
	b := NewBuilder(f.cfg)

	first, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, first.Skipped)

	second, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, second.Skipped)
	assert.NotEqual(t, first.BuildID, second.BuildID)

	writeFile(t, filepath.Join(f.content, "notes", "b.md"), "---\ntitle: Beta\n---\n# Heading\n\nChanged body.\n")
	third, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, third.Skipped)

	m, err := LoadManifest(f.output)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, third.BuildID, m.BuildID)
	assert.Equal(t, f.cfg.Hash(), m.ConfigHash)
	assert.Contains(t, m.Pages, "notes/b")
	assert.Contains(t, m.Outputs, "notes/b.html")
}

func TestBuilder_ConfigChangeInvalidatesPages(t *testing.T) {
	f := newFixture(t)
	_, err := NewBuilder(f.cfg).Run(context.Background())
	require.NoError(t, err)

	changed := f.cfg.Clone()
	changed.Configuration.PageTitle = "Another title"
	report, err := NewBuilder(changed).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Skipped)
}

func TestBuilder_RemovesStaleOutputAndWarns(t *testing.T) {
	f := newFixture(t)
	b := NewBuilder(f.cfg)
	_, err := b.Run(context.Background())
	require.NoError(t, err)
	require.True(t, f.exists("notes/b.html"))

	require.NoError(t, os.Remove(filepath.Join(f.content, "notes", "b.md")))
	report, err := b.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, f.exists("notes/b.html"))
	assert.Positive(t, report.Removed)
	assert.Equal(t, OutcomeWarning, report.Outcome)
	require.NotEmpty(t, report.Warnings)
	assert.Contains(t, report.Warnings[0], `unresolved link "b"`)
}

func TestBuilder_WarnsOnDuplicateSlugs(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.content, "x y.md"), "---\ntitle: One\n---\nOne.\n")
	writeFile(t, filepath.Join(f.content, "x-y.md"), "---\ntitle: Two\n---\nTwo.\n")

	report, err := NewBuilder(f.cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeWarning, report.Outcome)
	require.NotEmpty(t, report.Warnings)
	assert.Equal(t, `Duplicate slug "x-y": x y.md, x-y.md`, report.Warnings[0])
}

func TestBuilder_NonIncrementalCleansOutput(t *testing.T) {
	f := newFixture(t)
	f.cfg.Build.Incremental = false
	writeFile(t, filepath.Join(f.output, "stray", "old.html"), "old")

	_, err := NewBuilder(f.cfg).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, f.exists("stray/old.html"))
	assert.True(t, f.exists("a.html"))
	_, err = os.Stat(f.output)
	require.NoError(t, err)
}

func TestBuilder_ParseFailureFailsBuild(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.content, "broken.md"), "---\ntitle: never closed\n")
	rec := newCountingRecorder()

	report, err := NewBuilder(f.cfg, WithRecorder(rec)).Run(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, ErrParse)
	assert.Equal(t, OutcomeFailed, report.Outcome)
	assert.Equal(t, dberrors.CategoryContent, dberrors.GetCategory(err))
	assert.Contains(t, err.Error(), "broken.md")
	assert.Equal(t, 1, rec.outcomes["failed"])
	assert.Equal(t, 1, rec.stages[StageParse][metrics.ResultFatal])
	assert.False(t, f.exists("a.html"), "nothing is emitted after a parse failure")
}

func TestBuilder_Canceled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewBuilder(f.cfg).Run(ctx)
	require.ErrorIs(t, err, ErrCanceled)
	assert.Equal(t, OutcomeCanceled, report.Outcome)
	assert.Equal(t, dberrors.CategoryCanceled, dberrors.GetCategory(err))
}

func TestBuilder_MissingContentDir(t *testing.T) {
	f := newFixture(t)
	f.cfg.Build.ContentDir = filepath.Join(f.root, "nope")

	report, err := NewBuilder(f.cfg).Run(context.Background())
	require.ErrorIs(t, err, ErrDiscovery)
	require.ErrorIs(t, err, content.ErrContentDirNotFound)
	assert.Equal(t, OutcomeFailed, report.Outcome)
}

func TestBuilder_RejectsOutputOverContent(t *testing.T) {
	f := newFixture(t)
	report, err := NewBuilder(f.cfg, WithOutputDir(f.root)).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, dberrors.CategoryConfig, dberrors.GetCategory(err))
	assert.Equal(t, OutcomeFailed, report.Outcome)
	_, statErr := os.Stat(filepath.Join(f.content, "a.md"))
	require.NoError(t, statErr)
}

func TestBuilder_RejectsOutputInsideContent(t *testing.T) {
	f := newFixture(t)
	out := filepath.Join(f.content, "out")
	report, err := NewBuilder(f.cfg, WithOutputDir(out)).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, dberrors.CategoryConfig, dberrors.GetCategory(err))
	assert.Equal(t, OutcomeFailed, report.Outcome)
	assert.NoDirExists(t, out)
}

func TestCheckDirs(t *testing.T) {
	root := t.TempDir()
	content := filepath.Join(root, "content")
	cases := []struct {
		out string
		ok  bool
	}{
		{filepath.Join(root, "public"), true},
		{filepath.Join(root, "content-public"), true},
		{content, false},
		{root, false},
		{filepath.Join(content, "out"), false},
		{filepath.Join(content, "a", "b"), false},
		{" ", false},
	}
	for _, tc := range cases {
		err := checkDirs(content, tc.out)
		if tc.ok {
			assert.NoError(t, err, tc.out)
		} else {
			assert.Error(t, err, tc.out)
		}
	}
}

func TestCheckDirs_UnresolvableWorkingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "gone")
	require.NoError(t, os.Mkdir(dir, 0o755))
	t.Chdir(dir)
	require.NoError(t, os.Remove(dir))
	if _, err := os.Getwd(); err == nil {
		t.Skip("working directory still resolves after removal on this platform")
	}

	err := checkDirs("content", "public")
	require.Error(t, err)
	assert.Equal(t, dberrors.CategoryFileSystem, dberrors.GetCategory(err))
}

func TestBuilder_UnknownPlugin(t *testing.T) {
	f := newFixture(t)
	f.cfg.Plugins.Filters = append(f.cfg.Plugins.Filters, config.PluginSelection{Name: "does-not-exist"})
	_, err := NewBuilder(f.cfg).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, dberrors.CategoryPlugin, dberrors.GetCategory(err))
}

func TestBuilder_ClockSetsTimes(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	report, err := NewBuilder(f.cfg, WithClock(func() time.Time { return now })).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, now, report.StartedAt)
	assert.Equal(t, time.Duration(0), report.Duration)
}
