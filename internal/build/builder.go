package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/gardenbuild/internal/config"
	"git.home.luguber.info/inful/gardenbuild/internal/content"
	"git.home.luguber.info/inful/gardenbuild/internal/eventstore"
	dberrors "git.home.luguber.info/inful/gardenbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/gardenbuild/internal/logfields"
	"git.home.luguber.info/inful/gardenbuild/internal/metrics"
	"git.home.luguber.info/inful/gardenbuild/internal/notify"
	"git.home.luguber.info/inful/gardenbuild/internal/observability"
	"git.home.luguber.info/inful/gardenbuild/internal/plugin"
	"git.home.luguber.info/inful/gardenbuild/internal/plugin/builtin"
	"git.home.luguber.info/inful/gardenbuild/internal/plugin/filters"
	"git.home.luguber.info/inful/gardenbuild/internal/plugin/transformers"
)

// Builder runs builds for one configuration. A Builder may be reused; Run
// calls are serialized.
type Builder struct {
	cfg       *config.Config
	registry  *plugin.Registry
	recorder  metrics.Recorder
	history   eventstore.Store
	notifier  notify.Publisher
	outputDir string
	clock     func() time.Time

	mu sync.Mutex
}

// Option configures a Builder.
type Option func(*Builder)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(b *Builder) {
		if r != nil {
			b.recorder = r
		}
	}
}

// WithRegistry replaces the built-in plugin registry.
func WithRegistry(r *plugin.Registry) Option {
	return func(b *Builder) {
		if r != nil {
			b.registry = r
		}
	}
}

// WithHistory records every finished build in s.
func WithHistory(s eventstore.Store) Option {
	return func(b *Builder) { b.history = s }
}

// WithNotifier publishes a build event after every build.
func WithNotifier(p notify.Publisher) Option {
	return func(b *Builder) { b.notifier = p }
}

// WithOutputDir overrides build.output_dir.
func WithOutputDir(dir string) Option {
	return func(b *Builder) {
		if dir != "" {
			b.outputDir = dir
		}
	}
}

// WithClock sets the time source used for GeneratedAt and report times.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.clock = now
		}
	}
}

// NewBuilder creates a Builder for cfg. The configuration is treated as
// read-only.
func NewBuilder(cfg *config.Config, opts ...Option) *Builder {
	b := &Builder{
		cfg:      cfg,
		recorder: metrics.NoopRecorder{},
		clock:    time.Now,
	}
	if cfg != nil {
		b.outputDir = cfg.Build.OutputDir
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.registry == nil {
		b.registry = builtin.NewRegistry()
	}
	return b
}

// OutputDir is the directory the builder writes to.
func (b *Builder) OutputDir() string { return b.outputDir }

// run carries the state of one build.
type run struct {
	b          *Builder
	report     *Report
	configHash string
	pipeline   *plugin.Pipeline
	sources    []content.Source
	site       *plugin.Site
	docs       []*content.Document
	outputs    []string
	prev       *Manifest
}

// Run executes the pipeline once. The returned report is never nil; the
// error is non-nil for failed and canceled builds.
func (b *Builder) Run(ctx context.Context) (*Report, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := b.clock()
	r := &run{
		b: b,
		report: &Report{
			BuildID:   uuid.NewString(),
			StartedAt: start,
			OutputDir: b.outputDir,
		},
	}
	ctx = observability.WithBuildID(ctx, r.report.BuildID)

	err := r.execute(ctx)
	return r.finish(ctx, err)
}

func (r *run) execute(ctx context.Context) error {
	b := r.b
	if b.cfg == nil {
		return dberrors.ConfigError("config required").Build()
	}
	r.configHash = b.cfg.Hash()
	if err := checkDirs(b.cfg.Build.ContentDir, b.outputDir); err != nil {
		return err
	}

	pipeline, err := b.registry.Build(b.cfg.Plugins)
	if err != nil {
		return dberrors.WrapError(err, dberrors.CategoryPlugin, "plugin configuration invalid").Build()
	}
	r.pipeline = pipeline
	observability.InfoContext(ctx, "Starting build",
		slog.String("content", b.cfg.Build.ContentDir),
		slog.String("output", b.outputDir),
		slog.Bool("incremental", b.cfg.Build.Incremental))

	stages := []struct {
		name string
		fn   func(context.Context) error
	}{
		{StageDiscover, r.discover},
		{StageParse, r.parse},
		{StageFilter, r.filter},
		{StageEmit, r.emit},
		{StageManifest, r.manifest},
	}
	for _, st := range stages {
		if err := r.stage(ctx, st.name, st.fn); err != nil {
			return err
		}
	}

	if after := b.cfg.Hash(); after != r.configHash {
		return dberrors.WrapError(ErrConfigMutated, dberrors.CategoryInternal, "configuration mutated").Build()
	}
	return nil
}

// stage times fn and records its result.
func (r *run) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		r.b.recorder.IncStageResult(name, metrics.ResultCanceled)
		return err
	}
	ctx = observability.WithStage(ctx, name)
	started := time.Now()
	err := fn(ctx)
	elapsed := time.Since(started)

	r.report.Stages = append(r.report.Stages, StageTiming{Name: name, Duration: elapsed})
	r.b.recorder.ObserveStageDuration(name, elapsed)
	switch {
	case err == nil:
		r.b.recorder.IncStageResult(name, metrics.ResultSuccess)
		observability.DebugContext(ctx, "Stage complete", logfields.DurationMS(float64(elapsed.Microseconds())/1000))
	case isCanceled(ctx, err):
		r.b.recorder.IncStageResult(name, metrics.ResultCanceled)
	default:
		r.b.recorder.IncStageResult(name, metrics.ResultFatal)
	}
	return err
}

func (r *run) discover(ctx context.Context) error {
	cfg := r.b.cfg
	sources, err := content.Discover(ctx, cfg.Build.ContentDir, cfg.Configuration.IgnorePatterns)
	if err != nil {
		if isCanceled(ctx, err) {
			return err
		}
		builder := dberrors.WrapError(fmt.Errorf("%w: %w", ErrDiscovery, err), dberrors.CategoryFileSystem, "content discovery failed").
			WithContext(logfields.KeyPath, cfg.Build.ContentDir)
		if errors.Is(err, content.ErrContentDirNotFound) {
			builder = builder.WithHint("set build.content_dir or create the directory")
		}
		return builder.Build()
	}
	r.sources = sources
	r.report.Discovered = len(content.Markdown(sources))
	r.report.Assets = len(sources) - r.report.Discovered
	r.site = plugin.NewSite(*cfg.Clone(), cfg.Build.ContentDir, r.report.StartedAt, sources)
	dups := content.DuplicateSlugs(sources)
	slugs := make([]string, 0, len(dups))
	for s := range dups {
		slugs = append(slugs, s)
	}
	sort.Strings(slugs)
	for _, s := range slugs {
		r.warn(ctx, fmt.Sprintf("Duplicate slug %q: %s", s, strings.Join(dups[s], ", ")))
	}
	r.b.recorder.SetDocuments("discovered", r.report.Discovered)
	observability.InfoContext(ctx, "Discovered content",
		slog.Int("markdown", r.report.Discovered), slog.Int("assets", r.report.Assets))
	return nil
}

// parse loads every markdown source and runs the transformers, then render,
// on a bounded worker pool. The first failure cancels the rest.
func (r *run) parse(ctx context.Context) error {
	markdownSources := content.Markdown(r.sources)
	chain := append(append([]plugin.Transformer(nil), r.pipeline.Transformers...),
		transformers.NewRender(r.pipeline.Transformers))

	limit := r.b.cfg.Build.Concurrency
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	docs := make([]*content.Document, len(markdownSources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, src := range markdownSources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := content.Load(src)
			if err != nil {
				return dberrors.WrapError(fmt.Errorf("%w: %w", ErrParse, err), dberrors.CategoryContent, "cannot read article").
					WithContext(logfields.KeyFile, src.RelativePath).Build()
			}
			for _, t := range chain {
				if err := t.Transform(gctx, doc, r.site); err != nil {
					if isCanceled(gctx, err) {
						return err
					}
					r.b.recorder.IncPluginError(t.Metadata().Name)
					return dberrors.WrapError(fmt.Errorf("%w: %w", ErrParse, plugin.Wrap(t, err)), dberrors.CategoryPlugin, "transformer failed").
						WithContext(logfields.KeyFile, src.RelativePath).
						WithContext(logfields.KeyPlugin, t.Metadata().Name).Build()
				}
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	r.docs = docs
	r.report.Parsed = len(docs)
	for _, d := range docs {
		for _, link := range d.UnresolvedLinks {
			r.warn(ctx, fmt.Sprintf("%s: unresolved link %q", d.RelativePath, link))
		}
	}
	return nil
}

func (r *run) filter(ctx context.Context) error {
	published := make([]*content.Document, 0, len(r.docs))
	for _, d := range r.docs {
		if filters.KeepAll(r.pipeline.Filters, d) {
			published = append(published, d)
		} else {
			observability.DebugContext(ctx, "Filtered document", logfields.Slug(d.Slug))
		}
	}
	r.site.Publish(published)
	r.report.Published = len(published)
	r.report.Filtered = len(r.docs) - len(published)
	r.b.recorder.SetDocuments("published", r.report.Published)
	r.b.recorder.SetDocuments("filtered", r.report.Filtered)
	return nil
}

func (r *run) emit(ctx context.Context) error {
	b := r.b
	if err := os.MkdirAll(b.outputDir, 0o755); err != nil {
		return dberrors.WrapError(err, dberrors.CategoryFileSystem, "cannot create output directory").
			WithContext(logfields.KeyPath, b.outputDir).Build()
	}
	out := plugin.NewDirOutput(b.outputDir)

	if b.cfg.Build.Incremental {
		prev, err := LoadManifest(b.outputDir)
		if err != nil {
			observability.WarnContext(ctx, "Ignoring unreadable manifest", logfields.Error(err))
		}
		r.prev = prev
		r.report.Skipped = planUnchanged(r.site, prev, r.configHash, out)
	} else if err := cleanOutput(b.outputDir); err != nil {
		return dberrors.WrapError(err, dberrors.CategoryFileSystem, "cannot clean output directory").
			WithContext(logfields.KeyPath, b.outputDir).Build()
	}
	b.recorder.SetDocuments("skipped", r.report.Skipped)

	for _, e := range r.pipeline.Emitters {
		name := e.Metadata().Name
		files, err := e.Emit(ctx, r.site, out)
		r.outputs = append(r.outputs, files...)
		b.recorder.AddFilesEmitted(name, len(files))
		if err != nil {
			if isCanceled(ctx, err) {
				return err
			}
			b.recorder.IncPluginError(name)
			return dberrors.WrapError(fmt.Errorf("%w: %w", ErrEmit, plugin.Wrap(e, err)), dberrors.CategoryPlugin, "emitter failed").
				WithContext(logfields.KeyPlugin, name).Build()
		}
		observability.DebugContext(ctx, "Emitter complete", logfields.Plugin(name), logfields.Count(len(files)))
	}
	r.report.Emitted = len(r.outputs)
	return nil
}

func (r *run) manifest(ctx context.Context) error {
	b := r.b
	removed, err := removeStale(b.outputDir, r.prev, r.outputs)
	r.report.Removed = removed
	if err != nil {
		observability.WarnContext(ctx, "Stale output not removed", logfields.Error(err))
	}
	m := newManifest(r.report.BuildID, r.report.StartedAt, r.configHash, r.site, r.outputs)
	if err := m.Save(b.outputDir); err != nil {
		return dberrors.WrapError(err, dberrors.CategoryFileSystem, "cannot write manifest").Build()
	}
	return nil
}

func (r *run) warn(ctx context.Context, msg string) {
	r.report.Warnings = append(r.report.Warnings, msg)
	observability.WarnContext(ctx, msg)
}

// finish settles the outcome and records it on metrics, history and notify.
func (r *run) finish(ctx context.Context, err error) (*Report, error) {
	b := r.b
	rep := r.report
	rep.FinishedAt = b.clock()
	rep.Duration = rep.FinishedAt.Sub(rep.StartedAt)

	switch {
	case err == nil && len(rep.Warnings) > 0:
		rep.Outcome = OutcomeWarning
	case err == nil:
		rep.Outcome = OutcomeSuccess
	case isCanceled(ctx, err):
		rep.Outcome = OutcomeCanceled
		err = dberrors.WrapError(fmt.Errorf("%w: %w", ErrCanceled, err), dberrors.CategoryCanceled, "build canceled").Build()
	default:
		rep.Outcome = OutcomeFailed
	}
	if err != nil {
		rep.Error = err.Error()
	}

	b.recorder.IncBuildOutcome(string(rep.Outcome))
	b.recorder.ObserveBuildDuration(rep.Duration)

	attrs := []slog.Attr{
		logfields.Outcome(string(rep.Outcome)),
		logfields.DurationMS(float64(rep.Duration.Microseconds()) / 1000),
		slog.Int("published", rep.Published),
		slog.Int("emitted", rep.Emitted),
		slog.Int("skipped", rep.Skipped),
	}
	if err != nil {
		observability.ErrorContext(ctx, "Build failed", append(attrs, logfields.Error(err))...)
	} else {
		observability.InfoContext(ctx, "Build complete", attrs...)
	}

	// Recording must survive a canceled build context.
	detached := context.WithoutCancel(ctx)
	if b.history != nil {
		recErr := b.history.Record(detached, eventstore.BuildRecord{
			ID:         rep.BuildID,
			StartedAt:  rep.StartedAt,
			FinishedAt: rep.FinishedAt,
			Outcome:    string(rep.Outcome),
			Published:  rep.Published,
			Emitted:    rep.Emitted,
			Duration:   rep.Duration,
			Report:     rep.JSON(),
		})
		if recErr != nil {
			observability.WarnContext(ctx, "Build history not recorded", logfields.Error(recErr))
		}
	}
	notify.PublishBestEffort(detached, b.notifier, notify.BuildEvent{
		BuildID:    rep.BuildID,
		Outcome:    string(rep.Outcome),
		Published:  rep.Published,
		Emitted:    rep.Emitted,
		FinishedAt: rep.FinishedAt,
	})
	return rep, err
}

func isCanceled(ctx context.Context, err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil
}

// checkDirs rejects output directories that would clobber the content or
// be rediscovered as content on the next build.
func checkDirs(contentDir, outputDir string) error {
	if strings.TrimSpace(outputDir) == "" {
		return dberrors.ConfigError("output directory required").Build()
	}
	c, err := filepath.Abs(contentDir)
	if err != nil {
		return dberrors.WrapError(err, dberrors.CategoryFileSystem, "cannot resolve content directory").
			WithContext(logfields.KeyPath, contentDir).Build()
	}
	o, err := filepath.Abs(outputDir)
	if err != nil {
		return dberrors.WrapError(err, dberrors.CategoryFileSystem, "cannot resolve output directory").
			WithContext(logfields.KeyPath, outputDir).Build()
	}
	if c == o || isWithin(c, o) {
		return dberrors.ConfigError("output directory contains the content directory").
			WithContext(logfields.KeyPath, outputDir).
			WithHint("choose an output directory outside build.content_dir").Build()
	}
	if isWithin(o, c) {
		return dberrors.ConfigError("output directory is inside the content directory").
			WithContext(logfields.KeyPath, outputDir).
			WithHint("choose an output directory outside build.content_dir").Build()
	}
	return nil
}

// isWithin reports whether path lies strictly below dir.
func isWithin(path, dir string) bool {
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}
