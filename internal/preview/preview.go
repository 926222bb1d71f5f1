// Package preview serves the output directory over HTTP and rebuilds the
// site when content changes or on a fixed interval.
package preview

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/gardenbuild/internal/build"
	"git.home.luguber.info/inful/gardenbuild/internal/content"
	"git.home.luguber.info/inful/gardenbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/gardenbuild/internal/logfields"
	"git.home.luguber.info/inful/gardenbuild/internal/metrics"
)

// DefaultDebounce is the quiet period after the last file event before a
// rebuild starts.
const DefaultDebounce = 300 * time.Millisecond

// Rebuild triggers, used as metric labels.
const (
	TriggerInitial  = "initial"
	TriggerWatch    = "watch"
	TriggerSchedule = "schedule"
)

// Builder runs one site build. *build.Builder implements it.
type Builder interface {
	Run(ctx context.Context) (*build.Report, error)
	OutputDir() string
}

// Options configure a preview server.
type Options struct {
	Addr           string // listen address, e.g. ":8080"
	ContentDir     string
	IgnorePatterns []string
	BasePath       string        // URL prefix the site is built for
	RebuildEvery   time.Duration // 0 disables scheduled rebuilds
	Debounce       time.Duration
	Recorder       metrics.Recorder
	Gatherer       prometheus.Gatherer // nil disables /metrics
}

// Server is a local preview of a site.
type Server struct {
	builder Builder
	opts    Options
	ignore  *content.IgnoreMatcher
	status  buildStatus

	mu       sync.Mutex
	listener net.Listener
}

// New validates opts and creates a server.
func New(b Builder, opts Options) (*Server, error) {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.RebuildEvery < 0 {
		return nil, errors.ValidationError("rebuild interval must not be negative").
			WithContext("rebuild_every", opts.RebuildEvery.String()).Build()
	}
	abs, err := filepath.Abs(opts.ContentDir)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "resolve content dir").Build()
	}
	opts.ContentDir = abs
	ignore, err := content.NewIgnoreMatcher(opts.IgnorePatterns)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid ignore patterns").Build()
	}
	return &Server{builder: b, opts: opts, ignore: ignore}, nil
}

// Addr returns the bound listen address once Run has started listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run builds the site once, then serves and watches until ctx is done.
// A failing initial build does not stop the server; its error is reported
// on /healthz until a later build succeeds.
func (s *Server) Run(ctx context.Context) error {
	s.rebuild(ctx, TriggerInitial)

	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return errors.WrapError(err, errors.CategoryNetwork, "failed to listen").
			WithContext(logfields.KeyAddr, s.opts.Addr).Build()
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	w, err := newWatcher(s.opts.ContentDir, s.ignore)
	if err != nil {
		_ = ln.Close()
		return err
	}
	defer func() { _ = w.Close() }()

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	rb := newRebuilder(s.opts.Debounce, s.rebuild)
	defer rb.stop()
	go rb.run(workerCtx)

	if s.opts.RebuildEvery > 0 {
		sched, err := NewScheduler()
		if err != nil {
			return err
		}
		if _, err := sched.ScheduleEvery("rebuild", s.opts.RebuildEvery, func() { rb.request(TriggerSchedule) }); err != nil {
			return err
		}
		sched.Start()
		defer func() {
			if err := sched.Stop(); err != nil {
				slog.Warn("Scheduler shutdown error", logfields.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Handler:           withMiddleware(s.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()
	slog.Info("Preview server listening",
		logfields.Addr(ln.Addr().String()),
		logfields.Path(s.builder.OutputDir()))

	for {
		select {
		case <-ctx.Done():
			return shutdown(srv)
		case err := <-serveErr:
			if stderrors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return errors.WrapError(err, errors.CategoryNetwork, "preview server failed").Build()
		case ev, ok := <-w.Events():
			if !ok {
				return shutdown(srv)
			}
			if w.Handle(ev) {
				rb.debounce(TriggerWatch)
			}
		case err, ok := <-w.Errors():
			if !ok {
				return shutdown(srv)
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func shutdown(srv *http.Server) error {
	slog.Info("Shutting down preview server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return errors.WrapError(err, errors.CategoryNetwork, "preview server shutdown").Build()
	}
	return nil
}

// rebuild runs one build and records the result. Build errors are logged,
// never returned: the preview keeps serving the last good output.
func (s *Server) rebuild(ctx context.Context, trigger string) {
	s.opts.Recorder.IncRebuild(trigger)
	slog.Info("Rebuilding site", slog.String("trigger", trigger))
	report, err := s.builder.Run(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("Rebuild failed", logfields.Error(err))
		}
		s.status.setError(report, err)
		return
	}
	s.status.setSuccess(report)
}
