package commands

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/gardenbuild/internal/build"
	"git.home.luguber.info/inful/gardenbuild/internal/config"
	"git.home.luguber.info/inful/gardenbuild/internal/eventstore"
	"git.home.luguber.info/inful/gardenbuild/internal/logfields"
	"git.home.luguber.info/inful/gardenbuild/internal/metrics"
	"git.home.luguber.info/inful/gardenbuild/internal/notify"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output        string `short:"o" help:"Output directory (overrides build.output_dir)"`
	NoIncremental bool   `name:"no-incremental" help:"Rebuild every page and clean the output directory first"`
	Concurrency   int    `help:"Parse workers (overrides build.concurrency; 0 keeps the configured value)"`
	ServeMetrics  string `name:"serve-metrics" placeholder:"ADDR" help:"Serve Prometheus metrics on ADDR (e.g. :9090) and keep serving after the build until interrupted"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	b.apply(cfg)

	ctx, cancel := signalContext()
	defer cancel()

	reg := prometheus.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(reg)
	var metricsServer *http.Server
	if b.ServeMetrics != "" {
		metricsServer = serveMetrics(b.ServeMetrics, reg)
	}

	history, err := openHistory(cfg)
	if err != nil {
		return err
	}
	if history != nil {
		defer func() { _ = history.Close() }()
	}
	notifier, err := notify.New(cfg.Notify)
	if err != nil {
		slog.Warn("Build notifications disabled", logfields.Error(err))
		notifier = notify.NoopPublisher{}
	}
	defer notifier.Close()

	builder := build.NewBuilder(cfg,
		build.WithOutputDir(b.Output),
		build.WithRecorder(recorder),
		build.WithHistory(history),
		build.WithNotifier(notifier),
	)
	report, runErr := builder.Run(ctx)
	printReport(g, report)

	if metricsServer != nil {
		if runErr == nil {
			slog.Info("Build finished; serving metrics until interrupted", logfields.Addr(b.ServeMetrics))
			<-ctx.Done()
		}
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		_ = metricsServer.Shutdown(shutdownCtx)
	}
	return runErr
}

func (b *BuildCmd) apply(cfg *config.Config) {
	if b.NoIncremental {
		cfg.Build.Incremental = false
	}
	if b.Concurrency > 0 {
		cfg.Build.Concurrency = b.Concurrency
	}
}

// openHistory opens the build history database, or returns nil when
// build.history_db is unset.
func openHistory(cfg *config.Config) (eventstore.Store, error) {
	if cfg.Build.HistoryDB == "" {
		return nil, nil
	}
	s, err := eventstore.NewSQLiteStore(cfg.Build.HistoryDB)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func serveMetrics(addr string, g prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(g))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server error", logfields.Addr(addr), logfields.Error(err))
		}
	}()
	slog.Info("Serving metrics", logfields.Addr(addr))
	return srv
}

func printReport(g *Global, r *build.Report) {
	if r == nil {
		return
	}
	if !r.Outcome.IsSuccess() {
		_, _ = fmt.Fprintf(g.Stdout, "Build %s after %s\n", r.Outcome, r.Duration.Round(time.Millisecond))
		return
	}
	_, _ = fmt.Fprintf(g.Stdout, "Built %d pages (%d files, %d unchanged, %d removed) into %s in %s\n",
		r.Published, r.Emitted, r.Skipped, r.Removed, r.OutputDir, r.Duration.Round(time.Millisecond))
	if n := len(r.Warnings); n > 0 {
		_, _ = fmt.Fprintf(g.Stdout, "%d warning(s):\n", n)
		for _, w := range r.Warnings {
			_, _ = fmt.Fprintf(g.Stdout, "  %s\n", w)
		}
	}
}
