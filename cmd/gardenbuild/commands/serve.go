package commands

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/gardenbuild/internal/build"
	"git.home.luguber.info/inful/gardenbuild/internal/metrics"
	"git.home.luguber.info/inful/gardenbuild/internal/preview"
)

// ServeCmd builds the site, serves it and rebuilds on content changes.
type ServeCmd struct {
	Port         int           `default:"8080" help:"HTTP port"`
	Host         string        `default:"localhost" help:"Interface to listen on"`
	Output       string        `short:"o" help:"Output directory (overrides build.output_dir)"`
	RebuildEvery time.Duration `name:"rebuild-every" help:"Also rebuild on this interval (e.g. 10m); 0 disables"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	reg := prometheus.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(reg)
	builder := build.NewBuilder(cfg, build.WithOutputDir(s.Output), build.WithRecorder(recorder))

	srv, err := preview.New(builder, preview.Options{
		Addr:           fmt.Sprintf("%s:%d", s.Host, s.Port),
		ContentDir:     cfg.Build.ContentDir,
		IgnorePatterns: cfg.Configuration.IgnorePatterns,
		BasePath:       cfg.Configuration.BasePath(),
		RebuildEvery:   s.RebuildEvery,
		Recorder:       recorder,
		Gatherer:       reg,
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.Stdout, "Serving %s at http://%s:%d%s/\n", builder.OutputDir(), s.Host, s.Port, cfg.Configuration.BasePath())
	return srv.Run(ctx)
}
