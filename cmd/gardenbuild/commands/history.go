package commands

import (
	"fmt"
	"strconv"
	"time"

	"git.home.luguber.info/inful/gardenbuild/internal/foundation/errors"
)

// HistoryCmd prints recent builds from build.history_db.
type HistoryCmd struct {
	Limit int `short:"n" default:"10" help:"Number of builds to show (0 = all)"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if cfg.Build.HistoryDB == "" {
		return errors.ConfigError("build history is disabled").
			WithHint("set build.history_db in the configuration").Build()
	}
	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := signalContext()
	defer cancel()
	records, err := store.List(ctx, h.Limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		_, _ = fmt.Fprintln(g.Stdout, "No builds recorded")
		return nil
	}

	t := newTable("BUILD", "STARTED", "OUTCOME", "PUBLISHED", "EMITTED", "DURATION")
	for _, r := range records {
		id := r.ID
		if len(id) > 8 {
			id = id[:8]
		}
		t.Row(id,
			r.StartedAt.Local().Format(time.DateTime),
			r.Outcome,
			strconv.Itoa(r.Published),
			strconv.Itoa(r.Emitted),
			r.Duration.Round(time.Millisecond).String())
	}
	_, _ = fmt.Fprintln(g.Stdout, t.Render())
	return nil
}
