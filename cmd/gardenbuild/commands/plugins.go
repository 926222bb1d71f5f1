package commands

import (
	"fmt"

	"git.home.luguber.info/inful/gardenbuild/internal/config"
	"git.home.luguber.info/inful/gardenbuild/internal/plugin"
	"git.home.luguber.info/inful/gardenbuild/internal/plugin/builtin"
)

// PluginsCmd lists the registered plugins and marks the configured ones.
type PluginsCmd struct{}

func (p *PluginsCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfigOrDefault()
	if err != nil {
		return err
	}
	enabled := map[string]bool{}
	for _, sels := range [][]config.PluginSelection{cfg.Plugins.Transformers, cfg.Plugins.Filters, cfg.Plugins.Emitters} {
		for _, s := range sels {
			enabled[s.Name] = true
		}
	}

	registry := builtin.NewRegistry()
	t := newTable("NAME", "STAGE", "VERSION", "ENABLED", "DESCRIPTION")
	for _, m := range registry.List() {
		mark := ""
		if enabled[m.Name] {
			mark = "yes"
		}
		t.Row(m.Name, string(m.Type), m.Version, mark, m.Description)
	}
	_, _ = fmt.Fprintln(g.Stdout, t.Render())
	_, _ = fmt.Fprintf(g.Stdout, "%d plugins (%d transformers, %d filters, %d emitters)\n",
		registry.Count(),
		len(registry.ListByType(plugin.TypeTransformer)),
		len(registry.ListByType(plugin.TypeFilter)),
		len(registry.ListByType(plugin.TypeEmitter)))
	return nil
}
