package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/gardenbuild/internal/config"
	"git.home.luguber.info/inful/gardenbuild/internal/plugin"
)

func TestNewRegistry_DefaultsResolve(t *testing.T) {
	r := NewRegistry()
	cfg := config.Default()
	require.NoError(t, cfg.ValidatePlugins(r))

	p, err := r.Build(cfg.Plugins)
	require.NoError(t, err)
	assert.Len(t, p.Transformers, len(cfg.Plugins.Transformers))
	assert.Len(t, p.Filters, len(cfg.Plugins.Filters))
	assert.Len(t, p.Emitters, len(cfg.Plugins.Emitters))
}

func TestNewRegistry_Counts(t *testing.T) {
	r := NewRegistry()
	assert.Len(t, r.ListByType(plugin.TypeTransformer), 9)
	assert.Len(t, r.ListByType(plugin.TypeFilter), 2)
	assert.Len(t, r.ListByType(plugin.TypeEmitter), 10)
	for _, m := range r.List() {
		assert.NotEmpty(t, m.Description, m.Name)
	}
}
