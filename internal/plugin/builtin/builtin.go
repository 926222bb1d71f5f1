// Package builtin assembles the registry of plugins shipped with gardenbuild.
package builtin

import (
	"git.home.luguber.info/inful/gardenbuild/internal/plugin"
	"git.home.luguber.info/inful/gardenbuild/internal/plugin/emitters"
	"git.home.luguber.info/inful/gardenbuild/internal/plugin/filters"
	"git.home.luguber.info/inful/gardenbuild/internal/plugin/transformers"
)

// NewRegistry returns a registry holding every built-in transformer, filter
// and emitter.
func NewRegistry() *plugin.Registry {
	r := plugin.NewRegistry()
	for _, register := range []func(*plugin.Registry) error{
		transformers.Register,
		filters.Register,
		emitters.Register,
	} {
		if err := register(r); err != nil {
			panic(err)
		}
	}
	return r
}
