package plugin

import (
	"fmt"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"git.home.luguber.info/inful/gardenbuild/internal/config"
)

type entry struct {
	meta     Metadata
	schema   map[string]any
	compiled *jsonschema.Schema
	ctor     Constructor
}

// Registry maps plugin names to constructors and option schemas. It is safe
// for concurrent lookups.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewRegistry creates a new empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register adds a constructor. The schema is a JSON Schema (draft 2020-12)
// for the options object; nil accepts any object.
func (r *Registry) Register(name string, typ Type, version string, schema map[string]any, ctor Constructor) error {
	meta := Metadata{Name: name, Version: version, Type: typ}
	if err := meta.Validate(); err != nil {
		return fmt.Errorf("invalid plugin metadata: %w", err)
	}
	if ctor == nil {
		return fmt.Errorf("plugin %s: nil constructor", name)
	}
	if d, ok := schema["description"].(string); ok {
		meta.Description = d
	}
	compiled, err := compileSchema(schema)
	if err != nil {
		return fmt.Errorf("plugin %s: invalid option schema: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePlugin, name)
	}
	r.entries[name] = &entry{meta: meta, schema: schema, compiled: compiled, ctor: ctor}
	return nil
}

// MustRegister is Register for static built-in tables.
func (r *Registry) MustRegister(name string, typ Type, version string, schema map[string]any, ctor Constructor) {
	if err := r.Register(name, typ, version, schema, ctor); err != nil {
		panic(err)
	}
}

func (r *Registry) lookup(name string, typ Type) (*entry, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlugin, name)
	}
	if e.meta.Type != typ {
		return nil, fmt.Errorf("%w: %s is a %s, not a %s", ErrStageMismatch, name, e.meta.Type, typ)
	}
	return e, nil
}

// Check implements config.PluginChecker.
func (r *Registry) Check(stage, name string, options map[string]any) error {
	e, err := r.lookup(name, Type(stage))
	if err != nil {
		return err
	}
	return validateOptions(e.compiled, options)
}

// Instantiate validates the selection's options and runs the constructor.
func (r *Registry) Instantiate(typ Type, sel config.PluginSelection) (Plugin, error) {
	e, err := r.lookup(sel.Name, typ)
	if err != nil {
		return nil, err
	}
	if err := validateOptions(e.compiled, sel.Options); err != nil {
		return nil, &PluginError{Plugin: sel.Name, Stage: typ, Err: err}
	}
	p, err := e.ctor(sel.Options)
	if err != nil {
		return nil, &PluginError{Plugin: sel.Name, Stage: typ, Err: err}
	}
	return p, nil
}

// Schema returns the option schema of a plugin.
func (r *Registry) Schema(name string) (map[string]any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return e.schema, true
}

// Has checks if a plugin with the given name exists.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// List returns the metadata of every plugin, sorted by type then name.
func (r *Registry) List() []Metadata {
	r.mu.RLock()
	out := make([]Metadata, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.meta)
	}
	r.mu.RUnlock()

	rank := map[Type]int{TypeTransformer: 0, TypeFilter: 1, TypeEmitter: 2}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return rank[out[i].Type] < rank[out[j].Type]
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ListByType returns the metadata of plugins for one stage, sorted by name.
func (r *Registry) ListByType(typ Type) []Metadata {
	var out []Metadata
	for _, m := range r.List() {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Pipeline is the instantiated plugin selection of one build.
type Pipeline struct {
	Transformers []Transformer
	Filters      []Filter
	Emitters     []Emitter
}

// Build instantiates every selection of cfg in configured order.
func (r *Registry) Build(cfg config.PluginsConfig) (*Pipeline, error) {
	p := &Pipeline{}
	for _, sel := range cfg.Transformers {
		inst, err := r.Instantiate(TypeTransformer, sel)
		if err != nil {
			return nil, err
		}
		t, ok := inst.(Transformer)
		if !ok {
			return nil, fmt.Errorf("%w: %s does not implement Transform", ErrStageMismatch, sel.Name)
		}
		p.Transformers = append(p.Transformers, t)
	}
	for _, sel := range cfg.Filters {
		inst, err := r.Instantiate(TypeFilter, sel)
		if err != nil {
			return nil, err
		}
		f, ok := inst.(Filter)
		if !ok {
			return nil, fmt.Errorf("%w: %s does not implement Keep", ErrStageMismatch, sel.Name)
		}
		p.Filters = append(p.Filters, f)
	}
	for _, sel := range cfg.Emitters {
		inst, err := r.Instantiate(TypeEmitter, sel)
		if err != nil {
			return nil, err
		}
		e, ok := inst.(Emitter)
		if !ok {
			return nil, fmt.Errorf("%w: %s does not implement Emit", ErrStageMismatch, sel.Name)
		}
		p.Emitters = append(p.Emitters, e)
	}
	return p, nil
}

var _ config.PluginChecker = (*Registry)(nil)
