// Package plugin defines the transformer, filter and emitter contracts of the
// build pipeline and the registry that constructs them from configuration.
//
// Plugins are compiled in and registered by name. Selecting a plugin in the
// configuration only invokes its constructor with option values.
package plugin

import (
	"context"
	"fmt"

	"github.com/yuin/goldmark"

	"git.home.luguber.info/inful/gardenbuild/internal/content"
)

// Type identifies the pipeline stage a plugin runs in.
type Type string

const (
	TypeTransformer Type = "transformer"
	TypeFilter      Type = "filter"
	TypeEmitter     Type = "emitter"
)

// IsValid returns true if the plugin type is recognized.
func (t Type) IsValid() bool {
	switch t {
	case TypeTransformer, TypeFilter, TypeEmitter:
		return true
	default:
		return false
	}
}

func (t Type) String() string { return string(t) }

// Metadata describes a registered plugin.
type Metadata struct {
	Name        string
	Version     string
	Type        Type
	Description string
}

// String returns a human-readable representation of the plugin metadata.
func (m Metadata) String() string {
	return fmt.Sprintf("%s@%s (%s)", m.Name, m.Version, m.Type)
}

// Validate checks if the plugin metadata is valid.
func (m Metadata) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("plugin name is required")
	}
	if m.Version == "" {
		return fmt.Errorf("plugin version is required")
	}
	if !m.Type.IsValid() {
		return fmt.Errorf("invalid plugin type: %s", m.Type)
	}
	return nil
}

// Plugin is anything the registry can construct.
type Plugin interface {
	Metadata() Metadata
}

// Transformer mutates one document during the parse stage. Transformers run
// in configured order; each document is handled by a single goroutine.
type Transformer interface {
	Plugin
	Transform(ctx context.Context, doc *content.Document, site *Site) error
}

// Filter decides whether a parsed document is published.
type Filter interface {
	Plugin
	Keep(doc *content.Document) bool
}

// Emitter writes output files for the published site and returns the paths
// it wrote, relative to the output directory.
type Emitter interface {
	Plugin
	Emit(ctx context.Context, site *Site, out Output) ([]string, error)
}

// MarkdownExtender is implemented by transformers that contribute goldmark
// extensions to every document's render.
type MarkdownExtender interface {
	MarkdownExtensions() []goldmark.Extender
}

// Constructor builds a plugin from already validated options.
type Constructor func(options map[string]any) (Plugin, error)

// Base carries metadata for embedding in plugin implementations.
type Base struct {
	Meta Metadata
}

func (b Base) Metadata() Metadata { return b.Meta }
