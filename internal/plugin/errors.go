package plugin

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownPlugin is returned when a selection names no registered plugin.
	ErrUnknownPlugin = errors.New("unknown plugin")
	// ErrStageMismatch is returned when a plugin is selected for the wrong stage.
	ErrStageMismatch = errors.New("plugin registered for a different stage")
	// ErrInvalidOptions is returned when options fail schema validation.
	ErrInvalidOptions = errors.New("invalid plugin options")
	// ErrDuplicatePlugin is returned when a name is registered twice.
	ErrDuplicatePlugin = errors.New("plugin already registered")
)

// PluginError attributes a failure to a plugin and stage.
type PluginError struct {
	Plugin string
	Stage  Type
	Err    error
}

func (e *PluginError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Plugin, e.Err)
}

func (e *PluginError) Unwrap() error { return e.Err }

// Wrap returns err attributed to the plugin, or nil.
func Wrap(p Plugin, err error) error {
	if err == nil {
		return nil
	}
	m := p.Metadata()
	return &PluginError{Plugin: m.Name, Stage: m.Type, Err: err}
}
