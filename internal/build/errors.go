package build

import "errors"

// Sentinel errors classifying pipeline failures. They are wrapped with
// context at the call site.
var (
	ErrCanceled      = errors.New("gardenbuild: build canceled")
	ErrDiscovery     = errors.New("gardenbuild: discovery error")
	ErrParse         = errors.New("gardenbuild: parse error")
	ErrEmit          = errors.New("gardenbuild: emit error")
	ErrConfigMutated = errors.New("gardenbuild: configuration changed during build")
)
