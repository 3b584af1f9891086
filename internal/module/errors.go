package module

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownModule       = errors.New("unknown module")
	ErrUnknownProperty     = errors.New("unknown property")
	ErrInvalidProperty     = errors.New("invalid property value")
	ErrUnacceptableKind    = errors.New("token kind is not acceptable")
	ErrMissingRequiredKind = errors.New("required token kind is missing")
	ErrMisplaced           = errors.New("module not allowed here")
)

// ConfigError reports a configuration problem at a module path and,
// when known, a property.
type ConfigError struct {
	Path     string
	Property string
	Err      error
}

func (e *ConfigError) Error() string {
	if e.Property != "" {
		return fmt.Sprintf("module %s: property %q: %v", e.Path, e.Property, e.Err)
	}
	return fmt.Sprintf("module %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
