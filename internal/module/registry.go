package module

import "sort"

// Module is anything that can be built from a Config.
type Module interface {
	Configure(s *Settings) error
}

// Factory returns a fresh, unconfigured module.
type Factory func() Module

// Registry maps module names to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under name, replacing any previous one.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// New instantiates the named module.
func (r *Registry) New(name string) (Module, bool) {
	f, ok := r.factories[name]
	if !ok {
		return nil, false
	}
	return f(), true
}

// Names returns all registered module names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build instantiates and configures the module described by cfg. Unknown
// names and unread properties are configuration errors. pre, when non-nil,
// runs before the module's own Configure and may claim shared properties.
func (r *Registry) Build(path string, cfg *Config, pre func(Module, *Settings) error) (Module, error) {
	m, ok := r.New(cfg.Name)
	if !ok {
		return nil, &ConfigError{Path: path, Err: ErrUnknownModule}
	}
	s := NewSettings(path, cfg)
	if pre != nil {
		if err := pre(m, s); err != nil {
			return nil, err
		}
	}
	if err := m.Configure(s); err != nil {
		return nil, err
	}
	if err := s.Finish(); err != nil {
		return nil, err
	}
	return m, nil
}
