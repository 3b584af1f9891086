// Package module describes the configured module tree and turns property
// strings into typed check settings.
package module

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is one node of the module tree: a module name, an optional id,
// string properties in declaration order, and child modules.
type Config struct {
	Name       string     `yaml:"name"`
	ID         string     `yaml:"id,omitempty"`
	Properties Properties `yaml:"properties,omitempty"`
	Children   []*Config  `yaml:"children,omitempty"`
}

// Property is a single name/value pair. Values are always strings.
type Property struct {
	Name  string
	Value string
}

// Properties keeps properties in the order they were declared.
type Properties []Property

// UnmarshalYAML reads a mapping while preserving key order. Sequence values
// are joined with commas; null values become empty strings.
func (p *Properties) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
		*p = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: properties must be a mapping", node.Line)
	}
	out := make(Properties, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		var value string
		switch val.Kind {
		case yaml.ScalarNode:
			if val.ShortTag() != "!!null" {
				value = val.Value
			}
		case yaml.SequenceNode:
			parts := make([]string, 0, len(val.Content))
			for _, item := range val.Content {
				if item.Kind != yaml.ScalarNode {
					return fmt.Errorf("line %d: property %q: list items must be scalars", item.Line, key.Value)
				}
				parts = append(parts, item.Value)
			}
			value = strings.Join(parts, ",")
		default:
			return fmt.Errorf("line %d: property %q must be a scalar or a list", val.Line, key.Value)
		}
		out = append(out, Property{Name: key.Value, Value: value})
	}
	*p = out
	return nil
}

// MarshalYAML writes properties back as an ordered mapping.
func (p Properties) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, prop := range p {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: prop.Name},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: prop.Value},
		)
	}
	return node, nil
}

// Get returns the last value declared for name.
func (c *Config) Get(name string) (string, bool) {
	for i := len(c.Properties) - 1; i >= 0; i-- {
		if c.Properties[i].Name == name {
			return c.Properties[i].Value, true
		}
	}
	return "", false
}

// Set replaces the value of name, or appends it.
func (c *Config) Set(name, value string) *Config {
	for i := range c.Properties {
		if c.Properties[i].Name == name {
			c.Properties[i].Value = value
			return c
		}
	}
	c.Properties = append(c.Properties, Property{Name: name, Value: value})
	return c
}

// Add appends a child module and returns it.
func (c *Config) Add(child *Config) *Config {
	c.Children = append(c.Children, child)
	return child
}

// New returns a config node for the named module.
func New(name string) *Config {
	return &Config{Name: name}
}

// Label is the path segment used in error messages.
func (c *Config) Label() string {
	if c.ID != "" {
		return c.Name + "[" + c.ID + "]"
	}
	return c.Name
}

// Fingerprint is a stable digest of the whole tree, used to key cached
// results to the configuration that produced them.
func (c *Config) Fingerprint() string {
	data, err := yaml.Marshal(c)
	if err != nil {
		// Config holds only strings and slices; marshalling cannot fail.
		panic("module: marshal config: " + err.Error())
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Parse decodes a module tree from YAML.
func Parse(data []byte) (*Config, error) {
	var root Config
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing module config: %w", err)
	}
	if err := validate(&root, ""); err != nil {
		return nil, err
	}
	return &root, nil
}

// Load reads a module tree from a YAML file. It returns nil, nil when the
// file does not exist.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading module config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func validate(c *Config, parent string) error {
	if strings.TrimSpace(c.Name) == "" {
		where := parent
		if where == "" {
			where = "<root>"
		}
		return &ConfigError{Path: where, Err: errors.New("child module without a name")}
	}
	path := JoinPath(parent, c.Label())
	for _, child := range c.Children {
		if err := validate(child, path); err != nil {
			return err
		}
	}
	return nil
}

// JoinPath extends a module path with one segment.
func JoinPath(parent, segment string) string {
	if parent == "" {
		return segment
	}
	return parent + "/" + segment
}
