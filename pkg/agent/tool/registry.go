package tool

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
)

// Registry holds the tool set bound to a single conversation. Tools are
// bound per chat request with the active workspace and user; the
// registry itself carries no global state.
type Registry struct {
	tools  []gollem.Tool
	byName map[string]gollem.Tool
}

// NewRegistry validates and indexes the given tools. Tool names must be
// non-empty and unique within one registry.
func NewRegistry(tools []gollem.Tool) (*Registry, error) {
	byName := make(map[string]gollem.Tool, len(tools))
	for _, t := range tools {
		name := t.Spec().Name
		if name == "" {
			return nil, goerr.New("tool has empty name")
		}
		if _, exists := byName[name]; exists {
			return nil, goerr.New("duplicate tool name", goerr.V("name", name))
		}
		byName[name] = t
	}

	return &Registry{tools: tools, byName: byName}, nil
}

// Tools returns the bound tools in registration order
func (r *Registry) Tools() []gollem.Tool {
	return r.tools
}

// Get looks up a bound tool by name
func (r *Registry) Get(name string) (gollem.Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Names returns the bound tool names in registration order
func (r *Registry) Names() []string {
	names := make([]string, len(r.tools))
	for i, t := range r.tools {
		names[i] = t.Spec().Name
	}
	return names
}
