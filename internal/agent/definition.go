package agent

import (
	"fmt"
	"sort"
	"strings"

	"github.com/toolsdir/api/internal/provider/anthropic"
	"github.com/xeipuuv/gojsonschema"
)

// Definition describes one agent. Prompt and Fallback receive validated fields.
type Definition struct {
	Name        string
	Description string
	Required    []string
	Optional    []string
	// Enums restricts the allowed values of a field.
	Enums     map[string][]string
	Outputs   []string
	System    string
	MaxTokens int
	Prompt    func(Fields) string
	Fallback  func(Fields) Fields

	schema *gojsonschema.Schema
}

// prompt builds the provider request for validated fields.
func (d *Definition) prompt(f Fields) anthropic.Prompt {
	return anthropic.Prompt{
		System:    d.System,
		User:      d.Prompt(f) + "\n\n" + replyFormat(d.Outputs),
		MaxTokens: d.MaxTokens,
		Fields:    d.Outputs,
	}
}

func replyFormat(outputs []string) string {
	keys := make([]string, len(outputs))
	for i, o := range outputs {
		keys[i] = fmt.Sprintf("%q", o)
	}
	return "Respond with a single JSON object with the string keys " + strings.Join(keys, ", ") + " and nothing else."
}

// Schema returns the JSON Schema document the payload is checked against.
func (d *Definition) Schema() map[string]any {
	props := make(map[string]any, len(d.Required)+len(d.Optional))
	for _, f := range d.Required {
		props[f] = d.fieldSchema(f, true)
	}
	for _, f := range d.Optional {
		props[f] = d.fieldSchema(f, false)
	}
	required := make([]any, len(d.Required))
	for i, f := range d.Required {
		required[i] = f
	}
	schema := map[string]any{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"type":                 "object",
		"properties":           props,
		"additionalProperties": true,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func (d *Definition) fieldSchema(name string, required bool) map[string]any {
	s := map[string]any{"type": "string"}
	if required {
		s["minLength"] = 1
	}
	if values, ok := d.Enums[name]; ok {
		enum := make([]any, len(values))
		for i, v := range values {
			enum[i] = v
		}
		s["enum"] = enum
	}
	return s
}

func (d *Definition) compile() error {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(d.Schema()))
	if err != nil {
		return fmt.Errorf("compile schema for %s: %w", d.Name, err)
	}
	d.schema = schema
	return nil
}

// fieldOrder is the position of a field in the definition, used to report the
// first failing field deterministically.
func (d *Definition) fieldOrder(name string) int {
	for i, f := range d.Required {
		if f == name {
			return i
		}
	}
	for i, f := range d.Optional {
		if f == name {
			return len(d.Required) + i
		}
	}
	return len(d.Required) + len(d.Optional)
}

// Registry maps agent names to definitions.
type Registry struct {
	agents map[string]*Definition
}

// NewRegistry compiles the schemas of defs. Duplicate names are an error.
func NewRegistry(defs ...*Definition) (*Registry, error) {
	r := &Registry{agents: make(map[string]*Definition, len(defs))}
	for _, d := range defs {
		if _, dup := r.agents[d.Name]; dup {
			return nil, fmt.Errorf("duplicate agent %q", d.Name)
		}
		if d.Prompt == nil || d.Fallback == nil || len(d.Outputs) == 0 {
			return nil, fmt.Errorf("agent %q is incomplete", d.Name)
		}
		if err := d.compile(); err != nil {
			return nil, err
		}
		r.agents[d.Name] = d
	}
	return r, nil
}

// Get returns the named definition.
func (r *Registry) Get(name string) (*Definition, bool) {
	d, ok := r.agents[name]
	return d, ok
}

// Names returns the registered agent names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.agents))
	for n := range r.agents {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
