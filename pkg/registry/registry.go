package registry

import (
	"fmt"
	"sort"

	"github.com/xeipuuv/gojsonschema"
)

// RiskLevel classifies a tool's potential impact and drives the default
// approval policy.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// AllRiskLevels returns every valid risk level, lowest first.
func AllRiskLevels() []RiskLevel {
	return []RiskLevel{RiskLow, RiskMedium, RiskHigh, RiskCritical}
}

// Valid reports whether the risk level is one of the known values.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	}
	return false
}

// Scope describes which entity a tool operates on.
type Scope string

const (
	ScopeGlobal   Scope = "global"
	ScopeOperator Scope = "operator"
	ScopeDeal     Scope = "deal"
)

// Category groups tools by the kind of action they perform.
type Category string

const (
	CategoryRead          Category = "read"
	CategoryRecord        Category = "record"
	CategoryCommunication Category = "communication"
	CategoryScheduling    Category = "scheduling"
	CategoryDestructive   Category = "destructive"
)

// Parameter describes one declared parameter of a tool.
type Parameter struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Required    bool        `json:"required"`
	Pattern     string      `json:"pattern,omitempty"`
	Default     interface{} `json:"default,omitempty"`
}

// Definition is one immutable catalog entry. Risk classification lives here
// rather than inside tool implementations so the approval guarantee can be
// audited by reading a single table.
type Definition struct {
	Name             string      `json:"name"`
	Description      string      `json:"description"`
	Category         Category    `json:"category"`
	Risk             RiskLevel   `json:"risk_level"`
	RequiresApproval bool        `json:"requires_approval"`
	Scope            Scope       `json:"scope"`
	ExternalImpact   bool        `json:"external_impact"`
	Reversible       bool        `json:"reversible"`
	Parameters       []Parameter `json:"parameters"`
}

// Registry is the immutable tool catalog. It is built once at process start
// and only read afterward.
type Registry struct {
	tools   map[string]*Definition
	names   []string
	schemas map[string]*gojsonschema.Schema
}

// New builds the registry from the built-in catalog.
func New() (*Registry, error) {
	return NewFromDefinitions(builtinCatalog())
}

// NewFromDefinitions builds a registry from an explicit definition list,
// validating every entry. Mainly useful for tests.
func NewFromDefinitions(defs []Definition) (*Registry, error) {
	r := &Registry{
		tools:   make(map[string]*Definition, len(defs)),
		names:   make([]string, 0, len(defs)),
		schemas: make(map[string]*gojsonschema.Schema, len(defs)),
	}

	for i := range defs {
		def := defs[i]
		if err := validateDefinition(&def); err != nil {
			return nil, fmt.Errorf("tool %q: %w", def.Name, err)
		}
		if _, exists := r.tools[def.Name]; exists {
			return nil, fmt.Errorf("duplicate tool name %q", def.Name)
		}
		schema, err := compileSchema(&def)
		if err != nil {
			return nil, fmt.Errorf("tool %q: failed to compile schema: %w", def.Name, err)
		}
		r.tools[def.Name] = &def
		r.schemas[def.Name] = schema
		r.names = append(r.names, def.Name)
	}

	sort.Strings(r.names)

	return r, nil
}

// Lookup returns the definition for a tool name.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	def, ok := r.tools[name]
	return def, ok
}

// RequiresApproval reports whether a tool needs human approval. Unknown
// names report true: an unrecognized tool must never slip through as
// auto-executable.
func (r *Registry) RequiresApproval(name string) bool {
	def, ok := r.tools[name]
	if !ok {
		return true
	}
	return def.RequiresApproval
}

// HasExternalImpact reports whether a tool's action is visible outside the
// system. Unknown names report true for the same fail-safe reason as
// RequiresApproval.
func (r *Registry) HasExternalImpact(name string) bool {
	def, ok := r.tools[name]
	if !ok {
		return true
	}
	return def.ExternalImpact
}

// FilterByRisk returns all tools at a given risk level.
func (r *Registry) FilterByRisk(risk RiskLevel) []*Definition {
	matched := []*Definition{}
	for _, name := range r.names {
		if def := r.tools[name]; def.Risk == risk {
			matched = append(matched, def)
		}
	}
	return matched
}

// FilterByCategory returns all tools in a category.
func (r *Registry) FilterByCategory(category Category) []*Definition {
	matched := []*Definition{}
	for _, name := range r.names {
		if def := r.tools[name]; def.Category == category {
			matched = append(matched, def)
		}
	}
	return matched
}

// AutoExecutable returns the tools that may ever run without a human
// decision: low risk, no approval requirement, no external impact. Policy
// toggles can only narrow this set, never widen it.
func (r *Registry) AutoExecutable() []*Definition {
	matched := []*Definition{}
	for _, name := range r.names {
		def := r.tools[name]
		if def.Risk == RiskLow && !def.RequiresApproval && !def.ExternalImpact {
			matched = append(matched, def)
		}
	}
	return matched
}

// All returns every definition in name order.
func (r *Registry) All() []*Definition {
	defs := make([]*Definition, 0, len(r.names))
	for _, name := range r.names {
		defs = append(defs, r.tools[name])
	}
	return defs
}

// Names returns all tool names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Count returns the number of cataloged tools.
func (r *Registry) Count() int {
	return len(r.tools)
}

var validParamTypes = map[string]bool{
	"string": true, "number": true, "boolean": true,
	"object": true, "array": true, "integer": true,
}

// validateDefinition checks a single catalog entry, including the
// cross-field invariant: external impact always forces approval.
func validateDefinition(def *Definition) error {
	if def.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if def.Description == "" {
		return fmt.Errorf("tool description cannot be empty")
	}
	if !def.Risk.Valid() {
		return fmt.Errorf("invalid risk level %q", def.Risk)
	}
	if def.ExternalImpact && !def.RequiresApproval {
		return fmt.Errorf("external impact requires approval")
	}

	seen := make(map[string]bool, len(def.Parameters))
	for _, param := range def.Parameters {
		if param.Name == "" {
			return fmt.Errorf("parameter name cannot be empty")
		}
		if seen[param.Name] {
			return fmt.Errorf("duplicate parameter %q", param.Name)
		}
		seen[param.Name] = true
		if !validParamTypes[param.Type] {
			return fmt.Errorf("invalid parameter type %q for %s", param.Type, param.Name)
		}
	}

	return nil
}
