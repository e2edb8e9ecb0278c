package registry

import (
	"github.com/xeipuuv/gojsonschema"
)

// Schema returns the compiled JSON Schema for a tool's parameters. Agent
// layers use these to export function-calling specs to model providers.
func (r *Registry) Schema(name string) (*gojsonschema.Schema, bool) {
	schema, ok := r.schemas[name]
	return schema, ok
}

// SchemaMap returns the raw JSON Schema document for a tool's parameters.
func (r *Registry) SchemaMap(name string) (map[string]interface{}, bool) {
	def, ok := r.tools[name]
	if !ok {
		return nil, false
	}
	return schemaMap(def), true
}

func schemaMap(def *Definition) map[string]interface{} {
	properties := make(map[string]interface{}, len(def.Parameters))
	required := []string{}

	for _, param := range def.Parameters {
		paramSchema := map[string]interface{}{
			"type":        param.Type,
			"description": param.Description,
		}
		if param.Pattern != "" {
			paramSchema["pattern"] = param.Pattern
		}
		if param.Default != nil {
			paramSchema["default"] = param.Default
		}
		properties[param.Name] = paramSchema

		if param.Required {
			required = append(required, param.Name)
		}
	}

	doc := map[string]interface{}{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           properties,
	}
	if len(required) > 0 {
		doc["required"] = required
	}

	return doc
}

func compileSchema(def *Definition) (*gojsonschema.Schema, error) {
	loader := gojsonschema.NewGoLoader(schemaMap(def))
	return gojsonschema.NewSchema(loader)
}
