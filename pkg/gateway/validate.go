package gateway

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/dealgrid/agentgate/pkg/registry"
)

// validateArgs checks the proposed arguments against the tool's declared
// parameter list: required presence, runtime type, and regex pattern. All
// violations are collected into one ValidationError; nothing else happens
// on failure.
func validateArgs(def *registry.Definition, args map[string]interface{}) error {
	violations := []string{}

	for _, param := range def.Parameters {
		value, present := args[param.Name]

		if !present || value == nil {
			if param.Required {
				violations = append(violations, fmt.Sprintf("Missing required parameter: %s", param.Name))
			}
			continue
		}

		if !typeMatches(param.Type, value) {
			violations = append(violations, fmt.Sprintf("Invalid parameter %s: expected %s", param.Name, param.Type))
			continue
		}

		if param.Pattern != "" {
			re, err := regexp.Compile(param.Pattern)
			if err != nil {
				violations = append(violations, fmt.Sprintf("Invalid parameter %s: unusable pattern %s", param.Name, param.Pattern))
				continue
			}
			if !re.MatchString(fmt.Sprintf("%v", value)) {
				violations = append(violations, fmt.Sprintf("Invalid parameter %s: value does not match pattern %s", param.Name, param.Pattern))
			}
		}
	}

	if len(violations) > 0 {
		return &ValidationError{Tool: def.Name, Violations: violations}
	}

	return nil
}

// typeMatches checks a runtime value against a declared parameter type.
// Numbers tolerate both JSON decoding (float64) and native Go ints; arrays
// are detected structurally so any slice counts.
func typeMatches(declared string, value interface{}) bool {
	switch declared {
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "number":
		switch value.(type) {
		case float64, float32, int, int32, int64:
			return true
		}
		return false
	case "integer":
		switch v := value.(type) {
		case int, int32, int64:
			return true
		case float64:
			return v == float64(int64(v))
		}
		return false
	case "object":
		_, ok := value.(map[string]interface{})
		return ok
	case "array":
		kind := reflect.ValueOf(value).Kind()
		return kind == reflect.Slice || kind == reflect.Array
	}
	return false
}
