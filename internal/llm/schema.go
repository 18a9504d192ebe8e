package llm

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// SpecFor reflects a Go struct into a StructuredSpec. The struct's json tags
// name the properties and `jsonschema:"description=..."` tags document them.
func SpecFor(name, description string, v interface{}) (StructuredSpec, error) {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}

	schema := reflector.Reflect(v)

	// Round-trip through JSON to get the plain map form that providers
	// embed into their request payloads.
	data, err := json.Marshal(schema)
	if err != nil {
		return StructuredSpec{}, fmt.Errorf("failed to marshal schema for %s: %w", name, err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return StructuredSpec{}, fmt.Errorf("failed to decode schema for %s: %w", name, err)
	}

	return StructuredSpec{
		Name:        name,
		Description: description,
		Schema:      m,
	}, nil
}

// MustSpecFor is SpecFor for package-level spec variables; reflection of a
// static struct type only fails on programmer error.
func MustSpecFor(name, description string, v interface{}) StructuredSpec {
	spec, err := SpecFor(name, description, v)
	if err != nil {
		panic(err)
	}
	return spec
}

// requiredFields extracts the "required" property list from a schema map.
func requiredFields(schema map[string]interface{}) []string {
	raw, ok := schema["required"].([]interface{})
	if !ok {
		return nil
	}
	fields := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			fields = append(fields, s)
		}
	}
	return fields
}
