package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildInsightsJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// We pass this to the backend as a structured output constraint and also use it locally to validate.
func BuildInsightsJSONSchema(allowedCategories []string) map[string]any {
	props := map[string]any{
		"summary":    map[string]any{"type": "string", "minLength": 1},
		"category":   map[string]any{"type": "string", "minLength": 1},
		"priority":   map[string]any{"type": "string", "enum": []string{"high", "medium", "low"}},
		"confidence": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
	}
	required := []string{"summary", "category"}

	// Constrain category if a taxonomy is provided.
	if len(allowedCategories) > 0 {
		props["category"] = map[string]any{
			"type": "string",
			"enum": allowedCategories,
		}
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
