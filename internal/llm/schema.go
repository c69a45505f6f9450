package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildTextDecisionSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. It is passed to the model as a structured-output hint and
// used locally to validate the reply before normalization.
func BuildTextDecisionSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"keep":     map[string]any{"type": "array", "items": decisionItemSchema("id")},
			"warnings": warningsSchema(),
		},
		"required": []string{"keep"},
	}
}

// BuildVisionSchema is the vision-mode counterpart: paragraphs carry text
// instead of a candidate id.
func BuildVisionSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"paragraphs": map[string]any{"type": "array", "items": decisionItemSchema("text")},
			"warnings":   warningsSchema(),
		},
		"required": []string{"paragraphs"},
	}
}

func decisionItemSchema(keyField string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			keyField:               map[string]any{"type": "string", "minLength": 1},
			"section_heading":      map[string]any{"type": "string"},
			"note":                 map[string]any{"type": "string"},
			"confidence":           map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
			"possible_boilerplate": map[string]any{"type": "boolean"},
		},
		"required": []string{keyField},
	}
}

func warningsSchema() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
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
