package designagent

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// resultSchema is the contract the agent's response must satisfy before it is
// decoded. Unknown extra fields pass; missing or mistyped required fields fail.
var resultSchema = map[string]any{
	"type":     "object",
	"required": []string{"options"},
	"properties": map[string]any{
		"options": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []string{"title"},
				"properties": map[string]any{
					"title":            map[string]any{"type": "string", "minLength": 1},
					"summary":          map[string]any{"type": "string"},
					"changes":          map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"wastes_addressed": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"risks":            map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"dependencies":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"confidence":       map[string]any{"type": "number", "minimum": 0, "maximum": 1},
					"patterns":         map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"design":           map[string]any{"type": "object"},
					"assumptions": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type":     "object",
							"required": []string{"assumption"},
							"properties": map[string]any{
								"assumption":        map[string]any{"type": "string", "minLength": 1},
								"risk_if_wrong":     map[string]any{"type": "string"},
								"validation_method": map[string]any{"type": "string"},
							},
						},
					},
				},
			},
		},
		"questions": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []string{"question"},
				"properties": map[string]any{
					"id":       map[string]any{"type": "string"},
					"question": map[string]any{"type": "string", "minLength": 1},
				},
			},
		},
		"context_needed": map[string]any{"type": "boolean"},
	},
}

// ValidateResult validates a raw agent response against the result schema.
func ValidateResult(data []byte) error {
	schemaLoader := gojsonschema.NewGoLoader(resultSchema)
	dataLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return err
	}

	if !result.Valid() {
		var errors []string
		for _, desc := range result.Errors() {
			errors = append(errors, desc.String())
		}

		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}
