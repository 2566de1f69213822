package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// buildReceiptSchema is the prompt's schema contract as a draft 2020-12
// document.
func buildReceiptSchema() map[string]any {
	nullable := func(t string) map[string]any {
		return map[string]any{"type": []string{t, "null"}}
	}
	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"store":     nullable("string"),
			"datetime":  nullable("string"),
			"total_yen": nullable("integer"),
			"tax_yen":   nullable("integer"),
			"payment":   nullable("string"),
			"items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []string{"name"},
					"properties": map[string]any{
						"name":     map[string]any{"type": "string", "minLength": 1},
						"qty":      nullable("integer"),
						"unit_yen": nullable("integer"),
						"line_yen": nullable("integer"),
						"tax_rate": nullable("integer"),
					},
				},
			},
		},
	}
}

var receiptSchema = mustCompileReceiptSchema()

func mustCompileReceiptSchema() *jsonschema.Schema {
	b, err := json.Marshal(buildReceiptSchema())
	if err != nil {
		panic(fmt.Sprintf("marshaling receipt schema: %v", err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("receipt.schema.json", bytes.NewReader(b)); err != nil {
		panic(fmt.Sprintf("adding receipt schema resource: %v", err))
	}
	schema, err := compiler.Compile("receipt.schema.json")
	if err != nil {
		panic(fmt.Sprintf("compiling receipt schema: %v", err))
	}
	return schema
}

// ValidateReceiptObject checks a recovered object against the schema the
// prompt requested. The check is advisory: normalization is defined to
// tolerate deviations, so callers log a mismatch instead of failing.
func ValidateReceiptObject(obj map[string]any) error {
	if err := receiptSchema.Validate(obj); err != nil {
		return fmt.Errorf("response deviates from requested schema: %w", err)
	}
	return nil
}
