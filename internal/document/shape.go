package document

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ShapeSchema derives a JSON schema requiring exactly the top-level keys of
// base, each with the same JSON type as in base. Keys whose base value is
// null accept any type.
func ShapeSchema(base Document) map[string]any {
	keys := make([]string, 0, len(base))
	props := map[string]any{}
	for k, v := range base {
		keys = append(keys, k)
		if t := jsonType(v); t != "" {
			props[k] = map[string]any{"type": t}
		} else {
			props[k] = map[string]any{}
		}
	}
	sort.Strings(keys)

	schema := map[string]any{
		"$schema":    "http://json-schema.org/draft-07/schema#",
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(keys) > 0 {
		schema["required"] = keys
	}
	return schema
}

// ValidateShape checks that candidate has the same top-level structure as base
func ValidateShape(base, candidate Document) error {
	if candidate == nil {
		return fmt.Errorf("document is empty")
	}
	schemaLoader := gojsonschema.NewGoLoader(ShapeSchema(base))
	docLoader := gojsonschema.NewGoLoader(map[string]any(candidate))

	res, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("failed to validate document: %w", err)
	}
	if res.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("document shape mismatch: %s", strings.Join(msgs, "; "))
}

func jsonType(v any) string {
	switch v.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case float64, int, int64:
		return "number"
	case bool:
		return "boolean"
	default:
		return ""
	}
}
