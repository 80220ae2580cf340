package util

import (
	"fmt"
	"strings"
)

// ValidationError represents parameter validation errors with detailed information.
type ValidationError struct {
	Field   string `json:"field"`   // Dotted path of the field that failed validation
	Value   any    `json:"value"`   // Value that was provided
	Message string `json:"message"` // Human-readable error message
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// ValidateParameters validates decoded tool arguments against a strict JSON
// schema. Strict means every declared property is required, undeclared
// properties are rejected when additionalProperties is false, and null is
// never accepted. Nested arrays and objects are checked recursively.
func ValidateParameters(params map[string]any, schema map[string]any) error {
	return validateObject("", params, schema)
}

func validateObject(path string, obj map[string]any, schema map[string]any) error {
	properties, _ := schema["properties"].(map[string]any)

	for _, name := range requiredFields(schema) {
		if _, exists := obj[name]; !exists {
			return &ValidationError{Field: join(path, name), Message: "required field is missing"}
		}
	}

	closed := false
	if ap, ok := schema["additionalProperties"].(bool); ok && !ap {
		closed = true
	}

	for name, value := range obj {
		propSchema, exists := properties[name]
		if !exists {
			if closed {
				return &ValidationError{Field: join(path, name), Value: value, Message: "unexpected field"}
			}
			continue
		}

		propMap, ok := propSchema.(map[string]any)
		if !ok {
			continue
		}

		if err := validateValue(join(path, name), value, propMap); err != nil {
			return err
		}
	}

	return nil
}

func validateValue(path string, value any, schema map[string]any) error {
	if value == nil {
		return &ValidationError{Field: path, Message: "null is not allowed"}
	}

	expectedType, _ := schema["type"].(string)
	if !isValidType(value, expectedType) {
		return &ValidationError{
			Field:   path,
			Value:   value,
			Message: fmt.Sprintf("expected type %s, got %T", expectedType, value),
		}
	}

	if enum := enumValues(schema); len(enum) > 0 {
		found := false
		for _, e := range enum {
			if fmt.Sprint(e) == fmt.Sprint(value) {
				found = true
				break
			}
		}
		if !found {
			return &ValidationError{
				Field:   path,
				Value:   value,
				Message: fmt.Sprintf("value must be one of %v", enum),
			}
		}
	}

	switch expectedType {
	case "array":
		items, _ := schema["items"].(map[string]any)
		if items == nil {
			return nil
		}
		for i, item := range value.([]any) {
			if err := validateValue(fmt.Sprintf("%s[%d]", path, i), item, items); err != nil {
				return err
			}
		}
	case "object":
		return validateObject(path, value.(map[string]any), schema)
	}

	return nil
}

func requiredFields(schema map[string]any) []string {
	switch r := schema["required"].(type) {
	case []string:
		return r
	case []any:
		out := make([]string, 0, len(r))
		for _, v := range r {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func enumValues(schema map[string]any) []any {
	switch e := schema["enum"].(type) {
	case []any:
		return e
	case []string:
		out := make([]any, len(e))
		for i, v := range e {
			out[i] = v
		}
		return out
	}
	return nil
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return strings.Join([]string{path, name}, ".")
}

// isValidType checks if a value is valid according to the expected JSON schema type.
func isValidType(value any, expectedType string) bool {
	switch expectedType {
	case "string":
		_, ok := value.(string)
		return ok
	case "integer":
		switch v := value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		case float64: // JSON unmarshaling often produces float64 for numbers
			return v == float64(int64(v))
		}
		return false
	case "number":
		switch value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
			float32, float64:
			return true
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true // Unknown types are assumed valid
	}
}
