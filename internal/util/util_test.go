package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strictSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"index": map[string]any{"type": "integer"},
			"mode":  map[string]any{"type": "string", "enum": []string{"fast", "slow"}},
			"steps": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"goal": map[string]any{"type": "string"},
					},
					"required":             []string{"goal"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"index", "mode", "steps"},
		"additionalProperties": false,
	}
}

// ---- ValidateParameters Tests ----

func TestValidateParameters_Valid(t *testing.T) {
	err := ValidateParameters(map[string]any{
		"index": float64(3),
		"mode":  "fast",
		"steps": []any{map[string]any{"goal": "open page"}},
	}, strictSchema())
	require.NoError(t, err)
}

func TestValidateParameters_Errors(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
		field  string
	}{
		{"missing", map[string]any{"mode": "fast", "steps": []any{}}, "index"},
		{"extra", map[string]any{"index": 1, "mode": "fast", "steps": []any{}, "x": 1}, "x"},
		{"null", map[string]any{"index": nil, "mode": "fast", "steps": []any{}}, "index"},
		{"fraction", map[string]any{"index": 1.5, "mode": "fast", "steps": []any{}}, "index"},
		{"enum", map[string]any{"index": 1, "mode": "medium", "steps": []any{}}, "mode"},
		{"nested", map[string]any{"index": 1, "mode": "slow", "steps": []any{map[string]any{"goal": 2}}}, "steps[0].goal"},
		{"nested extra", map[string]any{"index": 1, "mode": "slow", "steps": []any{map[string]any{"goal": "g", "y": true}}}, "steps[0].y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateParameters(tt.params, strictSchema())
			require.Error(t, err)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestValidateParameters_OpenSchemaAllowsExtra(t *testing.T) {
	schema := map[string]any{"type": "object", "properties": map[string]any{}}
	require.NoError(t, ValidateParameters(map[string]any{"anything": 1}, schema))
}

// ---- RenderTemplate Tests ----

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("plain text", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain text", out)

	out, err = RenderTemplate(`Task: {{.task}} / {{upper .role}} / {{json .plan}}`, map[string]any{
		"task": "find prices",
		"role": "brain",
		"plan": map[string]any{"a": 1},
	})
	require.NoError(t, err)
	assert.Equal(t, `Task: find prices / BRAIN / {"a":1}`, out)

	_, err = RenderTemplate("{{.missing}}", map[string]any{})
	assert.Error(t, err)
}
