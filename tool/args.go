package tool

import (
	"encoding/json"
	"fmt"
)

// Args holds the decoded arguments of one tool call. Accessors return the
// zero value for absent keys; the dispatcher has already checked presence
// and types against the declared params.
type Args map[string]any

// ParseArgs decodes the raw JSON arguments issued by the model. An empty
// string decodes to empty Args.
func ParseArgs(raw string) (Args, error) {
	if raw == "" {
		return Args{}, nil
	}

	var args Args
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("invalid JSON arguments: %w", err)
	}

	if args == nil { // "null"
		args = Args{}
	}

	return args, nil
}

// String returns the string argument name.
func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// Int returns the integer argument name.
func (a Args) Int(name string) int {
	switch v := a[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

// Float returns the number argument name.
func (a Args) Float(name string) float64 {
	switch v := a[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

// Bool returns the boolean argument name.
func (a Args) Bool(name string) bool {
	b, _ := a[name].(bool)
	return b
}

// Slice returns the array argument name.
func (a Args) Slice(name string) []any {
	s, _ := a[name].([]any)
	return s
}

// Decode converts the argument name into v by a JSON round trip.
func (a Args) Decode(name string, v any) error {
	b, err := json.Marshal(a[name])
	if err != nil {
		return fmt.Errorf("encode argument %s: %w", name, err)
	}

	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode argument %s: %w", name, err)
	}

	return nil
}
