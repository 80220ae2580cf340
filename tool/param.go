package tool

// ParamType is the JSON schema type of a parameter.
type ParamType string

// Supported parameter types.
const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeArray   ParamType = "array"
	TypeObject  ParamType = "object"
)

// Param declares one tool parameter. Every declared parameter is required;
// optional inputs are modelled by the caller passing a neutral value (for
// example 0 or an empty string).
type Param struct {
	Name        string
	Type        ParamType
	Description string
	// Enum restricts a string parameter to the listed values.
	Enum []string
	// Items describes the elements of an array parameter.
	Items *Param
	// Properties describes the fields of an object parameter.
	Properties []Param
}

// String is a shorthand for a string parameter.
func String(name, description string) Param {
	return Param{Name: name, Type: TypeString, Description: description}
}

// Integer is a shorthand for an integer parameter.
func Integer(name, description string) Param {
	return Param{Name: name, Type: TypeInteger, Description: description}
}

// Boolean is a shorthand for a boolean parameter.
func Boolean(name, description string) Param {
	return Param{Name: name, Type: TypeBoolean, Description: description}
}

// ArrayOf is a shorthand for an array parameter whose elements follow items.
func ArrayOf(name, description string, items Param) Param {
	return Param{Name: name, Type: TypeArray, Description: description, Items: &items}
}

// ObjectOf is a shorthand for an object parameter with the given fields.
func ObjectOf(name, description string, props ...Param) Param {
	return Param{Name: name, Type: TypeObject, Description: description, Properties: props}
}

// Schema derives the strict JSON schema of an object built from params:
// additionalProperties is false and every property is required.
func Schema(params []Param) map[string]any {
	properties := make(map[string]any, len(params))
	required := make([]string, 0, len(params))

	for _, p := range params {
		properties[p.Name] = p.schema()
		required = append(required, p.Name)
	}

	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}

func (p Param) schema() map[string]any {
	var s map[string]any

	switch p.Type {
	case TypeObject:
		s = Schema(p.Properties)
	case TypeArray:
		s = map[string]any{"type": string(TypeArray)}
		if p.Items != nil {
			s["items"] = p.Items.schema()
		}
	default:
		s = map[string]any{"type": string(p.Type)}
	}

	if p.Description != "" {
		s["description"] = p.Description
	}

	if len(p.Enum) > 0 {
		s["enum"] = append([]string(nil), p.Enum...)
	}

	return s
}
