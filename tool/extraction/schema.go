package extraction

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kaptinlin/jsonschema"

	"github.com/hupe1980/webscout/model"
	"github.com/hupe1980/webscout/tool"
)

// Field is one column of the row schema.
type Field struct {
	Name        string         `json:"name"`
	Type        tool.ParamType `json:"type"`
	Description string         `json:"description,omitempty"`
}

// RowSchema is the explicit, ordered schema every extracted row must match.
// Rows are validated with a compiled JSON schema before they are accepted.
type RowSchema struct {
	fields   []Field
	compiled *jsonschema.Schema
}

// NewRowSchema builds a schema from ordered fields.
func NewRowSchema(fields ...Field) (*RowSchema, error) {
	if len(fields) == 0 {
		return nil, errors.New("row schema needs at least one field")
	}

	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return nil, errors.New("row schema field without name")
		}
		if seen[f.Name] {
			return nil, fmt.Errorf("row schema field %s declared twice", f.Name)
		}
		seen[f.Name] = true

		switch f.Type {
		case tool.TypeString, tool.TypeInteger, tool.TypeNumber, tool.TypeBoolean:
		default:
			return nil, fmt.Errorf("row schema field %s has unsupported type %q", f.Name, f.Type)
		}
	}

	s := &RowSchema{fields: append([]Field(nil), fields...)}

	raw, err := json.Marshal(s.JSONSchema())
	if err != nil {
		return nil, fmt.Errorf("encode row schema: %w", err)
	}

	compiled, err := jsonschema.NewCompiler().Compile(raw)
	if err != nil {
		return nil, fmt.Errorf("compile row schema: %w", err)
	}

	s.compiled = compiled

	return s, nil
}

// ParseRowSchema accepts either the simplified form {"field": "type", ...}
// or a JSON schema with "type": "object" and "properties". Field order
// follows the document.
func ParseRowSchema(data []byte) (*RowSchema, error) {
	keys, values, err := orderedObject(data)
	if err != nil {
		return nil, fmt.Errorf("parse row schema: %w", err)
	}

	if props, ok := values["properties"]; ok && isObjectType(values["type"]) {
		return parseFullSchema(props)
	}

	fields := make([]Field, 0, len(keys))
	for _, k := range keys {
		var typ string
		if err := json.Unmarshal(values[k], &typ); err != nil {
			return nil, fmt.Errorf("parse row schema: field %s: type must be a string", k)
		}
		fields = append(fields, Field{Name: k, Type: tool.ParamType(strings.ToLower(typ))})
	}

	return NewRowSchema(fields...)
}

func isObjectType(raw json.RawMessage) bool {
	var typ string
	return raw != nil && json.Unmarshal(raw, &typ) == nil && typ == "object"
}

// ParseFieldList parses "name:type,price:number"; a missing type means string.
func ParseFieldList(spec string) (*RowSchema, error) {
	var fields []Field

	for _, item := range strings.Split(spec, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		name, typ, found := strings.Cut(item, ":")
		if !found {
			typ = string(tool.TypeString)
		}

		fields = append(fields, Field{Name: strings.TrimSpace(name), Type: tool.ParamType(strings.TrimSpace(typ))})
	}

	return NewRowSchema(fields...)
}

func parseFullSchema(props json.RawMessage) (*RowSchema, error) {
	keys, values, err := orderedObject(props)
	if err != nil {
		return nil, fmt.Errorf("parse row schema properties: %w", err)
	}

	fields := make([]Field, 0, len(keys))
	for _, k := range keys {
		var prop struct {
			Type        string `json:"type"`
			Description string `json:"description"`
		}
		if err := json.Unmarshal(values[k], &prop); err != nil {
			return nil, fmt.Errorf("parse row schema: field %s: %w", k, err)
		}
		fields = append(fields, Field{Name: k, Type: tool.ParamType(prop.Type), Description: prop.Description})
	}

	return NewRowSchema(fields...)
}

// orderedObject decodes a JSON object keeping the key order.
func orderedObject(data []byte) ([]string, map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}

	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, errors.New("expected a JSON object")
	}

	var keys []string
	values := map[string]json.RawMessage{}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}

		key, _ := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, err
		}

		if _, dup := values[key]; !dup {
			keys = append(keys, key)
		}
		values[key] = raw
	}

	return keys, values, nil
}

// Fields returns the ordered fields.
func (s *RowSchema) Fields() []Field { return append([]Field(nil), s.fields...) }

// Names returns the ordered field names.
func (s *RowSchema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// RowParam returns the strict object param describing one row.
func (s *RowSchema) RowParam() tool.Param {
	props := make([]tool.Param, len(s.fields))
	for i, f := range s.fields {
		props[i] = tool.Param{Name: f.Name, Type: f.Type, Description: f.Description}
	}
	return tool.ObjectOf("", "One extracted row", props...)
}

// JSONSchema returns the strict JSON schema of one row.
func (s *RowSchema) JSONSchema() map[string]any {
	return tool.Schema(s.RowParam().Properties)
}

// OutputSchema returns the structured output schema {"rows": [row, ...]}
// used when the extractor answers with text.
func (s *RowSchema) OutputSchema() *model.OutputSchema {
	return &model.OutputSchema{
		Name:   "rows",
		Schema: tool.Schema([]tool.Param{tool.ArrayOf("rows", "Extracted rows", s.RowParam())}),
		Strict: true,
	}
}

// Validate checks one row against the compiled schema.
func (s *RowSchema) Validate(row map[string]any) error {
	result := s.compiled.Validate(row)
	if result.IsValid() {
		return nil
	}

	details, err := json.Marshal(result.ToList())
	if err != nil {
		return errors.New("row does not match schema")
	}

	return fmt.Errorf("row does not match schema: %s", details)
}

// Header returns the column names of the table: the keys of the first row
// in schema order, followed by any keys the schema does not declare.
func (s *RowSchema) Header(first map[string]any) []string {
	header := make([]string, 0, len(first))
	known := make(map[string]bool, len(s.fields))

	for _, f := range s.fields {
		known[f.Name] = true
		if _, ok := first[f.Name]; ok {
			header = append(header, f.Name)
		}
	}

	var extra []string
	for k := range first {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)

	return append(header, extra...)
}
