package jsonrpc

import "encoding/json"

// SchemaType enumerates the tagged variants a Schema can hold.
type SchemaType string

const (
	SchemaTypeString  SchemaType = "string"
	SchemaTypeNumber  SchemaType = "number"
	SchemaTypeInteger SchemaType = "integer"
	SchemaTypeBoolean SchemaType = "boolean"
	SchemaTypeArray   SchemaType = "array"
	SchemaTypeObject  SchemaType = "object"
	SchemaTypeEnum    SchemaType = "enum"
	SchemaTypeOneOf   SchemaType = "oneOf"
)

// Schema is the recursive tagged union describing tool/resource/prompt
// input and output shapes. It tolerates the loose forms real MCP clients
// emit: a missing "type" inferred from sibling keys, nullable types spelled
// as ["T","null"], additionalProperties as either a bool or a nested
// schema, and "anyOf" treated as an alias of "oneOf".
type Schema struct {
	Type     SchemaType `json:"type,omitempty"`
	Nullable bool       `json:"-"`

	// string
	Format    string `json:"format,omitempty"`
	MinLength *int   `json:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`

	// number / integer
	Minimum *float64 `json:"minimum,omitempty"`
	Maximum *float64 `json:"maximum,omitempty"`

	// array
	Items *Schema `json:"items,omitempty"`

	// object
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties *Schema            `json:"additionalProperties,omitempty"`

	// enum
	EnumValues []interface{} `json:"enum,omitempty"`
	EnumNames  []string      `json:"enumNames,omitempty"`

	// oneOf / anyOf
	OneOf []*Schema `json:"oneOf,omitempty"`

	// Default is carried as an opaque encoded value rather than decoded
	// into a native Go type, since its shape depends on Type.
	Default json.RawMessage `json:"default,omitempty"`

	Description string `json:"description,omitempty"`
}

// additionalPropertiesTrue is the sentinel Schema representing a bare
// `"additionalProperties": true`, coerced from a JSON boolean.
var additionalPropertiesTrue = &Schema{Type: SchemaTypeBoolean}

// UnmarshalJSON decodes the loose, real-world shapes tolerated by spec:
// absent "type" inferred from sibling keys, nullable arrays, boolean or
// schema "additionalProperties", and "anyOf" as an alias for "oneOf".
func (s *Schema) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type                 json.RawMessage    `json:"type"`
		Format               string             `json:"format"`
		MinLength            *int               `json:"minLength"`
		MaxLength            *int               `json:"maxLength"`
		Minimum              *float64           `json:"minimum"`
		Maximum              *float64           `json:"maximum"`
		Items                *Schema            `json:"items"`
		Properties           map[string]*Schema `json:"properties"`
		Required             []string           `json:"required"`
		AdditionalProperties json.RawMessage    `json:"additionalProperties"`
		Enum                 []interface{}      `json:"enum"`
		EnumNames            []string           `json:"enumNames"`
		OneOf                []*Schema          `json:"oneOf"`
		AnyOf                []*Schema          `json:"anyOf"`
		Default              json.RawMessage    `json:"default"`
		Description          string             `json:"description"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.Format = raw.Format
	s.MinLength = raw.MinLength
	s.MaxLength = raw.MaxLength
	s.Minimum = raw.Minimum
	s.Maximum = raw.Maximum
	s.Items = raw.Items
	s.Properties = raw.Properties
	s.Required = raw.Required
	s.EnumValues = raw.Enum
	s.EnumNames = raw.EnumNames
	s.Default = raw.Default
	s.Description = raw.Description

	s.OneOf = raw.OneOf
	if len(raw.AnyOf) > 0 {
		s.OneOf = raw.AnyOf
	}

	if len(raw.AdditionalProperties) > 0 {
		var asBool bool
		if err := json.Unmarshal(raw.AdditionalProperties, &asBool); err == nil {
			if asBool {
				s.AdditionalProperties = additionalPropertiesTrue
			}
		} else {
			nested := &Schema{}
			if err := json.Unmarshal(raw.AdditionalProperties, nested); err != nil {
				return err
			}
			s.AdditionalProperties = nested
		}
	}

	s.Type, s.Nullable = decodeSchemaType(raw.Type)
	if s.Type == "" {
		s.Type = inferSchemaType(s)
	}
	return nil
}

// decodeSchemaType decodes a "type" field that may be a bare string or a
// ["T","null"] nullable pair.
func decodeSchemaType(raw json.RawMessage) (SchemaType, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return SchemaType(single), false
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		nullable := false
		var primary SchemaType
		for _, t := range list {
			if t == "null" {
				nullable = true
				continue
			}
			primary = SchemaType(t)
		}
		return primary, nullable
	}
	return "", false
}

// inferSchemaType infers a Schema's type from sibling keys when "type" is
// absent, tolerating the loose schemas real clients emit.
func inferSchemaType(s *Schema) SchemaType {
	switch {
	case len(s.OneOf) > 0:
		return SchemaTypeOneOf
	case len(s.EnumValues) > 0:
		return SchemaTypeEnum
	case s.Properties != nil || s.AdditionalProperties != nil:
		return SchemaTypeObject
	case s.Items != nil:
		return SchemaTypeArray
	case s.MinLength != nil || s.MaxLength != nil || s.Format != "":
		return SchemaTypeString
	case s.Minimum != nil || s.Maximum != nil:
		return SchemaTypeNumber
	default:
		return SchemaTypeString
	}
}

// MarshalJSON re-serializes the nullable flag back into ["T","null"] form
// when set, otherwise emits a plain string type.
func (s *Schema) MarshalJSON() ([]byte, error) {
	type alias Schema
	aux := struct {
		Type interface{} `json:"type,omitempty"`
		*alias
	}{alias: (*alias)(s)}
	if s.Nullable && s.Type != "" {
		aux.Type = []string{string(s.Type), "null"}
	} else if s.Type != "" {
		aux.Type = string(s.Type)
	}
	return json.Marshal(aux)
}
