package jsonrpc

import (
	"encoding/json"
	"testing"
)

func TestSchema_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantType SchemaType
		check    func(t *testing.T, s *Schema)
	}{
		{
			name:     "explicit string type",
			input:    `{"type":"string","format":"uri","minLength":1}`,
			wantType: SchemaTypeString,
			check: func(t *testing.T, s *Schema) {
				if s.Format != "uri" {
					t.Errorf("Format: got %q", s.Format)
				}
			},
		},
		{
			name:     "type inferred from properties",
			input:    `{"properties":{"a":{"type":"integer"}},"required":["a"]}`,
			wantType: SchemaTypeObject,
			check: func(t *testing.T, s *Schema) {
				if len(s.Properties) != 1 || len(s.Required) != 1 {
					t.Errorf("Properties/Required: got %+v", s)
				}
			},
		},
		{
			name:     "type inferred from items",
			input:    `{"items":{"type":"string"}}`,
			wantType: SchemaTypeArray,
		},
		{
			name:     "type inferred from enum",
			input:    `{"enum":["a","b"]}`,
			wantType: SchemaTypeEnum,
		},
		{
			name:     "nullable pair",
			input:    `{"type":["integer","null"]}`,
			wantType: SchemaTypeInteger,
			check: func(t *testing.T, s *Schema) {
				if !s.Nullable {
					t.Errorf("expected Nullable")
				}
			},
		},
		{
			name:     "anyOf treated as oneOf",
			input:    `{"anyOf":[{"type":"string"},{"type":"number"}]}`,
			wantType: SchemaTypeOneOf,
			check: func(t *testing.T, s *Schema) {
				if len(s.OneOf) != 2 {
					t.Errorf("OneOf: got %d entries", len(s.OneOf))
				}
			},
		},
		{
			name:     "additionalProperties boolean coerced",
			input:    `{"type":"object","additionalProperties":true}`,
			wantType: SchemaTypeObject,
			check: func(t *testing.T, s *Schema) {
				if s.AdditionalProperties == nil {
					t.Errorf("expected AdditionalProperties to be coerced")
				}
			},
		},
		{
			name:     "additionalProperties false dropped",
			input:    `{"type":"object","additionalProperties":false}`,
			wantType: SchemaTypeObject,
			check: func(t *testing.T, s *Schema) {
				if s.AdditionalProperties != nil {
					t.Errorf("expected false AdditionalProperties to stay nil")
				}
			},
		},
		{
			name:     "additionalProperties as schema",
			input:    `{"type":"object","additionalProperties":{"type":"string"}}`,
			wantType: SchemaTypeObject,
			check: func(t *testing.T, s *Schema) {
				if s.AdditionalProperties == nil || s.AdditionalProperties.Type != SchemaTypeString {
					t.Errorf("AdditionalProperties: got %+v", s.AdditionalProperties)
				}
			},
		},
		{
			name:     "default carried opaque",
			input:    `{"type":"integer","default":42}`,
			wantType: SchemaTypeInteger,
			check: func(t *testing.T, s *Schema) {
				if string(s.Default) != "42" {
					t.Errorf("Default: got %s", s.Default)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Schema{}
			if err := json.Unmarshal([]byte(tt.input), s); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s.Type != tt.wantType {
				t.Errorf("Type: got %q, want %q", s.Type, tt.wantType)
			}
			if tt.check != nil {
				tt.check(t, s)
			}
		})
	}
}

func TestSchema_MarshalNullable(t *testing.T) {
	s := &Schema{Type: SchemaTypeString, Nullable: true}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	list, ok := decoded["type"].([]interface{})
	if !ok || len(list) != 2 || list[1] != "null" {
		t.Errorf("expected nullable pair, got %v", decoded["type"])
	}
}

func TestSchema_RoundTrip(t *testing.T) {
	input := `{"type":"object","properties":{"name":{"type":"string","default":"anon"}},"required":["name"]}`
	s := &Schema{}
	if err := json.Unmarshal([]byte(input), s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	again := &Schema{}
	if err := json.Unmarshal(data, again); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Type != SchemaTypeObject || again.Properties["name"].Type != SchemaTypeString {
		t.Errorf("round trip lost structure: %+v", again)
	}
	if string(again.Properties["name"].Default) != `"anon"` {
		t.Errorf("round trip lost default: %s", again.Properties["name"].Default)
	}
}
