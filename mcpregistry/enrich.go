package mcpregistry

import (
	"encoding/json"
	"github.com/viant/mcprt"
	"strconv"
)

// EnrichArguments fills defaults declared by meta.InputSchema and coerces
// string-typed values into their declared native type (integer/number/
// boolean) before rejecting. A required property with neither a supplied
// value nor a default fails with MissingRequiredParameterError. Running
// EnrichArguments again on its own output is a no-op: every property it
// touches is already present and of its native type on the second pass.
func EnrichArguments(meta *Meta, args map[string]interface{}) (map[string]interface{}, error) {
	if meta == nil || meta.InputSchema == nil {
		return args, nil
	}
	return enrichObject(meta.InputSchema, args)
}

func enrichObject(schema *jsonrpc.Schema, args map[string]interface{}) (map[string]interface{}, error) {
	ret := make(map[string]interface{}, len(args))
	for k, v := range args {
		ret[k] = v
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	for name, propSchema := range schema.Properties {
		value, present := ret[name]
		if !present {
			if def, ok := decodeDefault(propSchema); ok {
				ret[name] = def
				continue
			}
			if required[name] {
				return nil, NewMissingRequiredParameter(name)
			}
			continue
		}
		coerced, err := coerce(name, propSchema, value)
		if err != nil {
			return nil, err
		}
		ret[name] = coerced
	}

	for name := range required {
		if _, ok := ret[name]; !ok {
			if _, hasSchema := schema.Properties[name]; !hasSchema {
				return nil, NewMissingRequiredParameter(name)
			}
		}
	}

	return ret, nil
}

func decodeDefault(schema *jsonrpc.Schema) (interface{}, bool) {
	if schema == nil || len(schema.Default) == 0 {
		return nil, false
	}
	var v interface{}
	if err := json.Unmarshal(schema.Default, &v); err != nil {
		return nil, false
	}
	return v, true
}

// coerce attempts a string->native conversion for integer/number/boolean
// schemas before giving up; any other mismatch is passed through
// unchanged to the tool provider, which sees the value as decoded.
func coerce(name string, schema *jsonrpc.Schema, value interface{}) (interface{}, error) {
	if schema == nil {
		return value, nil
	}
	str, isString := value.(string)
	if !isString {
		return value, nil
	}
	switch schema.Type {
	case jsonrpc.SchemaTypeInteger:
		n, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return nil, &InvalidArgumentTypeError{Name: name, Expected: "integer", Actual: "string"}
		}
		return n, nil
	case jsonrpc.SchemaTypeNumber:
		n, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return nil, &InvalidArgumentTypeError{Name: name, Expected: "number", Actual: "string"}
		}
		return n, nil
	case jsonrpc.SchemaTypeBoolean:
		b, err := strconv.ParseBool(str)
		if err != nil {
			return nil, &InvalidArgumentTypeError{Name: name, Expected: "boolean", Actual: "string"}
		}
		return b, nil
	default:
		return value, nil
	}
}
