package jsonrpc

import (
	"encoding/json"
	"fmt"
)

// decodeID decodes a raw "id" field into a RequestId, preserving integer
// precision (the default json.Unmarshal into interface{} would otherwise
// widen every number to float64 and silently lose exactness for large ids).
func decodeID(raw json.RawMessage) (RequestId, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString, nil
	}
	var asNumber json.Number
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		if i, err := asNumber.Int64(); err == nil {
			return i, nil
		}
		f, err := asNumber.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", raw, err)
		}
		return f, nil
	}
	return nil, fmt.Errorf("invalid id %q: must be a string or a number", raw)
}

// AsRequestIntId attempts to coerce a RequestId into an int64, as used by
// transports that need a numeric correlation key (e.g. the stdio session's
// RequestIdSeq counter, or round-trip matching tables keyed by integer id).
func AsRequestIntId(id RequestId) (int64, bool) {
	switch actual := id.(type) {
	case int64:
		return actual, true
	case int:
		return int64(actual), true
	case float64:
		return int64(actual), true
	case json.Number:
		i, err := actual.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}
