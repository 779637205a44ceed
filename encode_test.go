package jsonrpc

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestNumber_SpecialValues(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  string
	}{
		{"positive infinity", math.Inf(1), `"Infinity"`},
		{"negative infinity", math.Inf(-1), `"-Infinity"`},
		{"nan", math.NaN(), `"NaN"`},
		{"plain", 1.5, `1.5`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(Number(tt.value))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("got %s, want %s", data, tt.want)
			}
			var back Number
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.IsNaN(tt.value) {
				if !math.IsNaN(float64(back)) {
					t.Errorf("NaN did not round trip, got %v", back)
				}
				return
			}
			if float64(back) != tt.value {
				t.Errorf("round trip: got %v, want %v", back, tt.value)
			}
		})
	}
}

func TestEncodeDeterministic_SortsMapKeys(t *testing.T) {
	data, err := EncodeDeterministic(map[string]interface{}{"b": 2, "a": 1, "c": 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"a":1,"b":2,"c":3}` {
		t.Errorf("got %s", data)
	}
}

func TestTimestamp_RoundTrip(t *testing.T) {
	now := time.Date(2025, 6, 18, 10, 30, 0, 0, time.UTC)
	data, err := json.Marshal(Timestamp(now))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `"2025-06-18T10:30:00Z"` {
		t.Errorf("got %s", data)
	}
	var back Timestamp
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !back.Time().Equal(now) {
		t.Errorf("round trip: got %v, want %v", back.Time(), now)
	}
}

func TestAsRequestIntId(t *testing.T) {
	if v, ok := AsRequestIntId(int64(7)); !ok || v != 7 {
		t.Errorf("int64: got %v %v", v, ok)
	}
	if v, ok := AsRequestIntId(float64(7)); !ok || v != 7 {
		t.Errorf("float64: got %v %v", v, ok)
	}
	if _, ok := AsRequestIntId("x"); ok {
		t.Errorf("string must not coerce")
	}
}
