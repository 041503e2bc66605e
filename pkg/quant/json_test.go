package quant

import (
	"encoding/json"
	"testing"
)

func TestPriceMicrosJSONRoundTrip(t *testing.T) {
	type wrapper struct {
		Price PriceMicros `json:"price"`
	}

	in := wrapper{Price: 2_500_500_000}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `{"price":2500.5}` {
		t.Errorf("Marshal() = %s, want rupee decimal", data)
	}

	var out wrapper
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if out.Price != in.Price {
		t.Errorf("round trip = %d, want %d", out.Price, in.Price)
	}
}

func TestPriceMicrosUnmarshalString(t *testing.T) {
	var p PriceMicros
	if err := json.Unmarshal([]byte(`"2499.95"`), &p); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if p != 2_499_950_000 {
		t.Errorf("parsed = %d, want 2499950000", p)
	}
}

func TestPriceMicrosUnmarshalInvalid(t *testing.T) {
	var p PriceMicros
	if err := json.Unmarshal([]byte(`"2.5.0"`), &p); err == nil {
		t.Error("Unmarshal() accepted a malformed decimal")
	}
}
