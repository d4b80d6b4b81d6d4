package models

import (
	"encoding/json"
	"testing"
)

func TestMoneyJSON(t *testing.T) {
	var payload struct {
		Amount Money `json:"amount"`
	}
	cases := map[string]string{
		`{"amount":"12000"}`:   "12000.00",
		`{"amount":12000.005}`: "12000.01",
		`{"amount":0.1}`:       "0.10",
		`{"amount":null}`:      "0.00",
	}
	for raw, want := range cases {
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			t.Fatalf("%s: unmarshal failed: %v", raw, err)
		}
		if got := payload.Amount.String(); got != want {
			t.Fatalf("%s: want %s got %s", raw, want, got)
		}
	}
	if err := json.Unmarshal([]byte(`{"amount":"ten"}`), &payload); err == nil {
		t.Fatalf("non numeric amount should fail")
	}

	out, err := json.Marshal(map[string]Money{"final": NewMoneyFromInt(55000)})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(out) != `{"final":"55000.00"}` {
		t.Fatalf("unexpected json %s", out)
	}
}

func TestMoneySubFloor(t *testing.T) {
	if got := NewMoneyFromInt(3000).SubFloor(NewMoneyFromInt(5000)); !got.IsZero() {
		t.Fatalf("sub floor should clamp at zero, got %s", got)
	}
	if got := NewMoneyFromInt(60000).SubFloor(NewMoneyFromInt(5000)).Add(NewMoneyFromInt(100)); got.String() != "55100.00" {
		t.Fatalf("unexpected amount %s", got)
	}
}
