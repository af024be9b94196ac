package queue

import (
	"encoding/json"
	"testing"
)

type scorePayload struct {
	InsightID string  `json:"insight_id"`
	Score     float64 `json:"score"`
}

func TestParsePayloadForms(t *testing.T) {
	want := scorePayload{InsightID: "ins-1", Score: 0.75}

	t.Run("pointer", func(t *testing.T) {
		got, err := ParsePayload[scorePayload](&want)
		if err != nil {
			t.Fatalf("ParsePayload: %v", err)
		}
		if *got != want {
			t.Errorf("got %+v, want %+v", *got, want)
		}
	})

	t.Run("value", func(t *testing.T) {
		got, err := ParsePayload[scorePayload](want)
		if err != nil {
			t.Fatalf("ParsePayload: %v", err)
		}
		if *got != want {
			t.Errorf("got %+v, want %+v", *got, want)
		}
	})

	t.Run("map", func(t *testing.T) {
		m := map[string]interface{}{"insight_id": "ins-1", "score": 0.75}
		got, err := ParsePayload[scorePayload](m)
		if err != nil {
			t.Fatalf("ParsePayload: %v", err)
		}
		if *got != want {
			t.Errorf("got %+v, want %+v", *got, want)
		}
	})

	t.Run("raw json", func(t *testing.T) {
		raw := json.RawMessage(`{"insight_id":"ins-1","score":0.75}`)
		got, err := ParsePayload[scorePayload](raw)
		if err != nil {
			t.Fatalf("ParsePayload: %v", err)
		}
		if *got != want {
			t.Errorf("got %+v, want %+v", *got, want)
		}
	})
}

func TestParsePayloadRejectsUnknownType(t *testing.T) {
	if _, err := ParsePayload[scorePayload](42); err == nil {
		t.Fatal("expected error for int payload")
	}
}

func TestParsePayloadRejectsBadJSON(t *testing.T) {
	raw := json.RawMessage(`{"insight_id":`)
	if _, err := ParsePayload[scorePayload](raw); err == nil {
		t.Fatal("expected error for truncated json")
	}
}
