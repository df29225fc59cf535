package llm

import "testing"

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"bare object", `{"score": 0.5}`, `{"score": 0.5}`, true},
		{"leading prose", `Here is my analysis: {"score": -0.2} hope it helps`, `{"score": -0.2}`, true},
		{"markdown fence", "```json\n{\"score\": 1}\n```", `{"score": 1}`, true},
		{"nested object", `x {"a": {"b": 1}, "c": 2} y`, `{"a": {"b": 1}, "c": 2}`, true},
		{"brace inside string", `{"reasoning": "risk } high", "score": 0}`, `{"reasoning": "risk } high", "score": 0}`, true},
		{"escaped quote in string", `{"a": "he said \"}\"", "b": 1}`, `{"a": "he said \"}\"", "b": 1}`, true},
		{"first of two objects", `{"a": 1} {"b": 2}`, `{"a": 1}`, true},
		{"no object", "the model refused to answer", "", false},
		{"unterminated", `{"a": 1`, "", false},
		{"empty", "", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractJSON(tc.raw)
			if ok != tc.ok {
				t.Fatalf("ok: want %v, got %v", tc.ok, ok)
			}
			if got != tc.want {
				t.Fatalf("want %q, got %q", tc.want, got)
			}
		})
	}
}

func TestDecodeReply(t *testing.T) {
	var payload struct {
		Score     float64 `json:"score"`
		Reasoning string  `json:"reasoning"`
	}

	raw := "Sure! Here you go:\n```json\n{\"score\": 0.7, \"reasoning\": \"strong momentum\"}\n```"
	if err := DecodeReply(raw, &payload); err != nil {
		t.Fatalf("DecodeReply: %v", err)
	}
	if payload.Score != 0.7 || payload.Reasoning != "strong momentum" {
		t.Fatalf("unexpected payload: %+v", payload)
	}

	if err := DecodeReply("no json here", &payload); err == nil {
		t.Fatal("expected error for reply without JSON")
	}
	if err := DecodeReply(`{"score": "not-a-number"}`, &payload); err == nil {
		t.Fatal("expected error for type mismatch")
	}
}
