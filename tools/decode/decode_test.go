package decode

import "testing"

type sendPayload struct {
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
	TempID     string `json:"tempId"`
}

func TestStruct(t *testing.T) {
	in := map[string]any{
		"receiverId": "bob",
		"content":    "hi",
		"tempId":     "t1",
	}
	out, err := Struct[sendPayload](in)
	if err != nil {
		t.Fatalf("Struct: %v", err)
	}
	if out.ReceiverID != "bob" || out.Content != "hi" || out.TempID != "t1" {
		t.Fatalf("decoded %+v", out)
	}
}

func TestStructWeakTyping(t *testing.T) {
	type payload struct {
		Count int  `json:"count"`
		Flag  bool `json:"flag"`
	}
	// JSON numbers arrive as float64, flags sometimes as strings.
	out, err := Struct[payload](map[string]any{"count": float64(3), "flag": "true"})
	if err != nil {
		t.Fatalf("Struct: %v", err)
	}
	if out.Count != 3 || !out.Flag {
		t.Fatalf("decoded %+v", out)
	}
}

func TestStructIgnoresUnknownFields(t *testing.T) {
	out, err := Struct[sendPayload](map[string]any{
		"receiverId": "bob",
		"content":    "hi",
		"extra":      "ignored",
	})
	if err != nil {
		t.Fatalf("Struct: %v", err)
	}
	if out.ReceiverID != "bob" {
		t.Fatalf("decoded %+v", out)
	}
}

func TestStructNilPayload(t *testing.T) {
	if _, err := Struct[sendPayload](nil); err == nil {
		t.Fatal("nil payload decoded")
	}
}
