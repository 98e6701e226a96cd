package models

import (
	"encoding/json"
	"testing"
)

func TestKeyEntryUnmarshalBareShape(t *testing.T) {
	var key AnswerKey
	if err := json.Unmarshal([]byte(`{"1":"a","2":" B "}`), &key); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key[1].Choice != "A" || key[1].Mark != 0 {
		t.Fatalf("bare entry not normalized: %+v", key[1])
	}
	if key[2].Choice != "B" {
		t.Fatalf("whitespace should be trimmed: %+v", key[2])
	}
}

func TestKeyEntryUnmarshalTaggedShape(t *testing.T) {
	var key AnswerKey
	if err := json.Unmarshal([]byte(`{"1":{"answer":"c","mark":3}}`), &key); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key[1].Choice != "C" || key[1].Mark != 3 {
		t.Fatalf("tagged entry not parsed: %+v", key[1])
	}
}

func TestKeyEntryUnmarshalMixedShapes(t *testing.T) {
	var key AnswerKey
	if err := json.Unmarshal([]byte(`{"1":"A","2":{"answer":"B","mark":2}}`), &key); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key[1] != (KeyEntry{Choice: "A"}) || key[2] != (KeyEntry{Choice: "B", Mark: 2}) {
		t.Fatalf("mixed key not parsed: %+v", key)
	}
}

func TestKeyEntryUnmarshalRejectsGarbage(t *testing.T) {
	var key AnswerKey
	if err := json.Unmarshal([]byte(`{"1":[1,2]}`), &key); err == nil {
		t.Fatal("expected an error for a non-string, non-object entry")
	}
}
