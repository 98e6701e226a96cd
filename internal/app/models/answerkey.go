package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// KeyEntry is the answer key for one question: the correct choice letter and
// an optional per-question mark overriding the exam-wide mark.
type KeyEntry struct {
	Choice string `json:"answer"`
	Mark   int    `json:"mark,omitempty"`
}

// UnmarshalJSON accepts both key shapes found in stored papers: the bare
// legacy form `"A"` and the tagged form `{"answer":"A","mark":2}`. Both
// normalize into KeyEntry here, at the boundary, so nothing downstream has
// to branch on shape.
func (k *KeyEntry) UnmarshalJSON(data []byte) error {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		k.Choice = strings.ToUpper(strings.TrimSpace(bare))
		k.Mark = 0
		return nil
	}

	type tagged KeyEntry
	var t tagged
	if err := json.Unmarshal(data, &t); err != nil {
		return fmt.Errorf("invalid answer key entry: %w", err)
	}
	k.Choice = strings.ToUpper(strings.TrimSpace(t.Choice))
	k.Mark = t.Mark
	return nil
}

// AnswerKey maps question numbers to their key entries. Stored as JSONB on
// the exam row; nil means no key has been set yet.
type AnswerKey map[int]KeyEntry
