package core

import "strings"

// RawAnswer is the unprocessed input submitted by the UI layer for the
// current question: free text, selected option ids, or both.
type RawAnswer struct {
	Text      string   `json:"text,omitempty"`
	OptionIDs []string `json:"option_ids,omitempty"`
}

// IsBlank reports whether the answer carries neither text nor a selection.
func (r RawAnswer) IsBlank() bool {
	return strings.TrimSpace(r.Text) == "" && len(r.OptionIDs) == 0
}

// AnswerValue is the normalized final value of a question: the selected
// option id(s) plus any free text, or raw text alone.
type AnswerValue struct {
	Text      string   `json:"text,omitempty"`
	OptionIDs []string `json:"option_ids,omitempty"`
}

// GatheredAnswer is the final normalized value recorded for a single question
// together with the full message trail that produced it, kept for audit.
type GatheredAnswer struct {
	QuestionID string                `json:"question_id"`
	Value      AnswerValue           `json:"value"`
	Trail      []ConversationMessage `json:"trail,omitempty"`
}

// Clone returns a deep copy of the answer.
func (a GatheredAnswer) Clone() GatheredAnswer {
	clone := a
	clone.Value.OptionIDs = append([]string(nil), a.Value.OptionIDs...)
	clone.Trail = append([]ConversationMessage(nil), a.Trail...)
	return clone
}
