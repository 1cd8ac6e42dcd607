package feedback

import (
	"fmt"
	"sync"

	"github.com/presentable/feedback/core"
)

// SlideState is the simplified non-AI variant of a session: a flat record of
// selections for a fixed, small set of questions plus a submitted flag. It is
// owned by the page-scoped Provider, so it survives navigation between slides
// and is destroyed with the page. Reset is an explicit caller action, never
// implicit.
type SlideState struct {
	mu         sync.RWMutex
	selections map[string]core.AnswerValue
	submitted  bool
}

// NewSlideState creates an empty record.
func NewSlideState() *SlideState {
	return &SlideState{selections: make(map[string]core.AnswerValue)}
}

// Select records the value for a question, overwriting any prior value.
// Fails with core.ErrInvalidState after the record was submitted.
func (s *SlideState) Select(questionID string, value core.AnswerValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitted {
		return fmt.Errorf("%w: feedback already submitted", core.ErrInvalidState)
	}
	s.selections[questionID] = value
	return nil
}

// Selection returns the recorded value for a question, if any.
func (s *SlideState) Selection(questionID string) (core.AnswerValue, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.selections[questionID]
	return v, ok
}

// Selections returns a copy of all recorded values.
func (s *SlideState) Selections() map[string]core.AnswerValue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]core.AnswerValue, len(s.selections))
	for k, v := range s.selections {
		out[k] = v
	}
	return out
}

// MarkSubmitted freezes the record. Idempotent.
func (s *SlideState) MarkSubmitted() {
	s.mu.Lock()
	s.submitted = true
	s.mu.Unlock()
}

// IsSubmitted reports whether the record was submitted.
func (s *SlideState) IsSubmitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.submitted
}

// Reset clears all selections and the submitted flag.
func (s *SlideState) Reset() {
	s.mu.Lock()
	s.selections = make(map[string]core.AnswerValue)
	s.submitted = false
	s.mu.Unlock()
}
