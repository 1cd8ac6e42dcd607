package core

import (
	"fmt"
	"sync"
	"time"
)

// Status enumerates the lifecycle of an AgentSession.
type Status string

const (
	// StatusNotStarted is the initial state; no messages yet.
	StatusNotStarted Status = "not_started"
	// StatusInProgress means the current question has a pending user answer
	// to process.
	StatusInProgress Status = "in_progress"
	// StatusAwaitingFollowUp means an assistant follow-up was emitted and the
	// session is waiting on the next user message.
	StatusAwaitingFollowUp Status = "awaiting_follow_up"
	// StatusCompleted means every question has a gathered answer.
	StatusCompleted Status = "completed"
	// StatusSubmitted is terminal; reached only from StatusCompleted.
	StatusSubmitted Status = "submitted"
)

// Terminal reports whether no further mutation of the message trail or the
// answer set is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusSubmitted
}

// transitions encodes the legal state machine:
// NotStarted → InProgress → (AwaitingFollowUp ⇄ InProgress)* → Completed → Submitted.
var transitions = map[Status][]Status{
	StatusNotStarted:       {StatusInProgress},
	StatusInProgress:       {StatusInProgress, StatusAwaitingFollowUp, StatusCompleted},
	StatusAwaitingFollowUp: {StatusInProgress, StatusCompleted},
	StatusCompleted:        {StatusSubmitted},
	StatusSubmitted:        {},
}

// AgentSession is the mutable state of one conversation instance. It is owned
// exclusively by a SessionStore for its lifetime; callers receive clones and
// hold only the session id as a lookup key. Safe for concurrent access,
// though per-session calls are expected to be sequential (one ProcessAnswer
// in flight at a time).
type AgentSession struct {
	ID      string         `json:"id"`
	Form    FormDefinition `json:"form"`
	Current int            `json:"current"`
	Status  Status         `json:"status"`

	// Trail is the append-only conversation history across all questions.
	Trail []ConversationMessage `json:"trail"`
	// TrailMark indexes Trail at the first message of the current question.
	TrailMark int `json:"trail_mark"`

	Answers   map[string]GatheredAnswer `json:"answers"`
	FollowUps map[string]int            `json:"follow_ups"`

	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`

	mu sync.RWMutex
}

// NewAgentSession creates a session pinned to a snapshot of the given form.
// Pinning keeps an in-flight conversation stable across catalog hot-reloads.
func NewAgentSession(form FormDefinition) *AgentSession {
	now := time.Now().UTC()
	return &AgentSession{
		ID:        NewID(),
		Form:      form.Clone(),
		Status:    StatusNotStarted,
		Answers:   make(map[string]GatheredAnswer),
		FollowUps: make(map[string]int),
		Created:   now,
		Updated:   now,
	}
}

// CurrentQuestion returns the question the session is collecting an answer for.
func (s *AgentSession) CurrentQuestion() QuestionWithContext {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Form.Questions[s.Current]
}

// FollowUpCount returns how many follow-ups were generated for a question.
func (s *AgentSession) FollowUpCount(questionID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.FollowUps[questionID]
}

// AppendMessage appends to the trail. Fails with ErrInvalidState once the
// session is completed or submitted.
func (s *AgentSession) AppendMessage(msg ConversationMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Status.Terminal() {
		return fmt.Errorf("%w: cannot append message in status %q", ErrInvalidState, s.Status)
	}
	s.Trail = append(s.Trail, msg)
	s.Updated = time.Now().UTC()
	return nil
}

// RecordAnswer upserts the gathered answer for its question id. Re-answering
// a question before form completion overwrites the prior answer; any write
// after completion fails with ErrInvalidState.
func (s *AgentSession) RecordAnswer(ans GatheredAnswer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Status.Terminal() {
		return fmt.Errorf("%w: cannot record answer in status %q", ErrInvalidState, s.Status)
	}
	s.Answers[ans.QuestionID] = ans.Clone()
	s.Updated = time.Now().UTC()
	return nil
}

// SetStatus performs a validated state transition. Transitioning to the
// current status is a no-op.
func (s *AgentSession) SetStatus(next Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setStatusLocked(next)
}

func (s *AgentSession) setStatusLocked(next Status) error {
	if next == s.Status {
		return nil
	}
	for _, allowed := range transitions[s.Status] {
		if allowed == next {
			s.Status = next
			s.Updated = time.Now().UTC()
			return nil
		}
	}
	return fmt.Errorf("%w: cannot transition from %q to %q", ErrInvalidState, s.Status, next)
}

// Advance moves the current-question pointer forward, marks the start of the
// next question's exchange and puts the session back in progress. Fails with
// ErrOutOfRange when already at the last question.
func (s *AgentSession) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Status.Terminal() {
		return fmt.Errorf("%w: cannot advance in status %q", ErrInvalidState, s.Status)
	}
	if s.Current >= len(s.Form.Questions)-1 {
		return fmt.Errorf("%w: already at question %d of %d", ErrOutOfRange, s.Current+1, len(s.Form.Questions))
	}
	s.Current++
	s.TrailMark = len(s.Trail)
	if err := s.setStatusLocked(StatusInProgress); err != nil {
		return err
	}
	s.Updated = time.Now().UTC()
	return nil
}

// BumpFollowUp increments the follow-up counter for a question and returns
// the new count.
func (s *AgentSession) BumpFollowUp(questionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FollowUps[questionID]++
	s.Updated = time.Now().UTC()
	return s.FollowUps[questionID]
}

// MarkSubmitted performs the terminal transition from StatusCompleted.
// Calling it on an already submitted session is a no-op, not an error.
func (s *AgentSession) MarkSubmitted() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Status == StatusSubmitted {
		return nil
	}
	return s.setStatusLocked(StatusSubmitted)
}

// CurrentTrail returns a copy of the trail segment belonging to the current
// question's exchange.
func (s *AgentSession) CurrentTrail() []ConversationMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	trail := make([]ConversationMessage, len(s.Trail)-s.TrailMark)
	copy(trail, s.Trail[s.TrailMark:])
	return trail
}

// Clone returns a deep copy of the session safe for read-only inspection by
// the UI layer.
func (s *AgentSession) Clone() *AgentSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := &AgentSession{
		ID:        s.ID,
		Form:      s.Form.Clone(),
		Current:   s.Current,
		Status:    s.Status,
		Trail:     make([]ConversationMessage, len(s.Trail)),
		TrailMark: s.TrailMark,
		Answers:   make(map[string]GatheredAnswer, len(s.Answers)),
		FollowUps: make(map[string]int, len(s.FollowUps)),
		Created:   s.Created,
		Updated:   s.Updated,
	}
	copy(clone.Trail, s.Trail)
	for k, v := range s.Answers {
		clone.Answers[k] = v.Clone()
	}
	for k, v := range s.FollowUps {
		clone.FollowUps[k] = v
	}
	return clone
}

// SessionStore owns AgentSessions for the duration of a page visit. All
// operations are synchronous and in-memory; implementations serialize access
// per session id but need no cross-session locking.
type SessionStore interface {
	// Create initializes a session for the given form, failing with
	// ErrFormNotFound if the catalog lacks it.
	Create(formID string) (*AgentSession, error)

	// Get returns a defensive copy of the session or ErrSessionNotFound.
	Get(sessionID string) (*AgentSession, error)

	// AppendMessage appends to a session's trail.
	AppendMessage(sessionID string, msg ConversationMessage) error

	// RecordAnswer upserts a gathered answer by question id.
	RecordAnswer(sessionID string, ans GatheredAnswer) error

	// Advance moves the current-question pointer forward.
	Advance(sessionID string) error

	// SetStatus performs a validated status transition.
	SetStatus(sessionID string, next Status) error

	// BumpFollowUp increments a question's follow-up counter.
	BumpFollowUp(sessionID, questionID string) (int, error)

	// MarkSubmitted performs the idempotent terminal transition.
	MarkSubmitted(sessionID string) error
}
