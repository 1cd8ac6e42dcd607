package session

import (
	"fmt"
	"sync"

	"github.com/presentable/feedback/core"
)

// InMemoryStore is a volatile core.SessionStore keeping sessions in a process
// local map. Sessions carry their own lock, so the store map is only guarded
// for lookup and insertion; no two writers touch the same AgentSession
// concurrently and different sessions proceed independently. Get returns a
// clone to prevent external mutation of internal state.
type InMemoryStore struct {
	mu       sync.RWMutex
	catalog  core.Catalog
	sessions map[string]*core.AgentSession
}

// NewInMemoryStore constructs an empty store resolving forms from the given catalog.
func NewInMemoryStore(catalog core.Catalog) *InMemoryStore {
	return &InMemoryStore{catalog: catalog, sessions: make(map[string]*core.AgentSession)}
}

// Create initializes a session for the form, failing with core.ErrFormNotFound
// if the catalog lacks it. The returned session is a clone; the store keeps
// ownership of the live instance.
func (s *InMemoryStore) Create(formID string) (*core.AgentSession, error) {
	form, err := s.catalog.Get(formID)
	if err != nil {
		return nil, err
	}
	sess := core.NewAgentSession(form)
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess.Clone(), nil
}

// Get returns a clone of the session or core.ErrSessionNotFound.
func (s *InMemoryStore) Get(sessionID string) (*core.AgentSession, error) {
	sess, err := s.live(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Clone(), nil
}

// AppendMessage appends to a session's trail.
func (s *InMemoryStore) AppendMessage(sessionID string, msg core.ConversationMessage) error {
	sess, err := s.live(sessionID)
	if err != nil {
		return err
	}
	return sess.AppendMessage(msg)
}

// RecordAnswer upserts a gathered answer by question id.
func (s *InMemoryStore) RecordAnswer(sessionID string, ans core.GatheredAnswer) error {
	sess, err := s.live(sessionID)
	if err != nil {
		return err
	}
	return sess.RecordAnswer(ans)
}

// Advance moves the current-question pointer forward.
func (s *InMemoryStore) Advance(sessionID string) error {
	sess, err := s.live(sessionID)
	if err != nil {
		return err
	}
	return sess.Advance()
}

// SetStatus performs a validated status transition.
func (s *InMemoryStore) SetStatus(sessionID string, next core.Status) error {
	sess, err := s.live(sessionID)
	if err != nil {
		return err
	}
	return sess.SetStatus(next)
}

// BumpFollowUp increments a question's follow-up counter.
func (s *InMemoryStore) BumpFollowUp(sessionID, questionID string) (int, error) {
	sess, err := s.live(sessionID)
	if err != nil {
		return 0, err
	}
	return sess.BumpFollowUp(questionID), nil
}

// MarkSubmitted performs the idempotent terminal transition.
func (s *InMemoryStore) MarkSubmitted(sessionID string) error {
	sess, err := s.live(sessionID)
	if err != nil {
		return err
	}
	return sess.MarkSubmitted()
}

// live returns the store-owned session instance.
func (s *InMemoryStore) live(sessionID string) (*core.AgentSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrSessionNotFound, sessionID)
	}
	return sess, nil
}
