package session

import (
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/presentable/feedback/core"
)

// TTLStore is a core.SessionStore that expires idle sessions after a bounded
// lifetime, backed by go-cache. Intended for hosts that never tear the page
// down (kiosks, always-on presenter screens) where abandoned conversations
// would otherwise accumulate for the life of the process. Every successful
// mutation refreshes the session's expiration.
type TTLStore struct {
	catalog core.Catalog
	cache   *gocache.Cache
}

// NewTTLStore constructs a store expiring sessions ttl after their last
// mutation. Expired entries are swept every sweep interval.
func NewTTLStore(catalog core.Catalog, ttl, sweep time.Duration) *TTLStore {
	return &TTLStore{catalog: catalog, cache: gocache.New(ttl, sweep)}
}

// Create initializes a session for the form, failing with core.ErrFormNotFound
// if the catalog lacks it.
func (s *TTLStore) Create(formID string) (*core.AgentSession, error) {
	form, err := s.catalog.Get(formID)
	if err != nil {
		return nil, err
	}
	sess := core.NewAgentSession(form)
	s.cache.Set(sess.ID, sess, gocache.DefaultExpiration)
	return sess.Clone(), nil
}

// Get returns a clone of the session or core.ErrSessionNotFound. Expired
// sessions are indistinguishable from ones that never existed.
func (s *TTLStore) Get(sessionID string) (*core.AgentSession, error) {
	sess, err := s.live(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Clone(), nil
}

// AppendMessage appends to a session's trail.
func (s *TTLStore) AppendMessage(sessionID string, msg core.ConversationMessage) error {
	return s.mutate(sessionID, func(sess *core.AgentSession) error {
		return sess.AppendMessage(msg)
	})
}

// RecordAnswer upserts a gathered answer by question id.
func (s *TTLStore) RecordAnswer(sessionID string, ans core.GatheredAnswer) error {
	return s.mutate(sessionID, func(sess *core.AgentSession) error {
		return sess.RecordAnswer(ans)
	})
}

// Advance moves the current-question pointer forward.
func (s *TTLStore) Advance(sessionID string) error {
	return s.mutate(sessionID, func(sess *core.AgentSession) error {
		return sess.Advance()
	})
}

// SetStatus performs a validated status transition.
func (s *TTLStore) SetStatus(sessionID string, next core.Status) error {
	return s.mutate(sessionID, func(sess *core.AgentSession) error {
		return sess.SetStatus(next)
	})
}

// BumpFollowUp increments a question's follow-up counter.
func (s *TTLStore) BumpFollowUp(sessionID, questionID string) (int, error) {
	var count int
	err := s.mutate(sessionID, func(sess *core.AgentSession) error {
		count = sess.BumpFollowUp(questionID)
		return nil
	})
	return count, err
}

// MarkSubmitted performs the idempotent terminal transition.
func (s *TTLStore) MarkSubmitted(sessionID string) error {
	return s.mutate(sessionID, func(sess *core.AgentSession) error {
		return sess.MarkSubmitted()
	})
}

func (s *TTLStore) live(sessionID string) (*core.AgentSession, error) {
	v, ok := s.cache.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrSessionNotFound, sessionID)
	}
	return v.(*core.AgentSession), nil
}

func (s *TTLStore) mutate(sessionID string, fn func(*core.AgentSession) error) error {
	sess, err := s.live(sessionID)
	if err != nil {
		return err
	}
	if err := fn(sess); err != nil {
		return err
	}
	s.cache.Set(sessionID, sess, gocache.DefaultExpiration)
	return nil
}
