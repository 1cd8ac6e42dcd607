// Package submit shapes a finalized answer set into the payload accepted by
// the external feedback persistence API and defines the narrow Submitter
// contract the engine calls through. The API itself is an external
// collaborator; only the payload shape and the success/failure semantics are
// owned here.
package submit

import (
	"context"
	"sync"
	"time"

	"github.com/presentable/feedback/core"
)

// Meta identifies where a finalized answer set came from.
type Meta struct {
	PresentationID string `json:"presentation_id"`
	SlideID        string `json:"slide_id"`
	FormID         string `json:"form_id"`
	SessionID      string `json:"session_id"`
	ReviewerName   string `json:"reviewer_name,omitempty"`
	ReviewerEmail  string `json:"reviewer_email,omitempty"`
}

// Payload is the record handed to the persistence API.
type Payload struct {
	Meta
	Answers     []core.GatheredAnswer `json:"answers"`
	SubmittedAt time.Time             `json:"submitted_at"`
}

// Receipt carries the record identifier assigned by the persistence API.
type Receipt struct {
	RecordID string `json:"record_id"`
}

// Build assembles a payload from identifying metadata and an aggregated
// answer set.
func Build(meta Meta, answers []core.GatheredAnswer) Payload {
	return Payload{
		Meta:        meta,
		Answers:     answers,
		SubmittedAt: time.Now().UTC(),
	}
}

// Submitter persists a finalized answer set. Implementations must honor ctx
// cancellation. A failed submission is surfaced to the caller; the session
// stays completed so a retry does not re-run the conversation.
type Submitter interface {
	Submit(ctx context.Context, payload Payload) (Receipt, error)
}

// Mock is an in-memory Submitter for tests and examples. Safe for concurrent use.
type Mock struct {
	mu       sync.Mutex
	err      error
	payloads []Payload
}

// NewMock constructs a mock that accepts every submission.
func NewMock() *Mock { return &Mock{} }

// Fail makes every subsequent call return err (pass nil to recover).
func (m *Mock) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Payloads returns a copy of all accepted payloads.
func (m *Mock) Payloads() []Payload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Payload(nil), m.payloads...)
}

// Submit implements Submitter.
func (m *Mock) Submit(_ context.Context, payload Payload) (Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return Receipt{}, m.err
	}
	m.payloads = append(m.payloads, payload)
	return Receipt{RecordID: core.NewID()}, nil
}
