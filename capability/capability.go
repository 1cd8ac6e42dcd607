package capability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/presentable/feedback/core"
)

// Request carries everything a provider needs to ground one follow-up
// question: the primary question, its reference context sections, the
// message trail of the current exchange and the remaining follow-up budget.
type Request struct {
	Question  string                     `json:"question"`
	Contexts  []core.QuestionContext     `json:"contexts,omitempty"`
	Trail     []core.ConversationMessage `json:"trail"`
	Remaining int                        `json:"remaining"`
}

// Response is the single follow-up message produced by the provider.
type Response struct {
	Message string `json:"message"`
}

// Capability is the sole async/network boundary of the engine. Implementations
// must honor ctx cancellation; callers treat every error as recoverable.
type Capability interface {
	FollowUp(ctx context.Context, req Request) (Response, error)
}

// Func adapts a plain function to the Capability interface.
type Func func(ctx context.Context, req Request) (Response, error)

// FollowUp implements Capability.
func (f Func) FollowUp(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// Mock is a deterministic in-memory Capability for tests and examples. It
// replays queued messages in order and records every request it receives.
// Safe for concurrent use.
type Mock struct {
	mu       sync.Mutex
	queue    []string
	err      error
	requests []Request
}

// NewMock constructs a mock replaying the given follow-up messages in order.
// Once the queue is drained the last message is repeated.
func NewMock(messages ...string) *Mock {
	return &Mock{queue: messages}
}

// Fail makes every subsequent call return err (pass nil to recover).
func (m *Mock) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Requests returns a copy of all requests received so far.
func (m *Mock) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// FollowUp implements Capability.
func (m *Mock) FollowUp(_ context.Context, req Request) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		return Response{}, m.err
	}
	if len(m.queue) == 0 {
		return Response{}, fmt.Errorf("mock capability has no responses")
	}
	msg := m.queue[0]
	if len(m.queue) > 1 {
		m.queue = m.queue[1:]
	}
	return Response{Message: msg}, nil
}

// timeoutCapability bounds every call with a deadline.
type timeoutCapability struct {
	inner   Capability
	timeout time.Duration
}

// WithTimeout decorates a capability so that every FollowUp call is bounded
// by the given timeout. A timed-out call surfaces the context error, which
// the orchestrator absorbs via its finalize fallback.
func WithTimeout(inner Capability, timeout time.Duration) Capability {
	return &timeoutCapability{inner: inner, timeout: timeout}
}

// FollowUp implements Capability.
func (t *timeoutCapability) FollowUp(ctx context.Context, req Request) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.FollowUp(ctx, req)
}
