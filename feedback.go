// Package feedback provides a page-scoped provider over the conversational
// feedback engine: form catalog, session store, conversation orchestration
// and answer aggregation behind one handle. Most hosts interact with this
// package by:
//  1. Creating a Provider via New() at page entry (optionally overriding the
//     default in-memory services)
//  2. Registering form definitions
//  3. Starting sessions and feeding user answers through ProcessAnswer
//  4. Submitting completed sessions and calling Close() at page exit
//
// One Provider instance lives for the duration of a user's visit to a page,
// shared by every slide on it; slides hold session ids, never session state.
// All defaults are safe for local development and testing.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/presentable/feedback/aggregate"
	"github.com/presentable/feedback/capability"
	"github.com/presentable/feedback/catalog"
	"github.com/presentable/feedback/core"
	"github.com/presentable/feedback/logging"
	"github.com/presentable/feedback/orchestrator"
	"github.com/presentable/feedback/session"
	"github.com/presentable/feedback/submit"
)

// ErrClosed is returned for any operation after the provider's page lifetime
// ended via Close.
var ErrClosed = errors.New("feedback provider closed")

// Options configures the Provider.
type Options struct {
	// Catalog holds form definitions. Defaults to an in-memory catalog.
	Catalog core.Catalog
	// Store owns session state for the page lifetime. Defaults to an
	// in-memory store over Catalog.
	Store core.SessionStore
	// Capability generates follow-up questions. Nil disables follow-ups;
	// every question then finalizes on its first answer.
	Capability capability.Capability
	// CapabilityTimeout bounds each follow-up generation call.
	CapabilityTimeout time.Duration
	// Submitter persists finalized answer sets. Nil disables Submit.
	Submitter submit.Submitter
	// Logger receives degraded-mode events. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Provider is the page-scoped handle aggregating the engine's services.
type Provider struct {
	catalog   core.Catalog
	store     core.SessionStore
	orch      *orchestrator.Orchestrator
	submitter submit.Submitter
	slide     *SlideState

	mu     sync.RWMutex
	closed bool
}

// New creates a Provider for one page visit. Any unset service is
// initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *Provider {
	opts := Options{
		CapabilityTimeout: 15 * time.Second,
		Logger:            logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.NewInMemory()
	}
	if opts.Store == nil {
		opts.Store = session.NewInMemoryStore(opts.Catalog)
	}
	orch := orchestrator.New(opts.Store, opts.Capability, func(o *orchestrator.Options) {
		o.Logger = opts.Logger
		o.Timeout = opts.CapabilityTimeout
	})
	return &Provider{
		catalog:   opts.Catalog,
		store:     opts.Store,
		orch:      orch,
		submitter: opts.Submitter,
		slide:     NewSlideState(),
	}
}

// Close ends the page lifetime. Further operations return ErrClosed. Any
// in-flight capability call is abandoned by its own context; its result is
// discarded along with the session state. Close is idempotent.
func (p *Provider) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

func (p *Provider) guard() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	return nil
}

// RegisterForm adds a form definition to the catalog.
func (p *Provider) RegisterForm(form core.FormDefinition) error {
	if err := p.guard(); err != nil {
		return err
	}
	return p.catalog.Register(form)
}

// Forms returns all registered definitions in insertion order.
func (p *Provider) Forms() ([]core.FormDefinition, error) {
	if err := p.guard(); err != nil {
		return nil, err
	}
	return p.catalog.List(), nil
}

// StartSession creates a conversation for the given form and returns its id,
// the only handle slides hold on to.
func (p *Provider) StartSession(formID string) (string, error) {
	if err := p.guard(); err != nil {
		return "", err
	}
	sess, err := p.store.Create(formID)
	if err != nil {
		return "", err
	}
	return sess.ID, nil
}

// Session returns a read-only snapshot for status queries and summary display.
func (p *Provider) Session(sessionID string) (*core.AgentSession, error) {
	if err := p.guard(); err != nil {
		return nil, err
	}
	return p.store.Get(sessionID)
}

// ProcessAnswer feeds a user answer into the conversation and returns the
// next protocol action. The host must disable input while a call is
// outstanding; per-session calls are strictly sequential.
func (p *Provider) ProcessAnswer(ctx context.Context, sessionID string, raw core.RawAnswer) (orchestrator.Result, error) {
	if err := p.guard(); err != nil {
		return orchestrator.Result{}, err
	}
	return p.orch.ProcessAnswer(ctx, sessionID, raw)
}

// Answers aggregates a completed session into one answer per question, in
// form definition order.
func (p *Provider) Answers(sessionID string) ([]core.GatheredAnswer, error) {
	if err := p.guard(); err != nil {
		return nil, err
	}
	sess, err := p.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return aggregate.Answers(sess)
}

// Submit persists the session's answer set through the configured submitter
// and, on success, marks the session submitted. On failure the session stays
// completed so Submit can be retried without re-running the conversation.
func (p *Provider) Submit(ctx context.Context, sessionID string, meta submit.Meta) (submit.Receipt, error) {
	if err := p.guard(); err != nil {
		return submit.Receipt{}, err
	}
	if p.submitter == nil {
		return submit.Receipt{}, fmt.Errorf("no submitter configured")
	}
	sess, err := p.store.Get(sessionID)
	if err != nil {
		return submit.Receipt{}, err
	}
	if sess.Status == core.StatusSubmitted {
		return submit.Receipt{}, fmt.Errorf("%w: session %q already submitted", core.ErrInvalidState, sessionID)
	}
	answers, err := aggregate.Answers(sess)
	if err != nil {
		return submit.Receipt{}, err
	}
	if meta.FormID == "" {
		meta.FormID = sess.Form.ID
	}
	if meta.SessionID == "" {
		meta.SessionID = sess.ID
	}
	receipt, err := p.submitter.Submit(ctx, submit.Build(meta, answers))
	if err != nil {
		return submit.Receipt{}, fmt.Errorf("submit session %q: %w", sessionID, err)
	}
	if err := p.store.MarkSubmitted(sessionID); err != nil {
		return receipt, err
	}
	return receipt, nil
}

// SlideState returns the page-scoped record of simple selections shared
// across slides when no follow-up dialogue is needed.
func (p *Provider) SlideState() *SlideState {
	return p.slide
}
