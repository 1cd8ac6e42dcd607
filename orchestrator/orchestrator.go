package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/presentable/feedback/capability"
	"github.com/presentable/feedback/core"
	"github.com/presentable/feedback/logging"
)

// Kind discriminates the protocol actions a ProcessAnswer call can settle on.
type Kind string

const (
	// KindFollowUpRequested means an assistant follow-up was appended and the
	// session awaits the next user message.
	KindFollowUpRequested Kind = "follow_up_requested"
	// KindQuestionComplete means the current question was finalized and the
	// session advanced to the next one.
	KindQuestionComplete Kind = "question_complete"
	// KindFormComplete means the last question was finalized and the session
	// is completed.
	KindFormComplete Kind = "form_complete"
)

// Result is the outcome of one ProcessAnswer call. FollowUp is set for
// KindFollowUpRequested; Answer carries the finalized answer for the other
// two kinds.
type Result struct {
	Kind     Kind
	FollowUp *core.ConversationMessage
	Answer   *core.GatheredAnswer
}

// Options holds configuration overrides passed to New.
type Options struct {
	// Logger receives degraded-mode events. Defaults to NoOpLogger.
	Logger logging.Logger
	// Timeout bounds each capability call. Defaults to 15s.
	Timeout time.Duration
}

// Orchestrator turns raw answers into protocol actions. Per-session calls
// must be sequential (the UI disables input while one is outstanding);
// different sessions are fully independent.
type Orchestrator struct {
	store      core.SessionStore
	capability capability.Capability
	logger     logging.Logger
	timeout    time.Duration
}

// New constructs an Orchestrator. A nil capability disables follow-up
// generation entirely; every question then finalizes on its first answer.
func New(store core.SessionStore, followUp capability.Capability, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		Logger:  logging.NoOpLogger{},
		Timeout: 15 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Orchestrator{
		store:      store,
		capability: followUp,
		logger:     opts.Logger,
		timeout:    opts.Timeout,
	}
}

// ProcessAnswer records the raw answer for the session's current question and
// returns the next protocol action. While the session awaits a follow-up
// reply, the raw answer is treated as elaboration and merged into the answer
// already recorded for the question. Validation failures wrap
// core.ErrValidation and leave the session untouched. Capability failures are
// absorbed: the answer finalizes without a follow-up.
func (o *Orchestrator) ProcessAnswer(ctx context.Context, sessionID string, raw core.RawAnswer) (Result, error) {
	sess, err := o.store.Get(sessionID)
	if err != nil {
		return Result{}, err
	}
	if sess.Status.Terminal() {
		return Result{}, fmt.Errorf("%w: session %q already %s", core.ErrInvalidState, sessionID, sess.Status)
	}

	question := sess.Form.Questions[sess.Current]
	awaiting := sess.Status == core.StatusAwaitingFollowUp

	var value core.AnswerValue
	if awaiting {
		value, err = mergeReply(question, sess.Answers[question.ID].Value, raw)
	} else {
		value, err = normalize(question, raw)
	}
	if err != nil {
		return Result{}, err
	}

	content := render(question, value)
	if awaiting && len(raw.OptionIDs) == 0 {
		content = value.Text
	}
	if err := o.store.AppendMessage(sessionID, core.NewUserMessage(content)); err != nil {
		return Result{}, err
	}
	if err := o.store.SetStatus(sessionID, core.StatusInProgress); err != nil {
		return Result{}, err
	}
	provisional := core.GatheredAnswer{QuestionID: question.ID, Value: value}
	if err := o.store.RecordAnswer(sessionID, provisional); err != nil {
		return Result{}, err
	}

	used := sess.FollowUps[question.ID]
	if o.wantsFollowUp(sess.Form.FollowUp, question, value, used) {
		if result, ok := o.requestFollowUp(ctx, sessionID, question, used); ok {
			return result, nil
		}
	}
	return o.finalize(sessionID, provisional)
}

// requestFollowUp invokes the capability and, on success, appends the
// assistant message and parks the session in AwaitingFollowUp. On any
// failure it reports false so the caller takes the finalize path.
func (o *Orchestrator) requestFollowUp(ctx context.Context, sessionID string, question core.QuestionWithContext, used int) (Result, bool) {
	snap, err := o.store.Get(sessionID)
	if err != nil {
		return Result{}, false
	}
	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	resp, err := o.capability.FollowUp(callCtx, capability.Request{
		Question:  question.Text,
		Contexts:  question.Contexts,
		Trail:     snap.CurrentTrail(),
		Remaining: snap.Form.FollowUp.MaxFollowUps - used - 1,
	})
	if err == nil && strings.TrimSpace(resp.Message) == "" {
		err = fmt.Errorf("empty follow-up message")
	}
	if err != nil {
		o.logger.Warn("follow-up generation failed, finalizing answer",
			"session_id", sessionID,
			"question_id", question.ID,
			"error", fmt.Errorf("%w: %v", core.ErrCapability, err))
		return Result{}, false
	}

	msg := core.NewAssistantMessage(strings.TrimSpace(resp.Message))
	if err := o.store.AppendMessage(sessionID, msg); err != nil {
		return Result{}, false
	}
	if _, err := o.store.BumpFollowUp(sessionID, question.ID); err != nil {
		return Result{}, false
	}
	if err := o.store.SetStatus(sessionID, core.StatusAwaitingFollowUp); err != nil {
		return Result{}, false
	}
	return Result{Kind: KindFollowUpRequested, FollowUp: &msg}, true
}

// finalize attaches the exchange trail to the provisional answer, records it
// as final and either advances the pointer or completes the session.
func (o *Orchestrator) finalize(sessionID string, provisional core.GatheredAnswer) (Result, error) {
	snap, err := o.store.Get(sessionID)
	if err != nil {
		return Result{}, err
	}
	final := provisional
	final.Trail = snap.CurrentTrail()
	if err := o.store.RecordAnswer(sessionID, final); err != nil {
		return Result{}, err
	}

	if snap.Current >= len(snap.Form.Questions)-1 {
		if err := o.store.SetStatus(sessionID, core.StatusCompleted); err != nil {
			return Result{}, err
		}
		return Result{Kind: KindFormComplete, Answer: &final}, nil
	}
	if err := o.store.Advance(sessionID); err != nil {
		return Result{}, err
	}
	return Result{Kind: KindQuestionComplete, Answer: &final}, nil
}

// wantsFollowUp applies the follow-up policy: the form must enable it, the
// per-question budget must have room, and for choice questions at least one
// selected option must be flagged to trigger elaboration. A triggering
// selection never bypasses the budget.
func (o *Orchestrator) wantsFollowUp(policy core.FollowUpPolicy, question core.QuestionWithContext, value core.AnswerValue, used int) bool {
	if o.capability == nil || !policy.Enabled {
		return false
	}
	if used >= policy.MaxFollowUps {
		return false
	}
	if len(question.Options) > 0 {
		for _, id := range value.OptionIDs {
			if opt, ok := question.Option(id); ok && opt.TriggersFollowUp {
				return true
			}
		}
		return false
	}
	return value.Text != ""
}

// normalize validates the raw answer against the question and produces the
// normalized value. It has no side effects: a validation failure leaves the
// session exactly as it was.
func normalize(question core.QuestionWithContext, raw core.RawAnswer) (core.AnswerValue, error) {
	value := core.AnswerValue{
		Text:      strings.TrimSpace(raw.Text),
		OptionIDs: append([]string(nil), raw.OptionIDs...),
	}
	switch question.Input {
	case core.InputFreeText:
		if len(raw.OptionIDs) > 0 {
			return core.AnswerValue{}, fmt.Errorf("%w: question %q takes no options", core.ErrValidation, question.ID)
		}
		if value.Text == "" && !question.Optional {
			return core.AnswerValue{}, fmt.Errorf("%w: question %q requires an answer", core.ErrValidation, question.ID)
		}
	case core.InputSingleChoice:
		if len(raw.OptionIDs) > 1 {
			return core.AnswerValue{}, fmt.Errorf("%w: question %q takes a single selection", core.ErrValidation, question.ID)
		}
		fallthrough
	case core.InputMultiChoice:
		if len(raw.OptionIDs) == 0 && !question.Optional {
			return core.AnswerValue{}, fmt.Errorf("%w: question %q requires a selection", core.ErrValidation, question.ID)
		}
		for _, id := range raw.OptionIDs {
			if _, ok := question.Option(id); !ok {
				return core.AnswerValue{}, fmt.Errorf("%w: question %q has no option %q", core.ErrValidation, question.ID, id)
			}
		}
	}
	return value, nil
}

// mergeReply validates a follow-up reply and merges it into the answer
// recorded when the question was first answered. New text replaces the
// earlier text, and a new selection replaces the earlier one; a text-only
// reply keeps the recorded option ids.
func mergeReply(question core.QuestionWithContext, prev core.AnswerValue, raw core.RawAnswer) (core.AnswerValue, error) {
	if raw.IsBlank() {
		return core.AnswerValue{}, fmt.Errorf("%w: question %q requires a reply to the follow-up", core.ErrValidation, question.ID)
	}
	value := core.AnswerValue{
		Text:      strings.TrimSpace(raw.Text),
		OptionIDs: append([]string(nil), raw.OptionIDs...),
	}
	if len(raw.OptionIDs) == 0 {
		value.OptionIDs = append([]string(nil), prev.OptionIDs...)
		return value, nil
	}
	if question.Input == core.InputFreeText {
		return core.AnswerValue{}, fmt.Errorf("%w: question %q takes no options", core.ErrValidation, question.ID)
	}
	if question.Input == core.InputSingleChoice && len(raw.OptionIDs) > 1 {
		return core.AnswerValue{}, fmt.Errorf("%w: question %q takes a single selection", core.ErrValidation, question.ID)
	}
	for _, id := range raw.OptionIDs {
		if _, ok := question.Option(id); !ok {
			return core.AnswerValue{}, fmt.Errorf("%w: question %q has no option %q", core.ErrValidation, question.ID, id)
		}
	}
	return value, nil
}

// render produces the user message content recorded in the trail: option
// labels for choice answers, with any free-text elaboration appended.
func render(question core.QuestionWithContext, value core.AnswerValue) string {
	if len(value.OptionIDs) == 0 {
		return value.Text
	}
	labels := make([]string, 0, len(value.OptionIDs))
	for _, id := range value.OptionIDs {
		if opt, ok := question.Option(id); ok {
			labels = append(labels, opt.Label)
		}
	}
	content := strings.Join(labels, ", ")
	if value.Text != "" {
		content += ": " + value.Text
	}
	return content
}
