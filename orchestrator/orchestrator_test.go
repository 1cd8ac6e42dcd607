package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/presentable/feedback/capability"
	"github.com/presentable/feedback/catalog"
	"github.com/presentable/feedback/core"
	"github.com/presentable/feedback/internal/testutil"
	"github.com/presentable/feedback/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixture(t *testing.T, form core.FormDefinition, cap capability.Capability) (*Orchestrator, core.SessionStore, string) {
	t.Helper()
	c := catalog.NewInMemory()
	require.NoError(t, c.Register(form))
	store := session.NewInMemoryStore(c)
	sess, err := store.Create(form.ID)
	require.NoError(t, err)
	return New(store, cap), store, sess.ID
}

func TestProcessAnswer_FollowUpThenBudgetExhausted(t *testing.T) {
	form := testutil.NewFormBuilder("f").
		FollowUps(1).
		FreeText("q1", "What did you think?").
		Build()
	mock := capability.NewMock("Could you be more specific?")
	o, store, id := newFixture(t, form, mock)

	res, err := o.ProcessAnswer(context.Background(), id, core.RawAnswer{Text: "too vague"})
	require.NoError(t, err)
	assert.Equal(t, KindFollowUpRequested, res.Kind)
	require.NotNil(t, res.FollowUp)
	assert.Equal(t, "Could you be more specific?", res.FollowUp.Content)

	snap, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusAwaitingFollowUp, snap.Status)
	assert.Equal(t, 1, snap.FollowUps["q1"])

	res, err = o.ProcessAnswer(context.Background(), id, core.RawAnswer{Text: "clarified: X"})
	require.NoError(t, err)
	assert.Equal(t, KindFormComplete, res.Kind)
	require.NotNil(t, res.Answer)
	assert.Equal(t, "clarified: X", res.Answer.Value.Text)

	snap, err = store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, snap.Status)
	assert.Equal(t, 1, snap.FollowUps["q1"], "budget must never be exceeded")
	assert.Equal(t, "clarified: X", snap.Answers["q1"].Value.Text)
}

func TestProcessAnswer_FollowUpsDisabled(t *testing.T) {
	form := testutil.NewFormBuilder("g").
		FreeText("q1", "First?").
		FreeText("q2", "Second?").
		Build()
	mock := capability.NewMock("never used")
	o, store, id := newFixture(t, form, mock)

	res, err := o.ProcessAnswer(context.Background(), id, core.RawAnswer{Text: "one"})
	require.NoError(t, err)
	assert.Equal(t, KindQuestionComplete, res.Kind)

	res, err = o.ProcessAnswer(context.Background(), id, core.RawAnswer{Text: "two"})
	require.NoError(t, err)
	assert.Equal(t, KindFormComplete, res.Kind)

	assert.Empty(t, mock.Requests(), "capability must not be called when follow-ups are disabled")

	snap, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, snap.Status)
}

func TestProcessAnswer_DegradedModeCompletes(t *testing.T) {
	// A capability that always fails must never block completion.
	form := testutil.NewFormBuilder("f").
		FollowUps(3).
		FreeText("q1", "First?").
		FreeText("q2", "Second?").
		Build()
	mock := capability.NewMock()
	mock.Fail(errors.New("model offline"))
	o, store, id := newFixture(t, form, mock)

	res, err := o.ProcessAnswer(context.Background(), id, core.RawAnswer{Text: "one"})
	require.NoError(t, err, "capability failure must not surface")
	assert.Equal(t, KindQuestionComplete, res.Kind)

	res, err = o.ProcessAnswer(context.Background(), id, core.RawAnswer{Text: "two"})
	require.NoError(t, err)
	assert.Equal(t, KindFormComplete, res.Kind)

	snap, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, snap.Status)
	assert.Equal(t, "one", snap.Answers["q1"].Value.Text)
	assert.Equal(t, "two", snap.Answers["q2"].Value.Text)
	assert.Zero(t, snap.FollowUps["q1"])
	assert.Zero(t, snap.FollowUps["q2"])
}

func TestProcessAnswer_EmptyAnswerLeavesSessionUntouched(t *testing.T) {
	form := testutil.NewFormBuilder("f").
		FollowUps(1).
		FreeText("q1", "First?").
		Build()
	mock := capability.NewMock("unused")
	o, store, id := newFixture(t, form, mock)

	for _, raw := range []core.RawAnswer{{}, {Text: "   \t\n"}} {
		_, err := o.ProcessAnswer(context.Background(), id, raw)
		assert.ErrorIs(t, err, core.ErrValidation)
	}

	snap, err := store.Get(id)
	require.NoError(t, err)
	assert.Empty(t, snap.Trail)
	assert.Empty(t, snap.Answers)
	assert.Zero(t, snap.FollowUps["q1"])
	assert.Equal(t, core.StatusNotStarted, snap.Status)
	assert.Empty(t, mock.Requests())
}

func TestProcessAnswer_OptionalQuestionAcceptsBlank(t *testing.T) {
	form := testutil.NewFormBuilder("f").
		FollowUps(1).
		OptionalFreeText("q1", "Anything else?").
		Build()
	o, _, id := newFixture(t, form, capability.NewMock("unused"))

	res, err := o.ProcessAnswer(context.Background(), id, core.RawAnswer{})
	require.NoError(t, err)
	assert.Equal(t, KindFormComplete, res.Kind, "blank optional answer finalizes without follow-up")
}

func TestProcessAnswer_ChoiceTriggersFollowUp(t *testing.T) {
	form := testutil.NewFormBuilder("f").
		FollowUps(1).
		SingleChoice("q1", "Would you recommend the module?",
			testutil.Option("yes", "Yes", false),
			testutil.Option("no", "No", true),
		).
		Build()
	mock := capability.NewMock("What was missing for you?")
	o, store, id := newFixture(t, form, mock)

	res, err := o.ProcessAnswer(context.Background(), id, core.RawAnswer{OptionIDs: []string{"no"}})
	require.NoError(t, err)
	assert.Equal(t, KindFollowUpRequested, res.Kind)

	res, err = o.ProcessAnswer(context.Background(), id, core.RawAnswer{Text: "more exercises"})
	require.NoError(t, err)
	assert.Equal(t, KindFormComplete, res.Kind)

	snap, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, []string{"no"}, snap.Answers["q1"].Value.OptionIDs)
	assert.Equal(t, "more exercises", snap.Answers["q1"].Value.Text)
}

func TestProcessAnswer_FollowUpReplyChangesSelection(t *testing.T) {
	form := testutil.NewFormBuilder("f").
		FollowUps(1).
		SingleChoice("q1", "Would you recommend the module?",
			testutil.Option("yes", "Yes", false),
			testutil.Option("no", "No", true),
		).
		Build()
	mock := capability.NewMock("What was missing for you?")
	o, store, id := newFixture(t, form, mock)

	res, err := o.ProcessAnswer(context.Background(), id, core.RawAnswer{OptionIDs: []string{"no"}})
	require.NoError(t, err)
	assert.Equal(t, KindFollowUpRequested, res.Kind)

	// A reply may revise the selection; the new one replaces the recorded one.
	res, err = o.ProcessAnswer(context.Background(), id, core.RawAnswer{
		Text:      "thought about it, it was fine",
		OptionIDs: []string{"yes"},
	})
	require.NoError(t, err)
	assert.Equal(t, KindFormComplete, res.Kind)

	snap, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, []string{"yes"}, snap.Answers["q1"].Value.OptionIDs)
	assert.Equal(t, "thought about it, it was fine", snap.Answers["q1"].Value.Text)
	assert.Equal(t, 1, snap.FollowUps["q1"])
}

func TestProcessAnswer_FollowUpReplyValidation(t *testing.T) {
	form := testutil.NewFormBuilder("f").
		FollowUps(1).
		SingleChoice("q1", "Would you recommend the module?",
			testutil.Option("yes", "Yes", false),
			testutil.Option("no", "No", true),
		).
		Build()
	mock := capability.NewMock("What was missing for you?")
	o, store, id := newFixture(t, form, mock)

	_, err := o.ProcessAnswer(context.Background(), id, core.RawAnswer{OptionIDs: []string{"no"}})
	require.NoError(t, err)

	for _, raw := range []core.RawAnswer{
		{},
		{Text: "   "},
		{Text: "hm", OptionIDs: []string{"zzz"}},
		{OptionIDs: []string{"yes", "no"}},
	} {
		_, err = o.ProcessAnswer(context.Background(), id, raw)
		assert.ErrorIs(t, err, core.ErrValidation)
	}

	snap, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusAwaitingFollowUp, snap.Status, "rejected replies leave the session waiting")
	assert.Equal(t, []string{"no"}, snap.Answers["q1"].Value.OptionIDs)
	assert.Equal(t, 1, snap.FollowUps["q1"])
}

func TestProcessAnswer_ChoiceFollowUpBudgetMatchesFreeText(t *testing.T) {
	// A still-triggering selection keeps elaborating until the per-question
	// budget runs out, consuming it exactly like a free-text question does.
	choice := testutil.NewFormBuilder("choice").
		FollowUps(2).
		SingleChoice("q1", "Would you recommend the module?",
			testutil.Option("no", "No", true),
		).
		Build()
	text := testutil.NewFormBuilder("text").
		FollowUps(2).
		FreeText("q1", "What did you think?").
		Build()

	firstAnswers := map[string]core.RawAnswer{
		"choice": {OptionIDs: []string{"no"}},
		"text":   {Text: "not great"},
	}
	for _, form := range []core.FormDefinition{choice, text} {
		mock := capability.NewMock("Could you say more?")
		o, store, id := newFixture(t, form, mock)

		res, err := o.ProcessAnswer(context.Background(), id, firstAnswers[form.ID])
		require.NoError(t, err)
		assert.Equal(t, KindFollowUpRequested, res.Kind, form.ID)

		res, err = o.ProcessAnswer(context.Background(), id, core.RawAnswer{Text: "it lacked depth"})
		require.NoError(t, err)
		assert.Equal(t, KindFollowUpRequested, res.Kind, form.ID)

		res, err = o.ProcessAnswer(context.Background(), id, core.RawAnswer{Text: "the exercises, mostly"})
		require.NoError(t, err)
		assert.Equal(t, KindFormComplete, res.Kind, form.ID)

		snap, err := store.Get(id)
		require.NoError(t, err)
		assert.Equal(t, 2, snap.FollowUps["q1"], form.ID)
		assert.Equal(t, "the exercises, mostly", snap.Answers["q1"].Value.Text, form.ID)
	}
}

func TestProcessAnswer_ChoiceWithoutTriggerFinalizes(t *testing.T) {
	form := testutil.NewFormBuilder("f").
		FollowUps(1).
		SingleChoice("q1", "Would you recommend the module?",
			testutil.Option("yes", "Yes", false),
			testutil.Option("no", "No", true),
		).
		Build()
	mock := capability.NewMock("unused")
	o, _, id := newFixture(t, form, mock)

	res, err := o.ProcessAnswer(context.Background(), id, core.RawAnswer{OptionIDs: []string{"yes"}})
	require.NoError(t, err)
	assert.Equal(t, KindFormComplete, res.Kind)
	assert.Empty(t, mock.Requests(), "a non-triggering selection must not consult the capability")
}

func TestProcessAnswer_ChoiceValidation(t *testing.T) {
	form := testutil.NewFormBuilder("f").
		SingleChoice("q1", "Pick one",
			testutil.Option("a", "A", false),
			testutil.Option("b", "B", false),
		).
		Build()
	o, _, id := newFixture(t, form, nil)

	_, err := o.ProcessAnswer(context.Background(), id, core.RawAnswer{OptionIDs: []string{"a", "b"}})
	assert.ErrorIs(t, err, core.ErrValidation, "single choice rejects multiple selections")

	_, err = o.ProcessAnswer(context.Background(), id, core.RawAnswer{OptionIDs: []string{"zzz"}})
	assert.ErrorIs(t, err, core.ErrValidation, "unknown option id")

	_, err = o.ProcessAnswer(context.Background(), id, core.RawAnswer{})
	assert.ErrorIs(t, err, core.ErrValidation, "required choice needs a selection")
}

func TestProcessAnswer_CapabilityReceivesExchangeContext(t *testing.T) {
	form := testutil.NewFormBuilder("f").
		FollowUps(2).
		FreeText("q1", "How was the pacing?").
		Context("c1", "Module outline", "Six slides on goroutines.").
		Build()
	mock := capability.NewMock("Which slide felt rushed?")
	o, _, id := newFixture(t, form, mock)

	_, err := o.ProcessAnswer(context.Background(), id, core.RawAnswer{Text: "a bit fast"})
	require.NoError(t, err)

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "How was the pacing?", reqs[0].Question)
	require.Len(t, reqs[0].Contexts, 1)
	assert.Equal(t, "Module outline", reqs[0].Contexts[0].Title)
	require.Len(t, reqs[0].Trail, 1)
	assert.Equal(t, "a bit fast", reqs[0].Trail[0].Content)
	assert.Equal(t, 1, reqs[0].Remaining)
}

func TestProcessAnswer_TrailAttachedPerQuestion(t *testing.T) {
	form := testutil.NewFormBuilder("f").
		FollowUps(1).
		FreeText("q1", "First?").
		FreeText("q2", "Second?").
		Build()
	mock := capability.NewMock("Say more?")
	o, store, id := newFixture(t, form, mock)

	_, err := o.ProcessAnswer(context.Background(), id, core.RawAnswer{Text: "one"})
	require.NoError(t, err)
	_, err = o.ProcessAnswer(context.Background(), id, core.RawAnswer{Text: "one, elaborated"})
	require.NoError(t, err)
	res, err := o.ProcessAnswer(context.Background(), id, core.RawAnswer{Text: "two"})
	require.NoError(t, err)
	assert.Equal(t, KindFollowUpRequested, res.Kind)
	res, err = o.ProcessAnswer(context.Background(), id, core.RawAnswer{Text: "two, elaborated"})
	require.NoError(t, err)
	assert.Equal(t, KindFormComplete, res.Kind)

	snap, err := store.Get(id)
	require.NoError(t, err)
	// Each audit trail covers only its own exchange: answer, follow-up, elaboration.
	require.Len(t, snap.Answers["q1"].Trail, 3)
	assert.Equal(t, core.RoleAssistant, snap.Answers["q1"].Trail[1].Role)
	require.Len(t, snap.Answers["q2"].Trail, 3)
	assert.Equal(t, "two", snap.Answers["q2"].Trail[0].Content)
}

func TestProcessAnswer_CompletedSessionRejectsFurtherAnswers(t *testing.T) {
	form := testutil.NewFormBuilder("f").FreeText("q1", "Only question").Build()
	o, _, id := newFixture(t, form, nil)

	_, err := o.ProcessAnswer(context.Background(), id, core.RawAnswer{Text: "done"})
	require.NoError(t, err)

	_, err = o.ProcessAnswer(context.Background(), id, core.RawAnswer{Text: "again"})
	assert.ErrorIs(t, err, core.ErrInvalidState)
}

func TestProcessAnswer_UnknownSession(t *testing.T) {
	form := testutil.NewFormBuilder("f").FreeText("q1", "?").Build()
	o, _, _ := newFixture(t, form, nil)

	_, err := o.ProcessAnswer(context.Background(), "missing", core.RawAnswer{Text: "hi"})
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
}

func TestProcessAnswer_EmptyFollowUpMessageDegrades(t *testing.T) {
	form := testutil.NewFormBuilder("f").
		FollowUps(1).
		FreeText("q1", "First?").
		Build()
	blank := capability.Func(func(context.Context, capability.Request) (capability.Response, error) {
		return capability.Response{Message: "   "}, nil
	})
	o, store, id := newFixture(t, form, blank)

	res, err := o.ProcessAnswer(context.Background(), id, core.RawAnswer{Text: "fine"})
	require.NoError(t, err)
	assert.Equal(t, KindFormComplete, res.Kind, "a malformed response finalizes instead of failing")

	snap, err := store.Get(id)
	require.NoError(t, err)
	assert.Zero(t, snap.FollowUps["q1"], "failed generation must not consume budget")
}
