package core

import (
	"errors"
	"testing"
)

func newTestSession(t *testing.T) *AgentSession {
	t.Helper()
	return NewAgentSession(validForm())
}

func TestAgentSession_StatusTransitions(t *testing.T) {
	s := newTestSession(t)
	if s.Status != StatusNotStarted {
		t.Fatalf("expected not_started, got %q", s.Status)
	}
	if err := s.SetStatus(StatusInProgress); err != nil {
		t.Fatalf("not_started → in_progress: %v", err)
	}
	if err := s.SetStatus(StatusAwaitingFollowUp); err != nil {
		t.Fatalf("in_progress → awaiting_follow_up: %v", err)
	}
	if err := s.SetStatus(StatusInProgress); err != nil {
		t.Fatalf("awaiting_follow_up → in_progress: %v", err)
	}
	if err := s.SetStatus(StatusCompleted); err != nil {
		t.Fatalf("in_progress → completed: %v", err)
	}
	// Completed sessions never regress.
	if err := s.SetStatus(StatusInProgress); !errors.Is(err, ErrInvalidState) {
		t.Errorf("completed → in_progress should fail, got %v", err)
	}
	if err := s.SetStatus(StatusAwaitingFollowUp); !errors.Is(err, ErrInvalidState) {
		t.Errorf("completed → awaiting_follow_up should fail, got %v", err)
	}
}

func TestAgentSession_SkippingStatesFails(t *testing.T) {
	s := newTestSession(t)
	if err := s.SetStatus(StatusCompleted); !errors.Is(err, ErrInvalidState) {
		t.Errorf("not_started → completed should fail, got %v", err)
	}
	if err := s.SetStatus(StatusSubmitted); !errors.Is(err, ErrInvalidState) {
		t.Errorf("not_started → submitted should fail, got %v", err)
	}
}

func TestAgentSession_MarkSubmittedIdempotent(t *testing.T) {
	s := newTestSession(t)
	if err := s.MarkSubmitted(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("submitting a fresh session should fail, got %v", err)
	}
	mustSetStatus(t, s, StatusInProgress, StatusCompleted)
	if err := s.MarkSubmitted(); err != nil {
		t.Fatalf("first MarkSubmitted: %v", err)
	}
	if err := s.MarkSubmitted(); err != nil {
		t.Fatalf("second MarkSubmitted should be a no-op: %v", err)
	}
	if s.Status != StatusSubmitted {
		t.Errorf("expected submitted, got %q", s.Status)
	}
}

func TestAgentSession_TerminalGuards(t *testing.T) {
	s := newTestSession(t)
	mustSetStatus(t, s, StatusInProgress, StatusCompleted)
	if err := s.MarkSubmitted(); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendMessage(NewUserMessage("late")); !errors.Is(err, ErrInvalidState) {
		t.Errorf("append after submit should fail, got %v", err)
	}
	if err := s.RecordAnswer(GatheredAnswer{QuestionID: "q1"}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("record after submit should fail, got %v", err)
	}
	if err := s.Advance(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("advance after submit should fail, got %v", err)
	}
}

func TestAgentSession_RecordAnswerUpserts(t *testing.T) {
	s := newTestSession(t)
	mustSetStatus(t, s, StatusInProgress)
	if err := s.RecordAnswer(GatheredAnswer{QuestionID: "q1", Value: AnswerValue{Text: "first"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordAnswer(GatheredAnswer{QuestionID: "q1", Value: AnswerValue{Text: "second"}}); err != nil {
		t.Fatal(err)
	}
	if got := s.Answers["q1"].Value.Text; got != "second" {
		t.Errorf("expected re-answer to overwrite, got %q", got)
	}
}

func TestAgentSession_Advance(t *testing.T) {
	s := newTestSession(t)
	mustSetStatus(t, s, StatusInProgress)
	if err := s.AppendMessage(NewUserMessage("great module")); err != nil {
		t.Fatal(err)
	}
	if err := s.Advance(); err != nil {
		t.Fatalf("advance to q2: %v", err)
	}
	if s.Current != 1 || s.TrailMark != 1 {
		t.Errorf("expected pointer 1 / mark 1, got %d / %d", s.Current, s.TrailMark)
	}
	if err := s.Advance(); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("advance past last question should fail, got %v", err)
	}
}

func TestAgentSession_CurrentTrail(t *testing.T) {
	s := newTestSession(t)
	mustSetStatus(t, s, StatusInProgress)
	_ = s.AppendMessage(NewUserMessage("answer one"))
	if err := s.Advance(); err != nil {
		t.Fatal(err)
	}
	_ = s.AppendMessage(NewUserMessage("answer two"))
	_ = s.AppendMessage(NewAssistantMessage("why?"))
	trail := s.CurrentTrail()
	if len(trail) != 2 || trail[0].Content != "answer two" {
		t.Fatalf("expected current question trail, got %+v", trail)
	}
}

func TestAgentSession_CloneIsolation(t *testing.T) {
	s := newTestSession(t)
	mustSetStatus(t, s, StatusInProgress)
	_ = s.AppendMessage(NewUserMessage("hi"))
	_ = s.RecordAnswer(GatheredAnswer{QuestionID: "q1", Value: AnswerValue{Text: "hi"}})
	clone := s.Clone()
	if clone == s {
		t.Fatal("clone should be a different pointer")
	}
	clone.Trail[0].Content = "changed"
	clone.Answers["q1"] = GatheredAnswer{QuestionID: "q1", Value: AnswerValue{Text: "changed"}}
	clone.FollowUps["q1"] = 99
	if s.Trail[0].Content != "hi" || s.Answers["q1"].Value.Text != "hi" || s.FollowUps["q1"] != 0 {
		t.Error("mutating the clone must not affect the original")
	}
}

func TestAgentSession_BumpFollowUp(t *testing.T) {
	s := newTestSession(t)
	if n := s.BumpFollowUp("q1"); n != 1 {
		t.Errorf("expected 1, got %d", n)
	}
	if n := s.BumpFollowUp("q1"); n != 2 {
		t.Errorf("expected 2, got %d", n)
	}
	if got := s.FollowUpCount("q2"); got != 0 {
		t.Errorf("expected untouched counter, got %d", got)
	}
}

func mustSetStatus(t *testing.T, s *AgentSession, path ...Status) {
	t.Helper()
	for _, st := range path {
		if err := s.SetStatus(st); err != nil {
			t.Fatalf("transition to %q: %v", st, err)
		}
	}
}
