package testutil

import "github.com/presentable/feedback/core"

// FormBuilder helps construct form definitions with fluent chaining for tests.
// Example:
//
//	form := NewFormBuilder("f1").FollowUps(2).FreeText("q1", "How was it?").Build()
type FormBuilder struct {
	form core.FormDefinition
}

// NewFormBuilder creates a builder for a form with the given id. Follow-ups
// are disabled until FollowUps is called.
func NewFormBuilder(id string) *FormBuilder {
	return &FormBuilder{form: core.FormDefinition{ID: id}}
}

// FollowUps enables follow-up generation with the given per-question budget (chainable).
func (b *FormBuilder) FollowUps(max int) *FormBuilder {
	b.form.FollowUp = core.FollowUpPolicy{Enabled: true, MaxFollowUps: max}
	return b
}

// FreeText appends a free-text question (chainable).
func (b *FormBuilder) FreeText(id, text string) *FormBuilder {
	b.form.Questions = append(b.form.Questions, core.QuestionWithContext{
		ID: id, Text: text, Input: core.InputFreeText,
	})
	return b
}

// OptionalFreeText appends a free-text question that accepts blank answers (chainable).
func (b *FormBuilder) OptionalFreeText(id, text string) *FormBuilder {
	b.form.Questions = append(b.form.Questions, core.QuestionWithContext{
		ID: id, Text: text, Input: core.InputFreeText, Optional: true,
	})
	return b
}

// SingleChoice appends a single-choice question with the given options (chainable).
func (b *FormBuilder) SingleChoice(id, text string, options ...core.ChoiceOption) *FormBuilder {
	b.form.Questions = append(b.form.Questions, core.QuestionWithContext{
		ID: id, Text: text, Input: core.InputSingleChoice, Options: options,
	})
	return b
}

// MultiChoice appends a multi-choice question with the given options (chainable).
func (b *FormBuilder) MultiChoice(id, text string, options ...core.ChoiceOption) *FormBuilder {
	b.form.Questions = append(b.form.Questions, core.QuestionWithContext{
		ID: id, Text: text, Input: core.InputMultiChoice, Options: options,
	})
	return b
}

// Context attaches a reference context section to the most recently added
// question (chainable).
func (b *FormBuilder) Context(id, title, body string) *FormBuilder {
	last := len(b.form.Questions) - 1
	b.form.Questions[last].Contexts = append(b.form.Questions[last].Contexts, core.QuestionContext{
		ID: id, Title: title, Body: body,
	})
	return b
}

// Build returns the assembled definition.
func (b *FormBuilder) Build() core.FormDefinition {
	return b.form
}

// Option is a shorthand constructor for choice options.
func Option(id, label string, triggersFollowUp bool) core.ChoiceOption {
	return core.ChoiceOption{ID: id, Label: label, TriggersFollowUp: triggersFollowUp}
}
