package core

import "fmt"

// InputType tags the expected answer shape of a question.
type InputType string

const (
	// InputFreeText expects a free-form text answer.
	InputFreeText InputType = "free_text"
	// InputSingleChoice expects exactly one selected option.
	InputSingleChoice InputType = "single_choice"
	// InputMultiChoice expects one or more selected options.
	InputMultiChoice InputType = "multi_choice"
)

// QuestionContext is a labeled block of reference material attached to a
// question. It grounds follow-up generation and is immutable once defined.
type QuestionContext struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Body            string `json:"body"`
	Icon            string `json:"icon,omitempty"`
	DefaultExpanded bool   `json:"default_expanded,omitempty"`
}

// ChoiceOption is a selectable answer for choice questions. A selection with
// TriggersFollowUp set may itself be a signal to request elaboration even
// absent free text.
type ChoiceOption struct {
	ID               string `json:"id"`
	Label            string `json:"label"`
	Description      string `json:"description,omitempty"`
	TriggersFollowUp bool   `json:"triggers_follow_up,omitempty"`
}

// FollowUpPolicy bounds AI-generated clarification turns. MaxFollowUps is a
// per-question budget, never a per-form one.
type FollowUpPolicy struct {
	Enabled      bool `json:"enabled"`
	MaxFollowUps int  `json:"max_follow_ups"`
}

// QuestionWithContext is a primary question plus its reference material and
// input-type tag. Optional questions accept blank answers.
type QuestionWithContext struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Input    InputType         `json:"input"`
	Contexts []QuestionContext `json:"contexts,omitempty"`
	Options  []ChoiceOption    `json:"options,omitempty"`
	Optional bool              `json:"optional,omitempty"`
}

// Option returns the choice option with the given id.
func (q QuestionWithContext) Option(id string) (ChoiceOption, bool) {
	for _, o := range q.Options {
		if o.ID == id {
			return o, true
		}
	}
	return ChoiceOption{}, false
}

// FormDefinition identifies a form, its ordered question sequence and the
// follow-up policy applied to every question. Treat values as immutable after
// registration; the catalog and session store hand out deep copies.
type FormDefinition struct {
	ID        string                `json:"id"`
	Questions []QuestionWithContext `json:"questions"`
	FollowUp  FollowUpPolicy        `json:"follow_up"`
}

// Validate checks structural integrity of the definition. It is invoked at
// registration time so malformed forms never reach a session.
func (f FormDefinition) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("%w: form id is empty", ErrValidation)
	}
	if len(f.Questions) == 0 {
		return fmt.Errorf("%w: form %q has no questions", ErrValidation, f.ID)
	}
	if f.FollowUp.MaxFollowUps < 0 {
		return fmt.Errorf("%w: form %q has negative follow-up budget", ErrValidation, f.ID)
	}
	seen := make(map[string]bool, len(f.Questions))
	for i, q := range f.Questions {
		if q.ID == "" {
			return fmt.Errorf("%w: form %q question %d has no id", ErrValidation, f.ID, i)
		}
		if seen[q.ID] {
			return fmt.Errorf("%w: form %q has duplicate question id %q", ErrValidation, f.ID, q.ID)
		}
		seen[q.ID] = true
		if q.Text == "" {
			return fmt.Errorf("%w: question %q has no text", ErrValidation, q.ID)
		}
		switch q.Input {
		case InputFreeText:
			if len(q.Options) > 0 {
				return fmt.Errorf("%w: free-text question %q declares options", ErrValidation, q.ID)
			}
		case InputSingleChoice, InputMultiChoice:
			if len(q.Options) == 0 {
				return fmt.Errorf("%w: choice question %q has no options", ErrValidation, q.ID)
			}
			opts := make(map[string]bool, len(q.Options))
			for _, o := range q.Options {
				if o.ID == "" {
					return fmt.Errorf("%w: question %q has an option without id", ErrValidation, q.ID)
				}
				if opts[o.ID] {
					return fmt.Errorf("%w: question %q has duplicate option id %q", ErrValidation, q.ID, o.ID)
				}
				opts[o.ID] = true
			}
		default:
			return fmt.Errorf("%w: question %q has unknown input type %q", ErrValidation, q.ID, q.Input)
		}
	}
	return nil
}

// Clone returns a deep copy safe for independent use.
func (f FormDefinition) Clone() FormDefinition {
	clone := f
	clone.Questions = make([]QuestionWithContext, len(f.Questions))
	for i, q := range f.Questions {
		cq := q
		cq.Contexts = append([]QuestionContext(nil), q.Contexts...)
		cq.Options = append([]ChoiceOption(nil), q.Options...)
		clone.Questions[i] = cq
	}
	return clone
}

// Catalog is the process-wide registry of form definitions. It is populated
// at startup and read-mostly afterwards.
type Catalog interface {
	// Register adds a new definition, failing with ErrDuplicateForm if the id
	// is already taken and with ErrValidation if the definition is malformed.
	Register(form FormDefinition) error

	// Reregister overwrites an existing definition (last writer wins) or adds
	// a new one. Supports hot-reloading definitions in development.
	Reregister(form FormDefinition) error

	// Get returns the definition for the given id or ErrFormNotFound.
	Get(formID string) (FormDefinition, error)

	// List returns all definitions in insertion order.
	List() []FormDefinition
}
