package core

import "errors"

var (
	// ErrFormNotFound is returned when a form id is absent from the catalog.
	ErrFormNotFound = errors.New("form not found")

	// ErrDuplicateForm is returned when registering a form id that already
	// exists in the catalog.
	ErrDuplicateForm = errors.New("form already registered")

	// ErrSessionNotFound is returned when a session id is unknown to the store.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidState is returned on an illegal state transition or on any
	// mutation attempt after a session reached a terminal state.
	ErrInvalidState = errors.New("invalid session state")

	// ErrOutOfRange is returned when advancing past the last question of a form.
	ErrOutOfRange = errors.New("no further questions")

	// ErrValidation is returned for an empty or malformed raw answer. The
	// session is left untouched when this error is produced.
	ErrValidation = errors.New("invalid answer")

	// ErrCapability marks a failed language-model call. It is always recovered
	// locally by the orchestrator's finalize fallback and never surfaced to
	// callers as a hard failure.
	ErrCapability = errors.New("capability call failed")
)
