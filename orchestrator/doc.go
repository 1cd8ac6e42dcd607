// Package orchestrator implements the conversation protocol: given a session
// and a new user answer, it decides whether to request an AI-generated
// follow-up question or to finalize the current question, and drives the
// session's state machine through the store accordingly.
//
// The language-model capability is the only async boundary in the package.
// Its failures are never fatal: a timeout, a malformed response or a fully
// unavailable model degrades to "no follow-up this turn" and the conversation
// still completes.
package orchestrator
