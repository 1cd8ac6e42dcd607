// Package capability defines the narrow interface through which the feedback
// engine asks a language model for a single follow-up question. The engine
// treats the model as an opaque, possibly unreliable collaborator: every call
// is bounded by a timeout and any failure degrades gracefully to "no
// follow-up this turn" instead of breaking the conversation.
//
// Core goals:
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (Mock, Func)
//   - Bound every network call with a deadline (WithTimeout)
//
// Providers (e.g. OpenAI, Anthropic) implement the Capability interface in
// subpackages so higher layers remain decoupled from vendor SDKs.
package capability
