// Package core provides the foundational domain types and interfaces of the
// feedback engine. It defines the core abstractions for:
//
//   - Form definitions (questions, reference context, choice options and the
//     follow-up policy that bounds AI-generated clarification turns)
//   - Agent sessions (stateful conversational containers with an append-only
//     message trail and a per-question follow-up counter)
//   - Gathered answers (the normalized final value recorded per question)
//   - Pluggable stores for form lookup and session state
//
// The package intentionally keeps implementation concerns (catalog and store
// backends, orchestration, model providers) out of scope, exposing small
// interfaces to enable custom backends and extensions.
package core
