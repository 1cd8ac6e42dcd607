// Package session houses concrete implementations of core.SessionStore. The
// interface itself (and the AgentSession struct) live in the core package to
// centralize domain contracts. Keeping only implementations here prevents
// higher level packages (orchestrator, façade) from depending on concrete
// storage.
//
// One store instance is expected to live for the duration of a page visit and
// is shared by every slide on that page; the TTL variant additionally bounds
// session lifetime for kiosk-style hosts that never tear the page down.
package session
