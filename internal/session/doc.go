// Package session orchestrates conversations between staff and webhook agents.
//
// The Service is the stateless path used by HTTP handlers: it lazily creates
// a conversation when none is bound, records the user message, queries the
// agent proxy, and records the answer. The Session type layers the
// client-visible state machine (Idle, Active, Loading) on top for callers
// that hold a live chat session.
package session
