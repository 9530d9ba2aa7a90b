// Package actor is the boundary through which a game phase obtains an
// LLM-backed decision. A Gateway turns a role-scoped view of the game into
// one structured decision (speech, vote or night action) and fails closed:
// anything unparseable or illegal surfaces as an error, never as a decision.
// The Decider wraps a Gateway with the retry-then-fallback policy so the
// phase machine can never stall on a flaky model call.
package actor
