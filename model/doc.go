// Package model defines the narrow chat-completion contract the engine
// depends on, plus a deterministic mock for tests. Provider adapters live in
// the subpackages anthropic and openai.
package model
