// Package reflection turns a finished game into cheatsheet updates. The
// Reflector reads the game transcript and proposes delta edits; the Curator
// reviews each proposal and adjusts helpfulness scores; the Pipeline applies
// the reviewed deltas deterministically and emits a new immutable cheatsheet
// version. A failed model call carries the prior version forward unchanged,
// so reflection can never block series progression.
package reflection
