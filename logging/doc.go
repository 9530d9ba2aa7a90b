// Package logging provides a tiny abstraction over slog so the engine can
// depend on a minimal interface (Logger) while allowing users to plug any
// structured logger. It also offers a richer GameLogger with contextual
// helpers (series, game, component) and domain specific helpers for actor
// calls, phase transitions and reflection runs.
package logging
