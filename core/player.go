package core

// Player is a game participant. Identity, name and model binding are fixed
// for the lifetime of a series; the role is reassigned every game and the
// alive flag is mutated by the phase machine. The cheatsheet persists across
// games and is replaced (never edited in place) by the reflection pipeline.
type Player struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Provider   string     `json:"provider"`
	Model      string     `json:"model"`
	Role       Role       `json:"role,omitempty"`
	Alive      bool       `json:"alive"`
	Cheatsheet Cheatsheet `json:"cheatsheet"`
}

// PlayerConfig describes one roster slot in a series configuration.
type PlayerConfig struct {
	Name              string      `json:"name"`
	Provider          string      `json:"provider"`
	Model             string      `json:"model"`
	FixedRole         Role        `json:"fixed_role,omitempty"`
	InitialCheatsheet *Cheatsheet `json:"initial_cheatsheet,omitempty"`
}
