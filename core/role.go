package core

// Role is one of the four fixed Mafia roles. The set is closed, so
// role-specific behavior is dispatched with explicit switches rather than
// polymorphism.
type Role string

const (
	// RoleMafia kills one target each night and wins with the mafia faction.
	RoleMafia Role = "mafia"
	// RoleDoctor protects one target each night.
	RoleDoctor Role = "doctor"
	// RoleDeputy investigates one target each night; the result is visible
	// only to the deputy.
	RoleDeputy Role = "deputy"
	// RoleTownsperson has no night action.
	RoleTownsperson Role = "townsperson"
)

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleMafia, RoleDoctor, RoleDeputy, RoleTownsperson:
		return true
	}
	return false
}

// Alignment returns the faction a role wins with.
func (r Role) Alignment() Winner {
	if r == RoleMafia {
		return WinnerMafia
	}
	return WinnerTown
}

// NightAction identifies the capability a role exercises during the night
// phase.
type NightAction string

const (
	// NightActionKill is the mafia kill.
	NightActionKill NightAction = "kill"
	// NightActionProtect is the doctor save.
	NightActionProtect NightAction = "protect"
	// NightActionInvestigate is the deputy inspection.
	NightActionInvestigate NightAction = "investigate"
	// NightActionNone marks roles without a night capability.
	NightActionNone NightAction = "none"
)

// NightAction returns the night capability associated with the role.
func (r Role) NightAction() NightAction {
	switch r {
	case RoleMafia:
		return NightActionKill
	case RoleDoctor:
		return NightActionProtect
	case RoleDeputy:
		return NightActionInvestigate
	default:
		return NightActionNone
	}
}

// Winner identifies the faction that won a completed game.
type Winner string

const (
	// WinnerTown means every mafia member was eliminated.
	WinnerTown Winner = "town"
	// WinnerMafia means the mafia reached parity with the town.
	WinnerMafia Winner = "mafia"
)
