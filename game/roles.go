package game

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/mafiarena/mafiarena/core"
)

// roleTable is the fixed role distribution per player count. Exactly one
// doctor at every size; the deputy slot opens at six players.
var roleTable = map[int]map[core.Role]int{
	5: {core.RoleMafia: 1, core.RoleDoctor: 1, core.RoleTownsperson: 3},
	6: {core.RoleMafia: 1, core.RoleDoctor: 1, core.RoleDeputy: 1, core.RoleTownsperson: 3},
	7: {core.RoleMafia: 2, core.RoleDoctor: 1, core.RoleDeputy: 1, core.RoleTownsperson: 3},
}

// AssignRoles partitions the players into roles per the fixed table.
// Explicitly fixed roles are honored first and subtracted from the pool; the
// remaining players draw randomly from what is left. A non-zero seed makes
// the assignment deterministic for replay and testing.
func AssignRoles(playerIDs []string, fixed map[string]core.Role, seed int64) (map[string]core.Role, error) {
	dist, ok := roleTable[len(playerIDs)]
	if !ok {
		return nil, &core.InvalidPlayerCountError{Count: len(playerIDs)}
	}

	remaining := make(map[core.Role]int, len(dist))
	for role, n := range dist {
		remaining[role] = n
	}

	assignment := make(map[string]core.Role, len(playerIDs))
	for _, id := range playerIDs {
		role, isFixed := fixed[id]
		if !isFixed {
			continue
		}
		if !role.Valid() {
			return nil, fmt.Errorf("unknown fixed role %q for player %s", role, id)
		}
		if remaining[role] <= 0 {
			return nil, fmt.Errorf("cannot assign fixed role %q: exceeds distribution limit", role)
		}
		remaining[role]--
		assignment[id] = role
	}

	pool := make([]core.Role, 0, len(playerIDs)-len(assignment))
	for role, n := range dist {
		for i := 0; i < remaining[role] && i < n; i++ {
			pool = append(pool, role)
		}
	}
	// Map iteration order is random; sort so the shuffle alone decides the
	// outcome under a given seed.
	sortRoles(pool)

	rng := newRand(seed)
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	for _, id := range playerIDs {
		if _, done := assignment[id]; done {
			continue
		}
		assignment[id] = pool[0]
		pool = pool[1:]
	}

	return assignment, nil
}

var roleOrder = map[core.Role]int{core.RoleMafia: 0, core.RoleDoctor: 1, core.RoleDeputy: 2, core.RoleTownsperson: 3}

func sortRoles(roles []core.Role) {
	sort.Slice(roles, func(i, j int) bool { return roleOrder[roles[i]] < roleOrder[roles[j]] })
}

// newRand returns a deterministic source for a non-zero seed, otherwise a
// fresh time-seeded one.
func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
