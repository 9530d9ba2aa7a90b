package game

import (
	"sort"

	"github.com/mafiarena/mafiarena/core"
)

// TallyResult is the outcome of a voting phase.
type TallyResult struct {
	// TargetID is the lynched player, empty on no-lynch.
	TargetID string
	// Lynched reports whether a target won the plurality outright.
	Lynched bool
	// Counts maps each voted target (including core.VoteSkip) to its vote
	// count after skip handling.
	Counts map[string]int
}

// Tally resolves a ballot by plurality. Ties among the top targets resolve
// to no-lynch. Skip votes form a no-lynch bucket that competes in the
// plurality when allowNoLynch is true; otherwise they are discarded before
// counting, so an all-skip ballot eliminates nobody. The result depends only
// on the ballot contents, never on map iteration order.
func Tally(ballot core.Ballot, allowNoLynch bool) TallyResult {
	counts := map[string]int{}
	for _, target := range ballot {
		if target == core.VoteSkip && !allowNoLynch {
			continue
		}
		counts[target]++
	}

	result := TallyResult{Counts: counts}
	if len(counts) == 0 {
		return result
	}

	max := 0
	for _, n := range counts {
		if n > max {
			max = n
		}
	}

	var top []string
	for target, n := range counts {
		if n == max {
			top = append(top, target)
		}
	}
	sort.Strings(top)

	if len(top) != 1 || top[0] == core.VoteSkip {
		return result
	}

	result.TargetID = top[0]
	result.Lynched = true
	return result
}
