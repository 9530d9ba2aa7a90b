package core

// VoteSkip is the sentinel target for an explicit skip ("no lynch") vote.
const VoteSkip = "no_lynch"

// Vote pairs a voter with a target (or VoteSkip). Votes are valid only
// during a Voting phase; a later vote by the same voter supersedes the
// earlier one, and the ballot is cleared at every phase transition.
type Vote struct {
	VoterID  string `json:"voter_id"`
	TargetID string `json:"target_id"`
}

// Ballot is the last-vote-wins view of a voting phase: voter id to target
// id or VoteSkip.
type Ballot map[string]string
