package session

// Jury vote labels and consensus outcomes. The consensus is advisory to
// the judge, never binding.
const (
	VoteGuilty    = "Guilty"
	VoteNotGuilty = "Not Guilty"
	VerdictHung   = "Hung Jury (Tie)"
)

// Tally derives the jury consensus from the recorded votes: strict
// majority wins, an exact tie (including ties caused by abstentions or
// malformed votes) is a hung jury.
func Tally(votes map[string]Vote) string {
	var guilty, notGuilty int
	for _, v := range votes {
		switch v.Vote {
		case VoteGuilty:
			guilty++
		case VoteNotGuilty:
			notGuilty++
		}
	}

	switch {
	case guilty > notGuilty:
		return VoteGuilty
	case notGuilty > guilty:
		return VoteNotGuilty
	default:
		return VerdictHung
	}
}
