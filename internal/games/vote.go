package games

// VoteSkip is the abstain choice in the day vote.
const VoteSkip = "skip"

// TallyVotes applies the day-vote rule: the single strict plurality
// leader is eliminated; a tie for the lead, or a skip plurality,
// eliminates nobody. Returns the eliminated name and the counts.
func TallyVotes(votes map[string]string) (string, map[string]int) {
	counts := make(map[string]int)
	for _, choice := range votes {
		counts[choice]++
	}

	leader := ""
	best := 0
	tied := false
	for choice, n := range counts {
		switch {
		case n > best:
			leader, best, tied = choice, n, false
		case n == best:
			tied = true
		}
	}
	if leader == "" || tied || leader == VoteSkip {
		return "", counts
	}
	return leader, counts
}
