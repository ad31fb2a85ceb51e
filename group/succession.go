// Package group holds the leadership-succession rule shared by every group
// construct (guilds, parties). The rule is the same regardless of group kind:
// when the leader departs, prefer the longest-tenured candidate holding the
// plain member role; failing that, any remaining active participant; failing
// that, the group must be deleted, because a group cannot exist without a
// leader.
package group

import "time"

// Candidate is an active participant considered for leadership succession.
type Candidate struct {
	UserID   int64
	Role     string
	JoinedAt time.Time
}

// PickSuccessor selects the next leader from cands. memberRole names the
// group's plain member role ("member"). Returns ok=false when no candidate
// remains and the group should be deleted.
func PickSuccessor(cands []Candidate, memberRole string) (int64, bool) {
	if len(cands) == 0 {
		return 0, false
	}

	best := -1
	bestIsMember := false
	for i, c := range cands {
		isMember := c.Role == memberRole
		switch {
		case best < 0:
			best, bestIsMember = i, isMember
		case isMember && !bestIsMember:
			best, bestIsMember = i, isMember
		case isMember == bestIsMember && c.JoinedAt.Before(cands[best].JoinedAt):
			best = i
		}
	}
	return cands[best].UserID, true
}
