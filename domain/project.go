package domain

import "time"

// Project groups tasks under a single owner plus a set of invited members.
// The owner is implicitly a member and is never removed by membership changes.
type Project struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	OwnerID     string     `json:"ownerId"`
	MemberIDs   []string   `json:"memberIds"`
	InviteCode  string     `json:"inviteCode"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// HasMember reports whether userID is the owner or an invited member.
func (p Project) HasMember(userID string) bool {
	if p.OwnerID == userID {
		return true
	}
	for _, id := range p.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsOwner reports whether userID owns the project.
func (p Project) IsOwner(userID string) bool {
	return p.OwnerID == userID
}
