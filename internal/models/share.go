package models

import "time"

// ShareGrant gives a non-owner read or read/write access to a note.
// Unique per (NoteID, GranteeUserID).
type ShareGrant struct {
	NoteID          int64     `json:"note_id"`
	GrantedByUserID int64     `json:"granted_by_user_id"`
	GranteeUserID   int64     `json:"grantee_user_id"`
	GranteeName     string    `json:"grantee_name,omitempty"`
	CanEdit         bool      `json:"can_edit"`
	CreatedAt       time.Time `json:"created_at"`
}

// GranteeIDs lists grantee ids in the order given.
func GranteeIDs(grants []ShareGrant) []int64 {
	ids := make([]int64, 0, len(grants))
	for _, g := range grants {
		ids = append(ids, g.GranteeUserID)
	}
	return ids
}
