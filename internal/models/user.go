package models

import "time"

type User struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

func (u *User) Snapshot() map[string]any {
	return map[string]any{
		"username":     u.Username,
		"display_name": u.DisplayName,
		"role":         u.Role,
	}
}

// Identity is the user acting on their own behalf.
func (u *User) Identity(sourceAddr string) *Identity {
	return &Identity{ID: u.ID, DisplayName: u.DisplayName, Role: u.Role, SourceAddress: sourceAddr}
}
