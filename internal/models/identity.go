package models

// Account roles
const (
	RoleEmployee = "employee"
	RoleAdmin    = "admin"
	RoleOwner    = "owner"
)

// Identity is the already-authenticated caller handed in by the transport.
type Identity struct {
	ID            int64  `json:"id"`
	DisplayName   string `json:"display_name"`
	Role          string `json:"role"`
	SourceAddress string `json:"source_address,omitempty"`
}
