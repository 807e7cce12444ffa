package models

import (
	"encoding/json"
	"time"
)

// Activity action types
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
	ActionLogin  = "LOGIN"
	ActionLogout = "LOGOUT"
	ActionShare  = "SHARE"
)

// Activity resource types
const (
	ResourceUser      = "USER"
	ResourceProject   = "PROJECT"
	ResourceNote      = "NOTE"
	ResourceMilestone = "MILESTONE"
)

// ActivityRecord is one append-only audit trail entry.
type ActivityRecord struct {
	ID               int64           `json:"id"`
	ActorUserID      int64           `json:"user_id"`
	ActorDisplayName string          `json:"performer_username"`
	ActionType       string          `json:"action_type"`
	ResourceType     string          `json:"resource_type"`
	ResourceID       *int64          `json:"resource_id"`
	Description      string          `json:"description"`
	Before           json.RawMessage `json:"old_values,omitempty"`
	After            json.RawMessage `json:"new_values,omitempty"`
	SourceAddress    *string         `json:"ip_address,omitempty"`
	OccurredAt       time.Time       `json:"created_at"`
}

// ActivityFilter narrows the audit trail. Unset fields are ignored; set
// fields are AND-combined.
type ActivityFilter struct {
	ActorID      *int64
	ActionType   *string
	ResourceType *string
	StartDate    *time.Time // inclusive, day granularity
	EndDate      *time.Time // inclusive, day granularity
	Search       *string    // case-insensitive substring of description or actor name
}

// DayBounds turns the inclusive day range into a half-open [from, until)
// interval on occurred_at.
func (f ActivityFilter) DayBounds() (from, until *time.Time) {
	if f.StartDate != nil {
		d := startOfDay(*f.StartDate)
		from = &d
	}
	if f.EndDate != nil {
		d := startOfDay(*f.EndDate).AddDate(0, 0, 1)
		until = &d
	}
	return from, until
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

type ActivityPage struct {
	Records    []ActivityRecord `json:"activities"`
	Page       int              `json:"page"`
	PageSize   int              `json:"limit"`
	TotalCount int              `json:"total"`
	PageCount  int              `json:"pages"`
}

// PageCount is ceil(total/pageSize).
func PageCount(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

type ActionCount struct {
	ActionType string `json:"action_type"`
	Count      int    `json:"count"`
}

type ActorCount struct {
	ActorUserID      int64  `json:"user_id"`
	ActorDisplayName string `json:"username"`
	Count            int    `json:"activity_count"`
}

type ActivityStats struct {
	TrailingDays       int           `json:"days"`
	RecentCount        int           `json:"recent_activity"`
	CountsByActionType []ActionCount `json:"activity_by_type"`
	TopActors          []ActorCount  `json:"most_active_users"`
}

type ActorOption struct {
	ActorUserID      int64  `json:"user_id"`
	ActorDisplayName string `json:"username"`
}

type FilterOptions struct {
	ActionTypes   []string      `json:"action_types"`
	ResourceTypes []string      `json:"resource_types"`
	Actors        []ActorOption `json:"users"`
}
