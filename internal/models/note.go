package models

import "time"

// Note priorities
const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

type Note struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Priority  string    `json:"priority"`
	IsDone    bool      `json:"is_done"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (n *Note) ResourceType() string   { return ResourceNote }
func (n *Note) ResourceID() int64      { return n.ID }
func (n *Note) ResourceOwnerID() int64 { return n.OwnerID }

// Snapshot returns the audited field subset. Content is cut to SnapshotTextLimit.
func (n *Note) Snapshot() map[string]any {
	return map[string]any{
		"title":    n.Title,
		"content":  TruncateText(n.Content, SnapshotTextLimit),
		"priority": n.Priority,
		"is_done":  n.IsDone,
	}
}

// NotePatch carries the fields a caller wants to change; nil means untouched.
type NotePatch struct {
	Title    *string `json:"title,omitempty"`
	Content  *string `json:"content,omitempty"`
	Priority *string `json:"priority,omitempty"`
	IsDone   *bool   `json:"is_done,omitempty"`
}

func (p NotePatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Priority == nil && p.IsDone == nil
}

// TouchesMeta reports whether the patch changes owner-only fields.
func (p NotePatch) TouchesMeta() bool {
	return p.Title != nil || p.Priority != nil
}

func (p NotePatch) TouchesContent() bool {
	return p.Content != nil || p.IsDone != nil
}

func (p NotePatch) ApplyTo(n *Note) {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.Priority != nil {
		n.Priority = *p.Priority
	}
	if p.IsDone != nil {
		n.IsDone = *p.IsDone
	}
}

// NoteView is a note as listed for one viewer, with its sharing state.
type NoteView struct {
	Note
	SharedWithMe  bool         `json:"shared_with_me"`
	CanEditShared bool         `json:"can_edit_shared"`
	SharedWith    []ShareGrant `json:"shared_with,omitempty"`
}
