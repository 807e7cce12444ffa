package models

import "time"

// Milestone statuses
const (
	MilestonePending    = "pending"
	MilestoneInProgress = "in_progress"
	MilestoneCompleted  = "completed"
)

type Project struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"user_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (p *Project) ResourceType() string   { return ResourceProject }
func (p *Project) ResourceID() int64      { return p.ID }
func (p *Project) ResourceOwnerID() int64 { return p.OwnerID }

func (p *Project) Snapshot() map[string]any {
	s := map[string]any{
		"name":    p.Name,
		"status":  p.Status,
		"user_id": p.OwnerID,
	}
	if p.Description != nil {
		s["description"] = TruncateText(*p.Description, SnapshotTextLimit)
	}
	return s
}

// ProjectDetail is a project with its images and milestones.
type ProjectDetail struct {
	Project
	Images     []ProjectImage `json:"images"`
	Milestones []Milestone    `json:"milestones"`
}

type ProjectImage struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

type Milestone struct {
	ID          int64      `json:"id"`
	ProjectID   int64      `json:"project_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (m *Milestone) Snapshot() map[string]any {
	s := map[string]any{
		"project_id": m.ProjectID,
		"title":      m.Title,
		"status":     m.Status,
	}
	if m.Description != nil {
		s["description"] = TruncateText(*m.Description, SnapshotTextLimit)
	}
	if m.DueDate != nil {
		s["due_date"] = m.DueDate.Format("2006-01-02")
	}
	return s
}

func IsValidMilestoneStatus(status string) bool {
	switch status {
	case MilestonePending, MilestoneInProgress, MilestoneCompleted:
		return true
	}
	return false
}
