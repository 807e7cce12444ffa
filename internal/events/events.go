package events

import (
	"context"

	"github.com/project-tracker/backend/internal/models"
)

// Streams
const (
	StreamActivity = "events:activity"
)

// Event types
const (
	EventActivityRecorded = "activity_recorded"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}

// NewActivityEvent announces a freshly appended record. Snapshots are left
// out; subscribers fetch the full row through the activity log if needed.
func NewActivityEvent(rec *models.ActivityRecord) Event {
	payload := map[string]any{
		"id":                 rec.ID,
		"user_id":            rec.ActorUserID,
		"performer_username": rec.ActorDisplayName,
		"action_type":        rec.ActionType,
		"resource_type":      rec.ResourceType,
		"description":        rec.Description,
		"created_at":         rec.OccurredAt,
	}
	if rec.ResourceID != nil {
		payload["resource_id"] = *rec.ResourceID
	}
	return Event{Type: EventActivityRecorded, Payload: payload}
}
