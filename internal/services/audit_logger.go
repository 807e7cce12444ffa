package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/project-tracker/backend/internal/events"
	"github.com/project-tracker/backend/internal/models"
	"go.uber.org/zap"
)

// ActivityAppender durably appends one audit record, filling in its id and
// timestamp.
type ActivityAppender interface {
	Append(ctx context.Context, rec *models.ActivityRecord) error
}

// AuditLogger records state-changing operations. It is best-effort: nothing
// it does can fail or abort the caller's operation.
type AuditLogger struct {
	store     ActivityAppender
	publisher events.Publisher
	log       *zap.Logger
}

// NewAuditLogger creates an AuditLogger. publisher may be nil.
func NewAuditLogger(store ActivityAppender, publisher events.Publisher, log *zap.Logger) *AuditLogger {
	return &AuditLogger{
		store:     store,
		publisher: publisher,
		log:       log.Named("audit"),
	}
}

// Record appends one activity record attributed to actor. before and after
// are serialised as-is; pass nil to omit a snapshot. Records without an
// identifiable actor are skipped.
func (l *AuditLogger) Record(
	ctx context.Context,
	actor *models.Identity,
	action, resourceType string,
	resourceID *int64,
	description string,
	before, after any,
) {
	if actor == nil || actor.ID <= 0 {
		l.log.Debug("skipping activity without actor",
			zap.String("action", action),
			zap.String("resource_type", resourceType))
		return
	}

	defer func() {
		if r := recover(); r != nil {
			l.log.Error("panic while recording activity",
				zap.String("action", action),
				zap.String("resource_type", resourceType),
				zap.Any("panic", r))
		}
	}()

	rec := &models.ActivityRecord{
		ActorUserID:      actor.ID,
		ActorDisplayName: actor.DisplayName,
		ActionType:       action,
		ResourceType:     resourceType,
		ResourceID:       resourceID,
		Description:      description,
	}
	if actor.SourceAddress != "" {
		addr := actor.SourceAddress
		rec.SourceAddress = &addr
	}

	var err error
	if rec.Before, err = marshalSnapshot(before); err != nil {
		l.logFailure("failed to serialise before snapshot", rec, err)
		return
	}
	if rec.After, err = marshalSnapshot(after); err != nil {
		l.logFailure("failed to serialise after snapshot", rec, err)
		return
	}

	if err := l.store.Append(ctx, rec); err != nil {
		l.logFailure("failed to append activity record", rec, err)
		return
	}

	if l.publisher == nil {
		return
	}
	if err := l.publisher.Publish(ctx, events.StreamActivity, events.NewActivityEvent(rec)); err != nil {
		l.log.Warn("failed to publish activity event",
			zap.Int64("activity_id", rec.ID),
			zap.Error(err))
	}
}

func (l *AuditLogger) logFailure(msg string, rec *models.ActivityRecord, err error) {
	fields := []zap.Field{
		zap.Int64("actor_id", rec.ActorUserID),
		zap.String("action", rec.ActionType),
		zap.String("resource_type", rec.ResourceType),
		zap.Error(err),
	}
	if rec.ResourceID != nil {
		fields = append(fields, zap.Int64("resource_id", *rec.ResourceID))
	}
	l.log.Error(msg, fields...)
}

func marshalSnapshot(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}
