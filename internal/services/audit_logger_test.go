package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/project-tracker/backend/internal/events"
	"github.com/project-tracker/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestAuditLogger_RecordAppendsAndPublishes(t *testing.T) {
	env := newTestEnv(t)
	actor := &models.Identity{ID: 7, DisplayName: "Alice", Role: models.RoleEmployee, SourceAddress: "192.168.1.4"}

	env.audit.Record(context.Background(), actor, models.ActionUpdate, models.ResourceNote, models.Ref(42),
		"Updated note", map[string]any{"title": "old"}, map[string]any{"title": "new"})

	require.Len(t, env.db.activity, 1)
	rec := env.db.activity[0]
	assert.Equal(t, int64(7), rec.ActorUserID)
	assert.Equal(t, "Alice", rec.ActorDisplayName)
	assert.Equal(t, models.ActionUpdate, rec.ActionType)
	assert.Equal(t, models.ResourceNote, rec.ResourceType)
	require.NotNil(t, rec.ResourceID)
	assert.Equal(t, int64(42), *rec.ResourceID)
	require.NotNil(t, rec.SourceAddress)
	assert.Equal(t, "192.168.1.4", *rec.SourceAddress)
	assert.JSONEq(t, `{"title":"old"}`, string(rec.Before))
	assert.JSONEq(t, `{"title":"new"}`, string(rec.After))

	require.Len(t, env.publisher.events, 1)
	assert.Equal(t, events.EventActivityRecorded, env.publisher.events[0].Type)
	assert.Equal(t, rec.ID, env.publisher.events[0].Payload["id"])
}

func TestAuditLogger_OmitsNilSnapshotsAndAddress(t *testing.T) {
	env := newTestEnv(t)
	actor := &models.Identity{ID: 7, DisplayName: "Alice"}

	env.audit.Record(context.Background(), actor, models.ActionLogin, models.ResourceUser, nil, "Alice logged in", nil, nil)

	require.Len(t, env.db.activity, 1)
	rec := env.db.activity[0]
	assert.Nil(t, rec.Before)
	assert.Nil(t, rec.After)
	assert.Nil(t, rec.ResourceID)
	assert.Nil(t, rec.SourceAddress)
}

func TestAuditLogger_PassesRawSnapshotsThrough(t *testing.T) {
	env := newTestEnv(t)
	actor := &models.Identity{ID: 7, DisplayName: "Alice"}

	env.audit.Record(context.Background(), actor, models.ActionUpdate, models.ResourceNote, nil, "raw",
		json.RawMessage(`{"a":1}`), nil)

	require.Len(t, env.db.activity, 1)
	assert.Equal(t, `{"a":1}`, string(env.db.activity[0].Before))
}

func TestAuditLogger_SkipsWithoutActor(t *testing.T) {
	tests := []struct {
		name  string
		actor *models.Identity
	}{
		{"nil identity", nil},
		{"zero id", &models.Identity{ID: 0, DisplayName: "ghost"}},
		{"negative id", &models.Identity{ID: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.audit.Record(context.Background(), tt.actor, models.ActionCreate, models.ResourceNote, nil, "x", nil, nil)
			assert.Empty(t, env.db.activity)
			assert.Empty(t, env.publisher.events)
		})
	}
}

func TestAuditLogger_AppendFailureIsSwallowed(t *testing.T) {
	env := newTestEnv(t)
	env.db.failOn["activity.Append"] = errStoreDown
	actor := &models.Identity{ID: 7, DisplayName: "Alice"}

	assert.NotPanics(t, func() {
		env.audit.Record(context.Background(), actor, models.ActionDelete, models.ResourceProject, models.Ref(3), "Deleted", nil, nil)
	})

	assert.Empty(t, env.db.activity)
	assert.Empty(t, env.publisher.events)
	logged := env.logs.FilterMessage("failed to append activity record").All()
	require.Len(t, logged, 1)
	assert.Equal(t, int64(3), logged[0].ContextMap()["resource_id"])
}

func TestAuditLogger_UnserialisableSnapshotDropsRecord(t *testing.T) {
	env := newTestEnv(t)
	actor := &models.Identity{ID: 7, DisplayName: "Alice"}

	env.audit.Record(context.Background(), actor, models.ActionUpdate, models.ResourceNote, nil, "bad",
		nil, map[string]any{"ch": make(chan int)})

	assert.Empty(t, env.db.activity)
	assert.Equal(t, 1, env.logs.FilterMessage("failed to serialise after snapshot").Len())
}

func TestAuditLogger_PublishFailureKeepsRecord(t *testing.T) {
	env := newTestEnv(t)
	env.publisher.err = errors.New("redis down")
	actor := &models.Identity{ID: 7, DisplayName: "Alice"}

	env.audit.Record(context.Background(), actor, models.ActionCreate, models.ResourceNote, models.Ref(1), "Created", nil, nil)

	assert.Len(t, env.db.activity, 1)
	assert.Equal(t, 1, env.logs.FilterMessage("failed to publish activity event").Len())
}

type panickingAppender struct{}

func (panickingAppender) Append(ctx context.Context, rec *models.ActivityRecord) error {
	panic("boom")
}

func TestAuditLogger_RecoversFromPanic(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	audit := NewAuditLogger(panickingAppender{}, nil, zap.New(core))
	actor := &models.Identity{ID: 7, DisplayName: "Alice"}

	assert.NotPanics(t, func() {
		audit.Record(context.Background(), actor, models.ActionCreate, models.ResourceNote, nil, "x", nil, nil)
	})
	assert.Equal(t, 1, logs.FilterMessage("panic while recording activity").Len())
}

func TestAuditLogger_NilPublisher(t *testing.T) {
	db := newMemDB()
	audit := NewAuditLogger(memActivity{db}, nil, zap.NewNop())
	actor := &models.Identity{ID: 7, DisplayName: "Alice"}

	audit.Record(context.Background(), actor, models.ActionCreate, models.ResourceNote, nil, "x", nil, nil)
	assert.Len(t, db.activity, 1)
}
