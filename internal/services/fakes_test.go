package services

import (
	"context"
	"errors"
	"maps"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/project-tracker/backend/internal/apperrors"
	"github.com/project-tracker/backend/internal/events"
	"github.com/project-tracker/backend/internal/models"
	"github.com/project-tracker/backend/internal/rbac"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type shareKey struct{ note, grantee int64 }

// memDB is an in-memory stand-in for the Postgres schema. failOn injects an
// error into the named operation; calls records mutating operations in order.
type memDB struct {
	users      map[int64]*models.User
	notes      map[int64]*models.Note
	shares     map[shareKey]models.ShareGrant
	projects   map[int64]*models.Project
	images     map[int64]models.ProjectImage
	milestones map[int64]*models.Milestone
	activity   []models.ActivityRecord

	nextID int64
	now    time.Time
	failOn map[string]error
	calls  []string
}

func newMemDB() *memDB {
	return &memDB{
		users:      map[int64]*models.User{},
		notes:      map[int64]*models.Note{},
		shares:     map[shareKey]models.ShareGrant{},
		projects:   map[int64]*models.Project{},
		images:     map[int64]models.ProjectImage{},
		milestones: map[int64]*models.Milestone{},
		nextID:     1000,
		now:        time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
		failOn:     map[string]error{},
	}
}

func (db *memDB) id() int64 {
	db.nextID++
	return db.nextID
}

func (db *memDB) step(name string) error {
	if err, ok := db.failOn[name]; ok {
		return err
	}
	db.calls = append(db.calls, name)
	return nil
}

func (db *memDB) addUser(id int64, name, role string) *models.User {
	u := &models.User{ID: id, Username: strings.ToLower(name), DisplayName: name, Role: role, CreatedAt: db.now}
	db.users[id] = u
	return u
}

func (db *memDB) activityFor(action, resourceType string) []models.ActivityRecord {
	var out []models.ActivityRecord
	for _, r := range db.activity {
		if r.ActionType == action && r.ResourceType == resourceType {
			out = append(out, r)
		}
	}
	return out
}

// snapshot/restore emulate transaction rollback.
type memState struct {
	users      map[int64]*models.User
	notes      map[int64]*models.Note
	shares     map[shareKey]models.ShareGrant
	projects   map[int64]*models.Project
	images     map[int64]models.ProjectImage
	milestones map[int64]*models.Milestone
	activity   []models.ActivityRecord
}

func (db *memDB) snapshot() memState {
	return memState{
		users:      maps.Clone(db.users),
		notes:      maps.Clone(db.notes),
		shares:     maps.Clone(db.shares),
		projects:   maps.Clone(db.projects),
		images:     maps.Clone(db.images),
		milestones: maps.Clone(db.milestones),
		activity:   append([]models.ActivityRecord(nil), db.activity...),
	}
}

func (db *memDB) restore(s memState) {
	db.users, db.notes, db.shares = s.users, s.notes, s.shares
	db.projects, db.images, db.milestones = s.projects, s.images, s.milestones
	db.activity = s.activity
}

// ---- notes ----

type memNotes struct{ db *memDB }

func (m memNotes) Create(ctx context.Context, n *models.Note) error {
	if err := m.db.step("notes.Create"); err != nil {
		return err
	}
	n.ID = m.db.id()
	n.CreatedAt, n.UpdatedAt = m.db.now, m.db.now
	c := *n
	m.db.notes[n.ID] = &c
	return nil
}

func (m memNotes) GetByID(ctx context.Context, id int64) (*models.Note, error) {
	n, ok := m.db.notes[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *n
	return &c, nil
}

func (m memNotes) Update(ctx context.Context, n *models.Note) error {
	if err := m.db.step("notes.Update"); err != nil {
		return err
	}
	existing, ok := m.db.notes[n.ID]
	if !ok {
		return apperrors.ErrNotFound
	}
	c := *n
	c.OwnerID = existing.OwnerID
	m.db.notes[n.ID] = &c
	return nil
}

func (m memNotes) Delete(ctx context.Context, id int64) error {
	if err := m.db.step("notes.Delete"); err != nil {
		return err
	}
	if _, ok := m.db.notes[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.db.notes, id)
	return nil
}

func (m memNotes) ListVisible(ctx context.Context, userID int64) ([]models.NoteView, error) {
	views := []models.NoteView{}
	for _, n := range m.db.notes {
		g, shared := m.db.shares[shareKey{n.ID, userID}]
		if n.OwnerID != userID && !shared {
			continue
		}
		v := models.NoteView{Note: *n, SharedWithMe: n.OwnerID != userID, CanEditShared: shared && g.CanEdit}
		if n.OwnerID == userID {
			v.SharedWith, _ = memShares(m).ListByNote(ctx, n.ID)
		}
		views = append(views, v)
	}
	sort.Slice(views, func(i, j int) bool { return views[i].ID > views[j].ID })
	return views, nil
}

// ---- shares ----

type memShares struct{ db *memDB }

func (m memShares) GetGrant(ctx context.Context, noteID, granteeID int64) (*models.ShareGrant, error) {
	if err, ok := m.db.failOn["shares.GetGrant"]; ok {
		return nil, err
	}
	g, ok := m.db.shares[shareKey{noteID, granteeID}]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &g, nil
}

func (m memShares) ListByNote(ctx context.Context, noteID int64) ([]models.ShareGrant, error) {
	out := []models.ShareGrant{}
	for k, g := range m.db.shares {
		if k.note == noteID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GranteeUserID < out[j].GranteeUserID })
	return out, nil
}

func (m memShares) ReplaceForNote(ctx context.Context, noteID, grantedBy int64, grantees []int64, canEdit bool) error {
	if err := m.db.step("shares.ReplaceForNote"); err != nil {
		return err
	}
	for k := range m.db.shares {
		if k.note == noteID {
			delete(m.db.shares, k)
		}
	}
	for _, g := range grantees {
		m.db.shares[shareKey{noteID, g}] = models.ShareGrant{
			NoteID: noteID, GrantedByUserID: grantedBy, GranteeUserID: g, CanEdit: canEdit, CreatedAt: m.db.now,
		}
	}
	return nil
}

func (m memShares) Delete(ctx context.Context, noteID, granteeID int64) error {
	if err := m.db.step("shares.Delete"); err != nil {
		return err
	}
	k := shareKey{noteID, granteeID}
	if _, ok := m.db.shares[k]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.db.shares, k)
	return nil
}

func (m memShares) DeleteByNote(ctx context.Context, noteID int64) (int64, error) {
	if err := m.db.step("shares.DeleteByNote"); err != nil {
		return 0, err
	}
	var n int64
	for k := range m.db.shares {
		if k.note == noteID {
			delete(m.db.shares, k)
			n++
		}
	}
	return n, nil
}

// ---- users ----

type memUsers struct{ db *memDB }

func (m memUsers) ExistingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	var found []int64
	for _, id := range ids {
		if _, ok := m.db.users[id]; ok {
			found = append(found, id)
		}
	}
	return found, nil
}

// ---- projects ----

type memProjects struct{ db *memDB }

func (m memProjects) Create(ctx context.Context, p *models.Project) error {
	if err := m.db.step("projects.Create"); err != nil {
		return err
	}
	p.ID = m.db.id()
	c := *p
	m.db.projects[p.ID] = &c
	return nil
}

func (m memProjects) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	p, ok := m.db.projects[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (m memProjects) List(ctx context.Context, ownerID *int64) ([]models.Project, error) {
	if err, ok := m.db.failOn["projects.List"]; ok {
		return nil, err
	}
	out := []models.Project{}
	for _, p := range m.db.projects {
		if ownerID == nil || p.OwnerID == *ownerID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m memProjects) Update(ctx context.Context, p *models.Project) error {
	if err := m.db.step("projects.Update"); err != nil {
		return err
	}
	c := *p
	m.db.projects[p.ID] = &c
	return nil
}

func (m memProjects) AddImage(ctx context.Context, img *models.ProjectImage) error {
	if err := m.db.step("projects.AddImage"); err != nil {
		return err
	}
	img.ID = m.db.id()
	m.db.images[img.ID] = *img
	return nil
}

func (m memProjects) ListImages(ctx context.Context, projectID int64) ([]models.ProjectImage, error) {
	images := m.db.imagesOf(projectID)
	sort.Slice(images, func(i, j int) bool { return images[i].ID < images[j].ID })
	return images, nil
}

func (m memProjects) ListMilestones(ctx context.Context, projectID int64) ([]models.Milestone, error) {
	ms := m.db.milestonesOf(projectID)
	sort.Slice(ms, func(i, j int) bool { return ms[i].ID < ms[j].ID })
	return ms, nil
}

func (m memProjects) AddMilestone(ctx context.Context, ms *models.Milestone) error {
	if err := m.db.step("projects.AddMilestone"); err != nil {
		return err
	}
	ms.ID = m.db.id()
	c := *ms
	m.db.milestones[ms.ID] = &c
	return nil
}

func (m memProjects) GetMilestone(ctx context.Context, id int64) (*models.Milestone, error) {
	ms, ok := m.db.milestones[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *ms
	return &c, nil
}

func (m memProjects) UpdateMilestoneStatus(ctx context.Context, id int64, status string) error {
	if err := m.db.step("projects.UpdateMilestoneStatus"); err != nil {
		return err
	}
	m.db.milestones[id].Status = status
	return nil
}

func (m memProjects) DeleteMilestone(ctx context.Context, id int64) error {
	if err := m.db.step("projects.DeleteMilestone"); err != nil {
		return err
	}
	delete(m.db.milestones, id)
	return nil
}

func (db *memDB) imagesOf(projectID int64) []models.ProjectImage {
	var out []models.ProjectImage
	for _, img := range db.images {
		if img.ProjectID == projectID {
			out = append(out, img)
		}
	}
	return out
}

func (db *memDB) milestonesOf(projectID int64) []models.Milestone {
	var out []models.Milestone
	for _, ms := range db.milestones {
		if ms.ProjectID == projectID {
			out = append(out, *ms)
		}
	}
	return out
}

// ---- cascade ----

type memCascade struct{ db *memDB }

func (m memCascade) InCascade(ctx context.Context, fn func(tx CascadeTx) error) error {
	saved := m.db.snapshot()
	if err := fn(m); err != nil {
		m.db.restore(saved)
		return err
	}
	return nil
}

func (m memCascade) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	return memProjects(m).GetByID(ctx, id)
}

func (m memCascade) ListProjectIDsByOwner(ctx context.Context, ownerID int64) ([]int64, error) {
	var ids []int64
	for id, p := range m.db.projects {
		if p.OwnerID == ownerID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m memCascade) DeleteImagesByProject(ctx context.Context, projectID int64) (int64, error) {
	if err := m.db.step("DeleteImagesByProject"); err != nil {
		return 0, err
	}
	var n int64
	for id, img := range m.db.images {
		if img.ProjectID == projectID {
			delete(m.db.images, id)
			n++
		}
	}
	return n, nil
}

func (m memCascade) DeleteMilestonesByProject(ctx context.Context, projectID int64) (int64, error) {
	if err := m.db.step("DeleteMilestonesByProject"); err != nil {
		return 0, err
	}
	var n int64
	for id, ms := range m.db.milestones {
		if ms.ProjectID == projectID {
			delete(m.db.milestones, id)
			n++
		}
	}
	return n, nil
}

func (m memCascade) DeleteProject(ctx context.Context, id int64) error {
	if err := m.db.step("DeleteProject"); err != nil {
		return err
	}
	if _, ok := m.db.projects[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.db.projects, id)
	return nil
}

func (m memCascade) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u, ok := m.db.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (m memCascade) DeleteSharesByUser(ctx context.Context, userID int64) (int64, error) {
	if err := m.db.step("DeleteSharesByUser"); err != nil {
		return 0, err
	}
	var n int64
	for k, g := range m.db.shares {
		if g.GrantedByUserID == userID || g.GranteeUserID == userID {
			delete(m.db.shares, k)
			n++
		}
	}
	return n, nil
}

func (m memCascade) DeleteSharesOnNotesOwnedBy(ctx context.Context, ownerID int64) (int64, error) {
	if err := m.db.step("DeleteSharesOnNotesOwnedBy"); err != nil {
		return 0, err
	}
	var n int64
	for k := range m.db.shares {
		if note, ok := m.db.notes[k.note]; ok && note.OwnerID == ownerID {
			delete(m.db.shares, k)
			n++
		}
	}
	return n, nil
}

func (m memCascade) DeleteNotesByOwner(ctx context.Context, ownerID int64) (int64, error) {
	if err := m.db.step("DeleteNotesByOwner"); err != nil {
		return 0, err
	}
	var n int64
	for id, note := range m.db.notes {
		if note.OwnerID == ownerID {
			delete(m.db.notes, id)
			n++
		}
	}
	return n, nil
}

func (m memCascade) DeleteActivityByActor(ctx context.Context, actorID int64) (int64, error) {
	if err := m.db.step("DeleteActivityByActor"); err != nil {
		return 0, err
	}
	kept := m.db.activity[:0:0]
	var n int64
	for _, r := range m.db.activity {
		if r.ActorUserID == actorID {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.db.activity = kept
	return n, nil
}

func (m memCascade) DeleteUser(ctx context.Context, id int64) error {
	if err := m.db.step("DeleteUser"); err != nil {
		return err
	}
	if _, ok := m.db.users[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.db.users, id)
	return nil
}

// ---- activity ----

type memActivity struct{ db *memDB }

func (m memActivity) Append(ctx context.Context, rec *models.ActivityRecord) error {
	if err, ok := m.db.failOn["activity.Append"]; ok {
		return err
	}
	rec.ID = m.db.id()
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = m.db.now
	}
	m.db.activity = append(m.db.activity, *rec)
	return nil
}

func matchesFilter(r models.ActivityRecord, f models.ActivityFilter) bool {
	if f.ActorID != nil && r.ActorUserID != *f.ActorID {
		return false
	}
	if f.ActionType != nil && r.ActionType != *f.ActionType {
		return false
	}
	if f.ResourceType != nil && r.ResourceType != *f.ResourceType {
		return false
	}
	from, until := f.DayBounds()
	if from != nil && r.OccurredAt.Before(*from) {
		return false
	}
	if until != nil && !r.OccurredAt.Before(*until) {
		return false
	}
	if f.Search != nil {
		q := strings.ToLower(strings.TrimSpace(*f.Search))
		if q != "" && !strings.Contains(strings.ToLower(r.Description), q) &&
			!strings.Contains(strings.ToLower(r.ActorDisplayName), q) {
			return false
		}
	}
	return true
}

func (m memActivity) matching(f models.ActivityFilter) []models.ActivityRecord {
	var out []models.ActivityRecord
	for _, r := range m.db.activity {
		if matchesFilter(r, f) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.After(out[j].OccurredAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (m memActivity) Count(ctx context.Context, f models.ActivityFilter) (int, error) {
	if err, ok := m.db.failOn["activity.Count"]; ok {
		return 0, err
	}
	return len(m.matching(f)), nil
}

func (m memActivity) List(ctx context.Context, f models.ActivityFilter, limit, offset int) ([]models.ActivityRecord, error) {
	all := m.matching(f)
	if offset >= len(all) {
		return []models.ActivityRecord{}, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], nil
}

func (m memActivity) since(t time.Time) []models.ActivityRecord {
	var out []models.ActivityRecord
	for _, r := range m.db.activity {
		if !r.OccurredAt.Before(t) {
			out = append(out, r)
		}
	}
	return out
}

func (m memActivity) CountSince(ctx context.Context, since time.Time) (int, error) {
	return len(m.since(since)), nil
}

func (m memActivity) CountByActionSince(ctx context.Context, since time.Time) ([]models.ActionCount, error) {
	counts := map[string]int{}
	for _, r := range m.since(since) {
		counts[r.ActionType]++
	}
	out := []models.ActionCount{}
	for a, c := range counts {
		out = append(out, models.ActionCount{ActionType: a, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].ActionType < out[j].ActionType
	})
	return out, nil
}

func (m memActivity) TopActorsSince(ctx context.Context, since time.Time, limit int) ([]models.ActorCount, error) {
	byActor := map[int64]*models.ActorCount{}
	for _, r := range m.since(since) {
		a, ok := byActor[r.ActorUserID]
		if !ok {
			a = &models.ActorCount{ActorUserID: r.ActorUserID, ActorDisplayName: r.ActorDisplayName}
			byActor[r.ActorUserID] = a
		}
		a.Count++
	}
	out := []models.ActorCount{}
	for _, a := range byActor {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].ActorUserID < out[j].ActorUserID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m memActivity) DistinctActionTypes(ctx context.Context) ([]string, error) {
	return m.distinct(func(r models.ActivityRecord) string { return r.ActionType }), nil
}

func (m memActivity) DistinctResourceTypes(ctx context.Context) ([]string, error) {
	return m.distinct(func(r models.ActivityRecord) string { return r.ResourceType }), nil
}

func (m memActivity) distinct(key func(models.ActivityRecord) string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, r := range m.db.activity {
		if k := key(r); !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func (m memActivity) DistinctActors(ctx context.Context) ([]models.ActorOption, error) {
	seen := map[int64]bool{}
	out := []models.ActorOption{}
	for _, r := range m.db.activity {
		if !seen[r.ActorUserID] {
			seen[r.ActorUserID] = true
			out = append(out, models.ActorOption{ActorUserID: r.ActorUserID, ActorDisplayName: r.ActorDisplayName})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ActorUserID < out[j].ActorUserID })
	return out, nil
}

// ---- publisher ----

type fakePublisher struct {
	events []events.Event
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, stream string, event events.Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

// ---- wiring ----

var errStoreDown = errors.New("store unavailable")

type testEnv struct {
	db        *memDB
	logs      *observer.ObservedLogs
	publisher *fakePublisher
	audit     *AuditLogger
	notes     *NoteService
	projects  *ProjectService
	deletion  *DeletionCoordinator
	query     *ActivityQueryEngine
	sessions  *SessionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newMemDB()
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)

	publisher := &fakePublisher{}
	audit := NewAuditLogger(memActivity{db}, publisher, log)
	resolver := rbac.NewResolver(memShares{db})

	query := NewActivityQueryEngine(memActivity{db}, DefaultActivityQueryOptions(), log)
	query.now = func() time.Time { return db.now }

	return &testEnv{
		db:        db,
		logs:      logs,
		publisher: publisher,
		audit:     audit,
		notes:     NewNoteService(memNotes{db}, memShares{db}, memUsers{db}, resolver, audit, log),
		projects:  NewProjectService(memProjects{db}, resolver, audit, log),
		deletion:  NewDeletionCoordinator(memCascade{db}, resolver, audit, log),
		query:     query,
		sessions:  NewSessionService(audit),
	}
}

func identityOf(u *models.User) *models.Identity {
	return &models.Identity{ID: u.ID, DisplayName: u.DisplayName, Role: u.Role, SourceAddress: "10.0.0.1"}
}
