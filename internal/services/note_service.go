package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/project-tracker/backend/internal/apperrors"
	"github.com/project-tracker/backend/internal/models"
	"github.com/project-tracker/backend/internal/rbac"
	"go.uber.org/zap"
)

type NoteStore interface {
	Create(ctx context.Context, n *models.Note) error
	GetByID(ctx context.Context, id int64) (*models.Note, error)
	Update(ctx context.Context, n *models.Note) error
	Delete(ctx context.Context, id int64) error
	ListVisible(ctx context.Context, userID int64) ([]models.NoteView, error)
}

type ShareStore interface {
	rbac.GrantLookup
	ListByNote(ctx context.Context, noteID int64) ([]models.ShareGrant, error)
	ReplaceForNote(ctx context.Context, noteID, grantedBy int64, grantees []int64, canEdit bool) error
	Delete(ctx context.Context, noteID, granteeID int64) error
	DeleteByNote(ctx context.Context, noteID int64) (int64, error)
}

type UserLookup interface {
	ExistingIDs(ctx context.Context, ids []int64) ([]int64, error)
}

type NoteService struct {
	notes    NoteStore
	shares   ShareStore
	users    UserLookup
	resolver *rbac.Resolver
	audit    *AuditLogger
	log      *zap.Logger
}

func NewNoteService(
	notes NoteStore,
	shares ShareStore,
	users UserLookup,
	resolver *rbac.Resolver,
	audit *AuditLogger,
	log *zap.Logger,
) *NoteService {
	return &NoteService{
		notes:    notes,
		shares:   shares,
		users:    users,
		resolver: resolver,
		audit:    audit,
		log:      log.Named("notes"),
	}
}

func requireCaller(caller *models.Identity) error {
	if caller == nil || caller.ID <= 0 {
		return fmt.Errorf("%w: no authenticated identity", apperrors.ErrForbidden)
	}
	return nil
}

// Create stores a note owned by the caller. A non-empty shareWith list is
// validated up front and applied as a second, separately recorded step.
func (s *NoteService) Create(ctx context.Context, caller *models.Identity, n *models.Note, shareWith []int64, canEdit bool) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	grantees, err := s.validateGrantees(ctx, caller.ID, shareWith)
	if err != nil {
		return err
	}

	n.OwnerID = caller.ID
	if n.Priority == "" {
		n.Priority = models.PriorityMedium
	}
	if err := s.notes.Create(ctx, n); err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	s.audit.Record(ctx, caller, models.ActionCreate, models.ResourceNote, models.Ref(n.ID),
		fmt.Sprintf("Created note %q", n.Title), nil, n.Snapshot())

	if len(grantees) == 0 {
		return nil
	}
	if err := s.shares.ReplaceForNote(ctx, n.ID, caller.ID, grantees, canEdit); err != nil {
		return fmt.Errorf("share note %d: %w", n.ID, err)
	}
	s.audit.Record(ctx, caller, models.ActionShare, models.ResourceNote, models.Ref(n.ID),
		fmt.Sprintf("Shared note %q with %d user(s)", n.Title, len(grantees)),
		nil, sharingSnapshot(grantees, canEdit))
	return nil
}

// Get returns the note with the caller's permission on it.
func (s *NoteService) Get(ctx context.Context, caller *models.Identity, id int64) (*models.Note, rbac.Permission, error) {
	if err := requireCaller(caller); err != nil {
		return nil, rbac.PermNone, err
	}
	n, err := s.notes.GetByID(ctx, id)
	if err != nil {
		return nil, rbac.PermNone, fmt.Errorf("note %d: %w", id, err)
	}
	perm, err := s.resolver.Require(ctx, caller.ID, n, rbac.OpRead)
	if err != nil {
		return nil, perm, err
	}
	return n, perm, nil
}

func (s *NoteService) ListVisible(ctx context.Context, caller *models.Identity) ([]models.NoteView, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	return s.notes.ListVisible(ctx, caller.ID)
}

// Update applies patch after checking each touched field against the
// caller's permission: title and priority are owner-only, content and
// completion are open to shared editors.
func (s *NoteService) Update(ctx context.Context, caller *models.Identity, id int64, patch models.NotePatch) (*models.Note, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, fmt.Errorf("%w: nothing to update", apperrors.ErrInvalidInput)
	}

	n, err := s.notes.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("note %d: %w", id, err)
	}

	ops := []rbac.Operation{}
	if patch.TouchesMeta() {
		ops = append(ops, rbac.OpEditMeta)
	}
	if patch.TouchesContent() {
		ops = append(ops, rbac.OpEditContent)
	}
	if _, err := s.resolver.Require(ctx, caller.ID, n, ops...); err != nil {
		return nil, err
	}

	before := n.Snapshot()
	patch.ApplyTo(n)
	if err := s.notes.Update(ctx, n); err != nil {
		return nil, fmt.Errorf("update note %d: %w", id, err)
	}

	s.audit.Record(ctx, caller, models.ActionUpdate, models.ResourceNote, models.Ref(n.ID),
		describeNoteUpdate(n, patch), before, n.Snapshot())
	return n, nil
}

func describeNoteUpdate(n *models.Note, patch models.NotePatch) string {
	if patch.IsDone != nil && patch.Title == nil && patch.Content == nil && patch.Priority == nil {
		if *patch.IsDone {
			return fmt.Sprintf("Marked note %q as done", n.Title)
		}
		return fmt.Sprintf("Marked note %q as not done", n.Title)
	}
	return fmt.Sprintf("Updated note %q", n.Title)
}

// UpdateSharing replaces the note's grant set with granteeIDs, all with the
// same edit flag. An empty list revokes every grant. Owner only.
func (s *NoteService) UpdateSharing(ctx context.Context, caller *models.Identity, noteID int64, granteeIDs []int64, canEdit bool) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	n, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		return fmt.Errorf("note %d: %w", noteID, err)
	}
	if _, err := s.resolver.Require(ctx, caller.ID, n, rbac.OpShare); err != nil {
		return err
	}
	grantees, err := s.validateGrantees(ctx, n.OwnerID, granteeIDs)
	if err != nil {
		return err
	}

	current, err := s.shares.ListByNote(ctx, noteID)
	if err != nil {
		return fmt.Errorf("list grants for note %d: %w", noteID, err)
	}
	if err := s.shares.ReplaceForNote(ctx, noteID, caller.ID, grantees, canEdit); err != nil {
		return fmt.Errorf("share note %d: %w", noteID, err)
	}

	added, removed := diffIDs(models.GranteeIDs(current), grantees)
	s.audit.Record(ctx, caller, models.ActionShare, models.ResourceNote, models.Ref(noteID),
		fmt.Sprintf("Updated sharing of note %q: %d user(s), %d added, %d removed",
			n.Title, len(grantees), len(added), len(removed)),
		grantsSnapshot(current), sharingSnapshot(grantees, canEdit))
	return nil
}

// Revoke removes a single grant. Owner only.
func (s *NoteService) Revoke(ctx context.Context, caller *models.Identity, noteID, granteeID int64) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	n, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		return fmt.Errorf("note %d: %w", noteID, err)
	}
	if _, err := s.resolver.Require(ctx, caller.ID, n, rbac.OpShare); err != nil {
		return err
	}
	grant, err := s.shares.GetGrant(ctx, noteID, granteeID)
	if err != nil {
		return fmt.Errorf("grant for user %d on note %d: %w", granteeID, noteID, err)
	}
	if err := s.shares.Delete(ctx, noteID, granteeID); err != nil {
		return fmt.Errorf("revoke grant: %w", err)
	}

	s.audit.Record(ctx, caller, models.ActionShare, models.ResourceNote, models.Ref(noteID),
		fmt.Sprintf("Stopped sharing note %q with user %d", n.Title, granteeID),
		map[string]any{"grantee_user_id": grant.GranteeUserID, "can_edit": grant.CanEdit}, nil)
	return nil
}

// Delete removes the note's grants, then the note. Owner only.
func (s *NoteService) Delete(ctx context.Context, caller *models.Identity, id int64) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	n, err := s.notes.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("note %d: %w", id, err)
	}
	if _, err := s.resolver.Require(ctx, caller.ID, n, rbac.OpDelete); err != nil {
		return err
	}

	before := n.Snapshot()
	if _, err := s.shares.DeleteByNote(ctx, id); err != nil {
		return fmt.Errorf("delete grants of note %d: %w", id, err)
	}
	if err := s.notes.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete note %d: %w", id, err)
	}

	s.audit.Record(ctx, caller, models.ActionDelete, models.ResourceNote, models.Ref(id),
		fmt.Sprintf("Deleted note %q", n.Title), before, nil)
	return nil
}

// validateGrantees dedupes ids and rejects self-shares and unknown users
// before anything is written.
func (s *NoteService) validateGrantees(ctx context.Context, ownerID int64, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	seen := make(map[int64]bool, len(ids))
	grantees := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return nil, fmt.Errorf("%w: invalid user id %d", apperrors.ErrInvalidGrant, id)
		}
		if id == ownerID {
			return nil, fmt.Errorf("%w: a note cannot be shared with its owner", apperrors.ErrInvalidGrant)
		}
		if !seen[id] {
			seen[id] = true
			grantees = append(grantees, id)
		}
	}
	sort.Slice(grantees, func(i, j int) bool { return grantees[i] < grantees[j] })

	found, err := s.users.ExistingIDs(ctx, grantees)
	if err != nil {
		return nil, fmt.Errorf("look up grantees: %w", err)
	}
	if len(found) != len(grantees) {
		exists := make(map[int64]bool, len(found))
		for _, id := range found {
			exists[id] = true
		}
		for _, id := range grantees {
			if !exists[id] {
				return nil, fmt.Errorf("%w: user %d does not exist", apperrors.ErrInvalidGrant, id)
			}
		}
	}
	return grantees, nil
}

// diffIDs reports ids present only in next (added) and only in prev (removed).
func diffIDs(prev, next []int64) (added, removed []int64) {
	inPrev := make(map[int64]bool, len(prev))
	for _, id := range prev {
		inPrev[id] = true
	}
	inNext := make(map[int64]bool, len(next))
	for _, id := range next {
		inNext[id] = true
		if !inPrev[id] {
			added = append(added, id)
		}
	}
	for _, id := range prev {
		if !inNext[id] {
			removed = append(removed, id)
		}
	}
	return added, removed
}

func sharingSnapshot(grantees []int64, canEdit bool) map[string]any {
	if grantees == nil {
		grantees = []int64{}
	}
	return map[string]any{"shared_with": grantees, "can_edit": canEdit}
}

func grantsSnapshot(grants []models.ShareGrant) []map[string]any {
	out := make([]map[string]any, 0, len(grants))
	for _, g := range grants {
		out = append(out, map[string]any{"grantee_user_id": g.GranteeUserID, "can_edit": g.CanEdit})
	}
	return out
}
