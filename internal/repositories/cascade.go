package repositories

import (
	"context"

	"github.com/project-tracker/backend/internal/models"
)

// Cascade exposes the removal steps used by the deletion coordinator. Use it
// from inside WithinTx so the steps commit or roll back together.
type Cascade struct {
	s *Store
}

func (s *Store) Cascade() *Cascade {
	return &Cascade{s: s}
}

func (c *Cascade) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	return c.s.Projects.GetByID(ctx, id)
}

func (c *Cascade) ListProjectIDsByOwner(ctx context.Context, ownerID int64) ([]int64, error) {
	return c.s.Projects.ListIDsByOwner(ctx, ownerID)
}

func (c *Cascade) DeleteImagesByProject(ctx context.Context, projectID int64) (int64, error) {
	return c.s.Projects.DeleteImagesByProject(ctx, projectID)
}

func (c *Cascade) DeleteMilestonesByProject(ctx context.Context, projectID int64) (int64, error) {
	return c.s.Projects.DeleteMilestonesByProject(ctx, projectID)
}

func (c *Cascade) DeleteProject(ctx context.Context, id int64) error {
	return c.s.Projects.Delete(ctx, id)
}

func (c *Cascade) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return c.s.Users.GetByID(ctx, id)
}

func (c *Cascade) DeleteSharesByUser(ctx context.Context, userID int64) (int64, error) {
	return c.s.Shares.DeleteByUser(ctx, userID)
}

func (c *Cascade) DeleteSharesOnNotesOwnedBy(ctx context.Context, ownerID int64) (int64, error) {
	return c.s.Shares.DeleteOnNotesOwnedBy(ctx, ownerID)
}

func (c *Cascade) DeleteNotesByOwner(ctx context.Context, ownerID int64) (int64, error) {
	return c.s.Notes.DeleteByOwner(ctx, ownerID)
}

func (c *Cascade) DeleteActivityByActor(ctx context.Context, actorID int64) (int64, error) {
	return c.s.Activity.DeleteByActor(ctx, actorID)
}

func (c *Cascade) DeleteUser(ctx context.Context, id int64) error {
	return c.s.Users.Delete(ctx, id)
}
