package services

import (
	"context"
	"fmt"

	"github.com/project-tracker/backend/internal/apperrors"
	"github.com/project-tracker/backend/internal/models"
	"github.com/project-tracker/backend/internal/rbac"
	"github.com/project-tracker/backend/internal/repositories"
	"go.uber.org/zap"
)

// CascadeTx is the set of removal steps available inside one deletion.
type CascadeTx interface {
	GetProject(ctx context.Context, id int64) (*models.Project, error)
	ListProjectIDsByOwner(ctx context.Context, ownerID int64) ([]int64, error)
	DeleteImagesByProject(ctx context.Context, projectID int64) (int64, error)
	DeleteMilestonesByProject(ctx context.Context, projectID int64) (int64, error)
	DeleteProject(ctx context.Context, id int64) error

	GetUser(ctx context.Context, id int64) (*models.User, error)
	DeleteSharesByUser(ctx context.Context, userID int64) (int64, error)
	DeleteSharesOnNotesOwnedBy(ctx context.Context, ownerID int64) (int64, error)
	DeleteNotesByOwner(ctx context.Context, ownerID int64) (int64, error)
	DeleteActivityByActor(ctx context.Context, actorID int64) (int64, error)
	DeleteUser(ctx context.Context, id int64) error
}

// CascadeStore runs fn atomically: either every step commits or none does.
type CascadeStore interface {
	InCascade(ctx context.Context, fn func(tx CascadeTx) error) error
}

type pgCascadeStore struct {
	store *repositories.Store
}

// NewCascadeStore runs cascades inside a Postgres transaction.
func NewCascadeStore(store *repositories.Store) CascadeStore {
	return pgCascadeStore{store: store}
}

func (p pgCascadeStore) InCascade(ctx context.Context, fn func(tx CascadeTx) error) error {
	return p.store.WithinTx(ctx, func(tx *repositories.Store) error {
		return fn(tx.Cascade())
	})
}

// DeletionCoordinator removes users and projects together with everything
// that references them, dependents first, and writes a single audit record
// once the removal has committed.
type DeletionCoordinator struct {
	store    CascadeStore
	resolver *rbac.Resolver
	audit    *AuditLogger
	log      *zap.Logger
}

func NewDeletionCoordinator(store CascadeStore, resolver *rbac.Resolver, audit *AuditLogger, log *zap.Logger) *DeletionCoordinator {
	return &DeletionCoordinator{
		store:    store,
		resolver: resolver,
		audit:    audit,
		log:      log.Named("deletion"),
	}
}

// DeleteProject removes images, milestones and then the project.
func (d *DeletionCoordinator) DeleteProject(ctx context.Context, caller *models.Identity, projectID int64) error {
	if err := requireCaller(caller); err != nil {
		return err
	}

	var before map[string]any
	var name string
	err := d.store.InCascade(ctx, func(tx CascadeTx) error {
		p, err := tx.GetProject(ctx, projectID)
		if err != nil {
			return fmt.Errorf("project %d: %w", projectID, err)
		}
		if err := authorizeProject(ctx, d.resolver, caller, p, rbac.OpDelete); err != nil {
			return err
		}
		before, name = p.Snapshot(), p.Name
		return d.removeProject(ctx, tx, projectID)
	})
	if err != nil {
		return err
	}

	d.audit.Record(ctx, caller, models.ActionDelete, models.ResourceProject, models.Ref(projectID),
		fmt.Sprintf("Deleted project %q", name), before, nil)
	return nil
}

func (d *DeletionCoordinator) removeProject(ctx context.Context, tx CascadeTx, projectID int64) error {
	images, err := tx.DeleteImagesByProject(ctx, projectID)
	if err != nil {
		return fmt.Errorf("delete images of project %d: %w", projectID, err)
	}
	milestones, err := tx.DeleteMilestonesByProject(ctx, projectID)
	if err != nil {
		return fmt.Errorf("delete milestones of project %d: %w", projectID, err)
	}
	if err := tx.DeleteProject(ctx, projectID); err != nil {
		return fmt.Errorf("delete project %d: %w", projectID, err)
	}
	d.log.Debug("project removed",
		zap.Int64("project_id", projectID),
		zap.Int64("images", images),
		zap.Int64("milestones", milestones))
	return nil
}

// DeleteUser removes an account and everything it owns. Only elevated
// callers may do this, and never to themselves. The audit record is
// attributed to the caller, whose own trail is untouched.
func (d *DeletionCoordinator) DeleteUser(ctx context.Context, caller *models.Identity, targetUserID int64) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	if !rbac.IsElevated(caller.Role) {
		return fmt.Errorf("%w: deleting users requires an admin role", apperrors.ErrForbidden)
	}
	if caller.ID == targetUserID {
		return apperrors.ErrSelfDeletion
	}

	var before map[string]any
	var name string
	err := d.store.InCascade(ctx, func(tx CascadeTx) error {
		u, err := tx.GetUser(ctx, targetUserID)
		if err != nil {
			return fmt.Errorf("user %d: %w", targetUserID, err)
		}
		before, name = u.Snapshot(), u.DisplayName

		if _, err := tx.DeleteSharesByUser(ctx, targetUserID); err != nil {
			return fmt.Errorf("delete grants of user %d: %w", targetUserID, err)
		}
		if _, err := tx.DeleteSharesOnNotesOwnedBy(ctx, targetUserID); err != nil {
			return fmt.Errorf("delete grants on notes of user %d: %w", targetUserID, err)
		}
		if _, err := tx.DeleteNotesByOwner(ctx, targetUserID); err != nil {
			return fmt.Errorf("delete notes of user %d: %w", targetUserID, err)
		}

		projectIDs, err := tx.ListProjectIDsByOwner(ctx, targetUserID)
		if err != nil {
			return fmt.Errorf("list projects of user %d: %w", targetUserID, err)
		}
		for _, id := range projectIDs {
			if err := d.removeProject(ctx, tx, id); err != nil {
				return err
			}
		}

		if _, err := tx.DeleteActivityByActor(ctx, targetUserID); err != nil {
			return fmt.Errorf("delete activity of user %d: %w", targetUserID, err)
		}
		if err := tx.DeleteUser(ctx, targetUserID); err != nil {
			return fmt.Errorf("delete user %d: %w", targetUserID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	d.audit.Record(ctx, caller, models.ActionDelete, models.ResourceUser, models.Ref(targetUserID),
		fmt.Sprintf("Deleted user %q", name), before, nil)
	return nil
}
