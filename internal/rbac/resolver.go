package rbac

import (
	"context"
	"errors"

	"github.com/project-tracker/backend/internal/apperrors"
	"github.com/project-tracker/backend/internal/models"
)

// Resource is anything with a single immutable owner.
type Resource interface {
	ResourceType() string
	ResourceID() int64
	ResourceOwnerID() int64
}

// GrantLookup finds the share grant for (note, grantee).
// It returns apperrors.ErrNotFound when none exists.
type GrantLookup interface {
	GetGrant(ctx context.Context, noteID, granteeID int64) (*models.ShareGrant, error)
}

type Resolver struct {
	grants GrantLookup
}

func NewResolver(grants GrantLookup) *Resolver {
	return &Resolver{grants: grants}
}

// Resolve determines the caller's effective permission on res.
// Ownership always wins over a grant; only notes can be shared.
func (r *Resolver) Resolve(ctx context.Context, callerID int64, res Resource) (Permission, error) {
	if res == nil || res.ResourceOwnerID() <= 0 || callerID <= 0 {
		return PermNone, nil
	}
	if res.ResourceOwnerID() == callerID {
		return PermOwner, nil
	}
	if res.ResourceType() != models.ResourceNote {
		return PermNone, nil
	}

	grant, err := r.grants.GetGrant(ctx, res.ResourceID(), callerID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return PermNone, nil
	}
	if err != nil {
		return PermNone, apperrors.Store(err)
	}
	if grant.CanEdit {
		return PermSharedEditor, nil
	}
	return PermSharedViewer, nil
}

// Require resolves the caller's permission and fails closed unless it
// allows every operation in ops.
func (r *Resolver) Require(ctx context.Context, callerID int64, res Resource, ops ...Operation) (Permission, error) {
	perm, err := r.Resolve(ctx, callerID, res)
	if err != nil {
		return PermNone, err
	}
	for _, op := range ops {
		if err := Authorize(perm, op); err != nil {
			return perm, err
		}
	}
	return perm, nil
}
