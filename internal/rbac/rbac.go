package rbac

import (
	"fmt"

	"github.com/project-tracker/backend/internal/apperrors"
	"github.com/project-tracker/backend/internal/models"
)

// Permission is a caller's effective access to one resource.
type Permission string

const (
	PermNone         Permission = "none"
	PermSharedViewer Permission = "shared-viewer"
	PermSharedEditor Permission = "shared-editor"
	PermOwner        Permission = "owner"
)

// Operation is the kind of access a request needs.
type Operation string

const (
	OpRead        Operation = "read"
	OpEditContent Operation = "edit_content" // content, completion, milestone status
	OpEditMeta    Operation = "edit_meta"    // title, priority, project name
	OpShare       Operation = "share"
	OpDelete      Operation = "delete"
)

// PermissionOperations defines what each permission allows.
var PermissionOperations = map[Permission][]Operation{
	PermOwner: {
		OpRead, OpEditContent, OpEditMeta, OpShare, OpDelete,
	},
	PermSharedEditor: {
		OpRead, OpEditContent,
		// Editors CANNOT: OpEditMeta, OpShare, OpDelete
	},
	PermSharedViewer: {
		OpRead,
	},
	PermNone: {},
}

// Allows checks if a permission covers an operation.
func Allows(p Permission, op Operation) bool {
	ops, ok := PermissionOperations[p]
	if !ok {
		return false
	}
	for _, o := range ops {
		if o == op {
			return true
		}
	}
	return false
}

// Authorize returns ErrForbidden unless p covers op.
func Authorize(p Permission, op Operation) error {
	if Allows(p, op) {
		return nil
	}
	return fmt.Errorf("%w: %s access does not allow %s", apperrors.ErrForbidden, p, op)
}

// IsElevated reports whether an account role carries admin rights over
// projects, users and the activity log.
func IsElevated(role string) bool {
	return role == models.RoleAdmin || role == models.RoleOwner
}
