package repositories

import (
	"context"

	"github.com/project-tracker/backend/internal/models"
)

type NoteRepo struct {
	db DBTX
}

func NewNoteRepo(db DBTX) *NoteRepo {
	return &NoteRepo{db: db}
}

func (r *NoteRepo) Create(ctx context.Context, n *models.Note) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO notes (user_id, title, content, priority, is_done)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, n.OwnerID, n.Title, n.Content, n.Priority, n.IsDone).Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
	return translate(err)
}

func (r *NoteRepo) GetByID(ctx context.Context, id int64) (*models.Note, error) {
	var n models.Note
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, title, content, priority, is_done, created_at, updated_at
		FROM notes WHERE id = $1
	`, id).Scan(&n.ID, &n.OwnerID, &n.Title, &n.Content, &n.Priority, &n.IsDone, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &n, nil
}

// Update rewrites title, content, priority and completion. user_id is
// immutable and never part of the statement.
func (r *NoteRepo) Update(ctx context.Context, n *models.Note) error {
	err := r.db.QueryRow(ctx, `
		UPDATE notes SET title = $1, content = $2, priority = $3, is_done = $4, updated_at = now()
		WHERE id = $5
		RETURNING updated_at
	`, n.Title, n.Content, n.Priority, n.IsDone, n.ID).Scan(&n.UpdatedAt)
	return translate(err)
}

func (r *NoteRepo) Delete(ctx context.Context, id int64) error {
	return requireAffected(r.db.Exec(ctx, `DELETE FROM notes WHERE id = $1`, id))
}

func (r *NoteRepo) DeleteByOwner(ctx context.Context, ownerID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM notes WHERE user_id = $1`, ownerID)
	if err != nil {
		return 0, translate(err)
	}
	return tag.RowsAffected(), nil
}

// ListVisible returns the notes a user owns or has been granted, newest first.
// Owned notes carry their current grant list.
func (r *NoteRepo) ListVisible(ctx context.Context, userID int64) ([]models.NoteView, error) {
	rows, err := r.db.Query(ctx, `
		SELECT n.id, n.user_id, n.title, n.content, n.priority, n.is_done, n.created_at, n.updated_at,
		       n.user_id <> $1 AS shared_with_me,
		       COALESCE(ns.can_edit, false) AS can_edit_shared
		FROM notes n
		LEFT JOIN note_shares ns ON ns.note_id = n.id AND ns.shared_with_user_id = $1
		WHERE n.user_id = $1 OR ns.note_id IS NOT NULL
		ORDER BY n.created_at DESC, n.id DESC
	`, userID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	views := []models.NoteView{}
	var owned []int64
	for rows.Next() {
		var v models.NoteView
		if err := rows.Scan(&v.ID, &v.OwnerID, &v.Title, &v.Content, &v.Priority, &v.IsDone,
			&v.CreatedAt, &v.UpdatedAt, &v.SharedWithMe, &v.CanEditShared); err != nil {
			return nil, translate(err)
		}
		if !v.SharedWithMe {
			owned = append(owned, v.ID)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err)
	}
	if len(owned) == 0 {
		return views, nil
	}

	grants, err := NewShareRepo(r.db).ListByNotes(ctx, owned)
	if err != nil {
		return nil, err
	}
	for i := range views {
		views[i].SharedWith = grants[views[i].ID]
	}
	return views, nil
}
