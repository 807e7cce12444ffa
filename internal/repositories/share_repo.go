package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/project-tracker/backend/internal/models"
)

type ShareRepo struct {
	db DBTX
}

func NewShareRepo(db DBTX) *ShareRepo {
	return &ShareRepo{db: db}
}

const shareColumns = `s.note_id, s.shared_by_user_id, s.shared_with_user_id, COALESCE(u.display_name, ''), s.can_edit, s.created_at`

func scanGrant(row pgx.Row, g *models.ShareGrant) error {
	return row.Scan(&g.NoteID, &g.GrantedByUserID, &g.GranteeUserID, &g.GranteeName, &g.CanEdit, &g.CreatedAt)
}

func (r *ShareRepo) GetGrant(ctx context.Context, noteID, granteeID int64) (*models.ShareGrant, error) {
	var g models.ShareGrant
	err := scanGrant(r.db.QueryRow(ctx, `
		SELECT `+shareColumns+`
		FROM note_shares s LEFT JOIN users u ON u.id = s.shared_with_user_id
		WHERE s.note_id = $1 AND s.shared_with_user_id = $2
	`, noteID, granteeID), &g)
	if err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

func (r *ShareRepo) ListByNote(ctx context.Context, noteID int64) ([]models.ShareGrant, error) {
	byNote, err := r.ListByNotes(ctx, []int64{noteID})
	if err != nil {
		return nil, err
	}
	if byNote[noteID] == nil {
		return []models.ShareGrant{}, nil
	}
	return byNote[noteID], nil
}

func (r *ShareRepo) ListByNotes(ctx context.Context, noteIDs []int64) (map[int64][]models.ShareGrant, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+shareColumns+`
		FROM note_shares s LEFT JOIN users u ON u.id = s.shared_with_user_id
		WHERE s.note_id = ANY($1)
		ORDER BY s.note_id, s.shared_with_user_id
	`, noteIDs)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	out := make(map[int64][]models.ShareGrant, len(noteIDs))
	for rows.Next() {
		var g models.ShareGrant
		if err := scanGrant(rows, &g); err != nil {
			return nil, translate(err)
		}
		out[g.NoteID] = append(out[g.NoteID], g)
	}
	return out, translate(rows.Err())
}

// ReplaceForNote swaps the note's whole grant set for grantees, atomically.
// The upsert keeps (note_id, shared_with_user_id) unique even when
// grantees repeats an id.
func (r *ShareRepo) ReplaceForNote(ctx context.Context, noteID, grantedBy int64, grantees []int64, canEdit bool) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM note_shares WHERE note_id = $1`, noteID); err != nil {
			return err
		}
		for _, grantee := range grantees {
			if _, err := tx.Exec(ctx, `
				INSERT INTO note_shares (note_id, shared_by_user_id, shared_with_user_id, can_edit)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (note_id, shared_with_user_id) DO UPDATE SET
					shared_by_user_id = EXCLUDED.shared_by_user_id,
					can_edit = EXCLUDED.can_edit
			`, noteID, grantedBy, grantee, canEdit); err != nil {
				return err
			}
		}
		return nil
	})
	return translate(err)
}

func (r *ShareRepo) Delete(ctx context.Context, noteID, granteeID int64) error {
	return requireAffected(r.db.Exec(ctx,
		`DELETE FROM note_shares WHERE note_id = $1 AND shared_with_user_id = $2`, noteID, granteeID))
}

func (r *ShareRepo) DeleteByNote(ctx context.Context, noteID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM note_shares WHERE note_id = $1`, noteID)
	if err != nil {
		return 0, translate(err)
	}
	return tag.RowsAffected(), nil
}

// DeleteByUser removes every grant the user gave or received.
func (r *ShareRepo) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM note_shares WHERE shared_by_user_id = $1 OR shared_with_user_id = $1`, userID)
	if err != nil {
		return 0, translate(err)
	}
	return tag.RowsAffected(), nil
}

// DeleteOnNotesOwnedBy removes grants on the owner's notes regardless of who
// granted them.
func (r *ShareRepo) DeleteOnNotesOwnedBy(ctx context.Context, ownerID int64) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM note_shares WHERE note_id IN (SELECT id FROM notes WHERE user_id = $1)`, ownerID)
	if err != nil {
		return 0, translate(err)
	}
	return tag.RowsAffected(), nil
}
