package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/project-tracker/backend/internal/models"
)

// ActivityRepo is the append-only audit store. Rows are never updated; the
// only delete is the purge of a removed account's own trail.
type ActivityRepo struct {
	db DBTX
}

func NewActivityRepo(db DBTX) *ActivityRepo {
	return &ActivityRepo{db: db}
}

const activityColumns = `id, user_id, username, action_type, resource_type, resource_id,
		       description, old_values, new_values, ip_address, created_at`

func (r *ActivityRepo) Append(ctx context.Context, rec *models.ActivityRecord) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO activity_log (user_id, username, action_type, resource_type, resource_id,
		                          description, old_values, new_values, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, rec.ActorUserID, rec.ActorDisplayName, rec.ActionType, rec.ResourceType, rec.ResourceID,
		rec.Description, nullJSON(rec.Before), nullJSON(rec.After), rec.SourceAddress,
	).Scan(&rec.ID, &rec.OccurredAt)
	return translate(err)
}

func nullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

// buildActivityWhere renders f as a WHERE clause with positional args
// starting at $1.
func buildActivityWhere(f models.ActivityFilter) (string, []any) {
	args := []any{}
	where := []string{}
	argIdx := 1

	if f.ActorID != nil {
		where = append(where, fmt.Sprintf("user_id = $%d", argIdx))
		args = append(args, *f.ActorID)
		argIdx++
	}
	if f.ActionType != nil {
		where = append(where, fmt.Sprintf("action_type = $%d", argIdx))
		args = append(args, *f.ActionType)
		argIdx++
	}
	if f.ResourceType != nil {
		where = append(where, fmt.Sprintf("resource_type = $%d", argIdx))
		args = append(args, *f.ResourceType)
		argIdx++
	}

	from, until := f.DayBounds()
	if from != nil {
		where = append(where, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, *from)
		argIdx++
	}
	if until != nil {
		where = append(where, fmt.Sprintf("created_at < $%d", argIdx))
		args = append(args, *until)
		argIdx++
	}

	if f.Search != nil && strings.TrimSpace(*f.Search) != "" {
		where = append(where, fmt.Sprintf("(description ILIKE $%d OR username ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+escapeLike(strings.TrimSpace(*f.Search))+"%")
		argIdx++
	}

	if len(where) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (r *ActivityRepo) Count(ctx context.Context, f models.ActivityFilter) (int, error) {
	where, args := buildActivityWhere(f)
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM activity_log`+where, args...).Scan(&total)
	return total, translate(err)
}

// List returns one page of matching records, newest first.
func (r *ActivityRepo) List(ctx context.Context, f models.ActivityFilter, limit, offset int) ([]models.ActivityRecord, error) {
	where, args := buildActivityWhere(f)
	query := `SELECT ` + activityColumns + ` FROM activity_log` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	records := []models.ActivityRecord{}
	for rows.Next() {
		var rec models.ActivityRecord
		var before, after []byte
		if err := rows.Scan(&rec.ID, &rec.ActorUserID, &rec.ActorDisplayName, &rec.ActionType,
			&rec.ResourceType, &rec.ResourceID, &rec.Description, &before, &after,
			&rec.SourceAddress, &rec.OccurredAt); err != nil {
			return nil, translate(err)
		}
		rec.Before, rec.After = before, after
		records = append(records, rec)
	}
	return records, translate(rows.Err())
}

// ---- Aggregates ----

func (r *ActivityRepo) CountSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM activity_log WHERE created_at >= $1`, since).Scan(&n)
	return n, translate(err)
}

func (r *ActivityRepo) CountByActionSince(ctx context.Context, since time.Time) ([]models.ActionCount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT action_type, COUNT(*) AS cnt
		FROM activity_log WHERE created_at >= $1
		GROUP BY action_type
		ORDER BY cnt DESC, action_type
	`, since)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	counts := []models.ActionCount{}
	for rows.Next() {
		var c models.ActionCount
		if err := rows.Scan(&c.ActionType, &c.Count); err != nil {
			return nil, translate(err)
		}
		counts = append(counts, c)
	}
	return counts, translate(rows.Err())
}

func (r *ActivityRepo) TopActorsSince(ctx context.Context, since time.Time, limit int) ([]models.ActorCount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT user_id, MAX(username) AS username, COUNT(*) AS cnt
		FROM activity_log WHERE created_at >= $1
		GROUP BY user_id
		ORDER BY cnt DESC, user_id
		LIMIT $2
	`, since, limit)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	actors := []models.ActorCount{}
	for rows.Next() {
		var a models.ActorCount
		if err := rows.Scan(&a.ActorUserID, &a.ActorDisplayName, &a.Count); err != nil {
			return nil, translate(err)
		}
		actors = append(actors, a)
	}
	return actors, translate(rows.Err())
}

// ---- Filter options ----

func (r *ActivityRepo) DistinctActionTypes(ctx context.Context) ([]string, error) {
	return r.distinctStrings(ctx, `SELECT DISTINCT action_type FROM activity_log ORDER BY action_type`)
}

func (r *ActivityRepo) DistinctResourceTypes(ctx context.Context) ([]string, error) {
	return r.distinctStrings(ctx, `SELECT DISTINCT resource_type FROM activity_log ORDER BY resource_type`)
}

func (r *ActivityRepo) distinctStrings(ctx context.Context, query string) ([]string, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, translate(err)
		}
		values = append(values, v)
	}
	return values, translate(rows.Err())
}

func (r *ActivityRepo) DistinctActors(ctx context.Context) ([]models.ActorOption, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT user_id, username
		FROM activity_log
		ORDER BY username, user_id
	`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	actors := []models.ActorOption{}
	for rows.Next() {
		var a models.ActorOption
		if err := rows.Scan(&a.ActorUserID, &a.ActorDisplayName); err != nil {
			return nil, translate(err)
		}
		actors = append(actors, a)
	}
	return actors, translate(rows.Err())
}

// DeleteByActor purges the trail written by a deleted account.
func (r *ActivityRepo) DeleteByActor(ctx context.Context, actorID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM activity_log WHERE user_id = $1`, actorID)
	if err != nil {
		return 0, translate(err)
	}
	return tag.RowsAffected(), nil
}
