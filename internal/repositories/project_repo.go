package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/project-tracker/backend/internal/models"
)

type ProjectRepo struct {
	db DBTX
}

func NewProjectRepo(db DBTX) *ProjectRepo {
	return &ProjectRepo{db: db}
}

func (r *ProjectRepo) Create(ctx context.Context, p *models.Project) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO projects (user_id, name, description, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, p.OwnerID, p.Name, p.Description, p.Status).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return translate(err)
}

func (r *ProjectRepo) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	var p models.Project
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, name, description, status, created_at, updated_at
		FROM projects WHERE id = $1
	`, id).Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// List returns projects newest first. A nil ownerID lists every project.
func (r *ProjectRepo) List(ctx context.Context, ownerID *int64) ([]models.Project, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, name, description, status, created_at, updated_at
		FROM projects
		WHERE ($1::bigint IS NULL OR user_id = $1)
		ORDER BY created_at DESC, id DESC
	`, ownerID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, translate(err)
		}
		projects = append(projects, p)
	}
	return projects, translate(rows.Err())
}

// Update rewrites the mutable fields; the owner is never changed.
func (r *ProjectRepo) Update(ctx context.Context, p *models.Project) error {
	err := r.db.QueryRow(ctx, `
		UPDATE projects SET name = $1, description = $2, status = $3, updated_at = now()
		WHERE id = $4
		RETURNING updated_at
	`, p.Name, p.Description, p.Status, p.ID).Scan(&p.UpdatedAt)
	return translate(err)
}

func (r *ProjectRepo) Delete(ctx context.Context, id int64) error {
	return requireAffected(r.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id))
}

func (r *ProjectRepo) ListIDsByOwner(ctx context.Context, ownerID int64) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM projects WHERE user_id = $1 ORDER BY id`, ownerID)
	if err != nil {
		return nil, translate(err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	return ids, translate(err)
}

// ---- Images ----

func (r *ProjectRepo) AddImage(ctx context.Context, img *models.ProjectImage) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO project_images (project_id, image_url)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, img.ProjectID, img.ImageURL).Scan(&img.ID, &img.CreatedAt)
	return translate(err)
}

func (r *ProjectRepo) ListImages(ctx context.Context, projectID int64) ([]models.ProjectImage, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, project_id, image_url, created_at
		FROM project_images WHERE project_id = $1 ORDER BY id
	`, projectID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	images := []models.ProjectImage{}
	for rows.Next() {
		var img models.ProjectImage
		if err := rows.Scan(&img.ID, &img.ProjectID, &img.ImageURL, &img.CreatedAt); err != nil {
			return nil, translate(err)
		}
		images = append(images, img)
	}
	return images, translate(rows.Err())
}

func (r *ProjectRepo) DeleteImagesByProject(ctx context.Context, projectID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM project_images WHERE project_id = $1`, projectID)
	if err != nil {
		return 0, translate(err)
	}
	return tag.RowsAffected(), nil
}

// ---- Milestones ----

func (r *ProjectRepo) AddMilestone(ctx context.Context, m *models.Milestone) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO milestones (project_id, title, description, due_date, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, m.ProjectID, m.Title, m.Description, m.DueDate, m.Status).Scan(&m.ID, &m.CreatedAt)
	return translate(err)
}

func (r *ProjectRepo) GetMilestone(ctx context.Context, id int64) (*models.Milestone, error) {
	var m models.Milestone
	err := r.db.QueryRow(ctx, `
		SELECT id, project_id, title, description, due_date, status, created_at
		FROM milestones WHERE id = $1
	`, id).Scan(&m.ID, &m.ProjectID, &m.Title, &m.Description, &m.DueDate, &m.Status, &m.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r *ProjectRepo) ListMilestones(ctx context.Context, projectID int64) ([]models.Milestone, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, project_id, title, description, due_date, status, created_at
		FROM milestones WHERE project_id = $1 ORDER BY due_date NULLS LAST, id
	`, projectID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	milestones := []models.Milestone{}
	for rows.Next() {
		var m models.Milestone
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Title, &m.Description, &m.DueDate, &m.Status, &m.CreatedAt); err != nil {
			return nil, translate(err)
		}
		milestones = append(milestones, m)
	}
	return milestones, translate(rows.Err())
}

func (r *ProjectRepo) UpdateMilestoneStatus(ctx context.Context, id int64, status string) error {
	return requireAffected(r.db.Exec(ctx, `UPDATE milestones SET status = $1 WHERE id = $2`, status, id))
}

func (r *ProjectRepo) DeleteMilestone(ctx context.Context, id int64) error {
	return requireAffected(r.db.Exec(ctx, `DELETE FROM milestones WHERE id = $1`, id))
}

func (r *ProjectRepo) DeleteMilestonesByProject(ctx context.Context, projectID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM milestones WHERE project_id = $1`, projectID)
	if err != nil {
		return 0, translate(err)
	}
	return tag.RowsAffected(), nil
}
