package services

import (
	"context"
	"fmt"

	"github.com/project-tracker/backend/internal/apperrors"
	"github.com/project-tracker/backend/internal/models"
	"github.com/project-tracker/backend/internal/rbac"
	"go.uber.org/zap"
)

type ProjectStore interface {
	Create(ctx context.Context, p *models.Project) error
	GetByID(ctx context.Context, id int64) (*models.Project, error)
	List(ctx context.Context, ownerID *int64) ([]models.Project, error)
	Update(ctx context.Context, p *models.Project) error
	AddImage(ctx context.Context, img *models.ProjectImage) error
	ListImages(ctx context.Context, projectID int64) ([]models.ProjectImage, error)
	ListMilestones(ctx context.Context, projectID int64) ([]models.Milestone, error)
	AddMilestone(ctx context.Context, m *models.Milestone) error
	GetMilestone(ctx context.Context, id int64) (*models.Milestone, error)
	UpdateMilestoneStatus(ctx context.Context, id int64, status string) error
	DeleteMilestone(ctx context.Context, id int64) error
}

type ProjectService struct {
	projects ProjectStore
	resolver *rbac.Resolver
	audit    *AuditLogger
	log      *zap.Logger
}

func NewProjectService(projects ProjectStore, resolver *rbac.Resolver, audit *AuditLogger, log *zap.Logger) *ProjectService {
	return &ProjectService{
		projects: projects,
		resolver: resolver,
		audit:    audit,
		log:      log.Named("projects"),
	}
}

// authorizeProject lets elevated roles through and otherwise defers to the
// resolver. Projects are never shared, so that means owner-only.
func authorizeProject(ctx context.Context, resolver *rbac.Resolver, caller *models.Identity, p *models.Project, op rbac.Operation) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	if rbac.IsElevated(caller.Role) {
		return nil
	}
	_, err := resolver.Require(ctx, caller.ID, p, op)
	return err
}

func (s *ProjectService) Create(ctx context.Context, caller *models.Identity, p *models.Project) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	p.OwnerID = caller.ID
	if p.Status == "" {
		p.Status = "active"
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	s.audit.Record(ctx, caller, models.ActionCreate, models.ResourceProject, models.Ref(p.ID),
		fmt.Sprintf("Created project %q", p.Name), nil, p.Snapshot())
	return nil
}

func (s *ProjectService) Get(ctx context.Context, caller *models.Identity, id int64) (*models.Project, error) {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("project %d: %w", id, err)
	}
	if err := authorizeProject(ctx, s.resolver, caller, p, rbac.OpRead); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns every project to elevated roles and only the caller's own
// projects to everyone else.
func (s *ProjectService) List(ctx context.Context, caller *models.Identity) ([]models.Project, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	var owner *int64
	if !rbac.IsElevated(caller.Role) {
		owner = models.Ref(caller.ID)
	}
	projects, err := s.projects.List(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// Detail returns the project with its images and milestones.
func (s *ProjectService) Detail(ctx context.Context, caller *models.Identity, id int64) (*models.ProjectDetail, error) {
	p, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	images, err := s.projects.ListImages(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("images of project %d: %w", id, err)
	}
	milestones, err := s.projects.ListMilestones(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("milestones of project %d: %w", id, err)
	}
	return &models.ProjectDetail{Project: *p, Images: images, Milestones: milestones}, nil
}

// Update replaces name, description and status.
func (s *ProjectService) Update(ctx context.Context, caller *models.Identity, id int64, changes models.Project) (*models.Project, error) {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("project %d: %w", id, err)
	}
	if err := authorizeProject(ctx, s.resolver, caller, p, rbac.OpEditMeta); err != nil {
		return nil, err
	}

	before := p.Snapshot()
	p.Name = changes.Name
	p.Description = changes.Description
	if changes.Status != "" {
		p.Status = changes.Status
	}
	if err := s.projects.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update project %d: %w", id, err)
	}

	s.audit.Record(ctx, caller, models.ActionUpdate, models.ResourceProject, models.Ref(p.ID),
		fmt.Sprintf("Updated project %q", p.Name), before, p.Snapshot())
	return p, nil
}

// AddImage records an already-stored image against the project.
func (s *ProjectService) AddImage(ctx context.Context, caller *models.Identity, projectID int64, imageURL string) (*models.ProjectImage, error) {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("project %d: %w", projectID, err)
	}
	if err := authorizeProject(ctx, s.resolver, caller, p, rbac.OpEditContent); err != nil {
		return nil, err
	}

	img := &models.ProjectImage{ProjectID: projectID, ImageURL: imageURL}
	if err := s.projects.AddImage(ctx, img); err != nil {
		return nil, fmt.Errorf("add image to project %d: %w", projectID, err)
	}
	s.audit.Record(ctx, caller, models.ActionUpdate, models.ResourceProject, models.Ref(projectID),
		fmt.Sprintf("Added an image to project %q", p.Name), nil, map[string]any{"image_url": imageURL})
	return img, nil
}

func (s *ProjectService) AddMilestone(ctx context.Context, caller *models.Identity, m *models.Milestone) error {
	p, err := s.projects.GetByID(ctx, m.ProjectID)
	if err != nil {
		return fmt.Errorf("project %d: %w", m.ProjectID, err)
	}
	if err := authorizeProject(ctx, s.resolver, caller, p, rbac.OpEditContent); err != nil {
		return err
	}
	if m.Status == "" {
		m.Status = models.MilestonePending
	}
	if !models.IsValidMilestoneStatus(m.Status) {
		return fmt.Errorf("%w: unknown milestone status %q", apperrors.ErrInvalidInput, m.Status)
	}

	if err := s.projects.AddMilestone(ctx, m); err != nil {
		return fmt.Errorf("add milestone: %w", err)
	}
	s.audit.Record(ctx, caller, models.ActionCreate, models.ResourceMilestone, models.Ref(m.ID),
		fmt.Sprintf("Created milestone %q in project %q", m.Title, p.Name), nil, m.Snapshot())
	return nil
}

func (s *ProjectService) UpdateMilestoneStatus(ctx context.Context, caller *models.Identity, id int64, status string) (*models.Milestone, error) {
	if !models.IsValidMilestoneStatus(status) {
		return nil, fmt.Errorf("%w: unknown milestone status %q", apperrors.ErrInvalidInput, status)
	}
	m, p, err := s.milestoneWithProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeProject(ctx, s.resolver, caller, p, rbac.OpEditContent); err != nil {
		return nil, err
	}

	before := m.Snapshot()
	if err := s.projects.UpdateMilestoneStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("update milestone %d: %w", id, err)
	}
	m.Status = status

	s.audit.Record(ctx, caller, models.ActionUpdate, models.ResourceMilestone, models.Ref(id),
		fmt.Sprintf("Set milestone %q to %s", m.Title, status), before, m.Snapshot())
	return m, nil
}

func (s *ProjectService) DeleteMilestone(ctx context.Context, caller *models.Identity, id int64) error {
	m, p, err := s.milestoneWithProject(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizeProject(ctx, s.resolver, caller, p, rbac.OpDelete); err != nil {
		return err
	}
	if err := s.projects.DeleteMilestone(ctx, id); err != nil {
		return fmt.Errorf("delete milestone %d: %w", id, err)
	}
	s.audit.Record(ctx, caller, models.ActionDelete, models.ResourceMilestone, models.Ref(id),
		fmt.Sprintf("Deleted milestone %q from project %q", m.Title, p.Name), m.Snapshot(), nil)
	return nil
}

func (s *ProjectService) milestoneWithProject(ctx context.Context, id int64) (*models.Milestone, *models.Project, error) {
	m, err := s.projects.GetMilestone(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("milestone %d: %w", id, err)
	}
	p, err := s.projects.GetByID(ctx, m.ProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("project %d of milestone %d: %w", m.ProjectID, id, err)
	}
	return m, p, nil
}
