package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/project-tracker/backend/internal/http/dto"
	"github.com/project-tracker/backend/internal/middleware"
	"github.com/project-tracker/backend/internal/models"
	"github.com/project-tracker/backend/internal/services"
	"go.uber.org/zap"
)

type ProjectHandler struct {
	projectService *services.ProjectService
	deletion       *services.DeletionCoordinator
	log            *zap.Logger
}

func NewProjectHandler(projectService *services.ProjectService, deletion *services.DeletionCoordinator, log *zap.Logger) *ProjectHandler {
	return &ProjectHandler{projectService: projectService, deletion: deletion, log: log}
}

func (h *ProjectHandler) CreateProject(c *fiber.Ctx) error {
	var req dto.CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return badRequest(c, "name is required")
	}

	p := &models.Project{Name: req.Name, Description: req.Description, Status: req.Status}
	if err := h.projectService.Create(c.UserContext(), middleware.GetIdentity(c), p); err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: p})
}

func (h *ProjectHandler) ListProjects(c *fiber.Ctx) error {
	projects, err := h.projectService.List(c.UserContext(), middleware.GetIdentity(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: projects})
}

func (h *ProjectHandler) GetProject(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid project id")
	}
	detail, err := h.projectService.Detail(c.UserContext(), middleware.GetIdentity(c), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: detail})
}

func (h *ProjectHandler) UpdateProject(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid project id")
	}
	var req dto.UpdateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return badRequest(c, "name is required")
	}

	changes := models.Project{Name: req.Name, Description: req.Description, Status: req.Status}
	p, err := h.projectService.Update(c.UserContext(), middleware.GetIdentity(c), id, changes)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: p})
}

func (h *ProjectHandler) DeleteProject(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid project id")
	}
	if err := h.deletion.DeleteProject(c.UserContext(), middleware.GetIdentity(c), id); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *ProjectHandler) AddImage(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid project id")
	}
	var req dto.AddImageRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.ImageURL) == "" {
		return badRequest(c, "image_url is required")
	}
	img, err := h.projectService.AddImage(c.UserContext(), middleware.GetIdentity(c), id, req.ImageURL)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: img})
}

func (h *ProjectHandler) CreateMilestone(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid project id")
	}
	var req dto.CreateMilestoneRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return badRequest(c, "title is required")
	}

	dueDate, err := parseDay("due_date", req.DueDate)
	if err != nil {
		return badRequest(c, err.Error())
	}

	m := &models.Milestone{ProjectID: id, Title: req.Title, Description: req.Description, DueDate: dueDate, Status: req.Status}
	if err := h.projectService.AddMilestone(c.UserContext(), middleware.GetIdentity(c), m); err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: m})
}

func (h *ProjectHandler) UpdateMilestone(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid milestone id")
	}
	var req dto.UpdateMilestoneRequest
	if err := c.BodyParser(&req); err != nil || req.Status == "" {
		return badRequest(c, "status is required")
	}
	m, err := h.projectService.UpdateMilestoneStatus(c.UserContext(), middleware.GetIdentity(c), id, req.Status)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: m})
}

func (h *ProjectHandler) DeleteMilestone(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid milestone id")
	}
	if err := h.projectService.DeleteMilestone(c.UserContext(), middleware.GetIdentity(c), id); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}
