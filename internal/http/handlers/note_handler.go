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

type NoteHandler struct {
	noteService *services.NoteService
	log         *zap.Logger
}

func NewNoteHandler(noteService *services.NoteService, log *zap.Logger) *NoteHandler {
	return &NoteHandler{noteService: noteService, log: log}
}

func validPriority(p string) bool {
	switch p {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
		return true
	}
	return false
}

func (h *NoteHandler) ListNotes(c *fiber.Ctx) error {
	notes, err := h.noteService.ListVisible(c.UserContext(), middleware.GetIdentity(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: notes})
}

func (h *NoteHandler) CreateNote(c *fiber.Ctx) error {
	var req dto.CreateNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return badRequest(c, "title is required")
	}
	if req.Priority != "" && !validPriority(req.Priority) {
		return badRequest(c, "priority must be Low, Medium or High")
	}

	note := &models.Note{Title: req.Title, Content: req.Content, Priority: req.Priority}
	if err := h.noteService.Create(c.UserContext(), middleware.GetIdentity(c), note, req.ShareWith, req.CanEdit); err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: note})
}

func (h *NoteHandler) GetNote(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid note id")
	}
	note, perm, err := h.noteService.Get(c.UserContext(), middleware.GetIdentity(c), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.NoteResponse{Note: note, Permission: string(perm)}})
}

func (h *NoteHandler) UpdateNote(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid note id")
	}
	var req dto.UpdateNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return badRequest(c, "title cannot be empty")
	}
	if req.Priority != nil && !validPriority(*req.Priority) {
		return badRequest(c, "priority must be Low, Medium or High")
	}

	patch := models.NotePatch{Title: req.Title, Content: req.Content, Priority: req.Priority, IsDone: req.IsDone}
	note, err := h.noteService.Update(c.UserContext(), middleware.GetIdentity(c), id, patch)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: note})
}

func (h *NoteHandler) DeleteNote(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid note id")
	}
	if err := h.noteService.Delete(c.UserContext(), middleware.GetIdentity(c), id); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *NoteHandler) UpdateSharing(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid note id")
	}
	var req dto.ShareNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	if err := h.noteService.UpdateSharing(c.UserContext(), middleware.GetIdentity(c), id, req.UserIDs, req.CanEdit); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *NoteHandler) RevokeShare(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid note id")
	}
	userID, ok := paramID(c, "userId")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	if err := h.noteService.Revoke(c.UserContext(), middleware.GetIdentity(c), id, userID); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}
