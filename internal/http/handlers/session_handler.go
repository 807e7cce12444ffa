package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/project-tracker/backend/internal/http/dto"
	"github.com/project-tracker/backend/internal/middleware"
	"github.com/project-tracker/backend/internal/services"
	"go.uber.org/zap"
)

// SessionHandler marks the start and end of a session for the audit trail.
// The bearer token itself is issued by the identity provider.
type SessionHandler struct {
	sessions *services.SessionService
	log      *zap.Logger
}

func NewSessionHandler(sessions *services.SessionService, log *zap.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, log: log}
}

func (h *SessionHandler) Login(c *fiber.Ctx) error {
	id := middleware.GetIdentity(c)
	if err := h.sessions.RecordLogin(c.UserContext(), id); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: id})
}

func (h *SessionHandler) Logout(c *fiber.Ctx) error {
	if err := h.sessions.RecordLogout(c.UserContext(), middleware.GetIdentity(c)); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}
