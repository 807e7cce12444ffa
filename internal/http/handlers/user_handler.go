package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/project-tracker/backend/internal/http/dto"
	"github.com/project-tracker/backend/internal/middleware"
	"github.com/project-tracker/backend/internal/repositories"
	"github.com/project-tracker/backend/internal/services"
	"go.uber.org/zap"
)

type UserHandler struct {
	userRepo *repositories.UserRepo
	deletion *services.DeletionCoordinator
	log      *zap.Logger
}

func NewUserHandler(userRepo *repositories.UserRepo, deletion *services.DeletionCoordinator, log *zap.Logger) *UserHandler {
	return &UserHandler{userRepo: userRepo, deletion: deletion, log: log}
}

func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	id := middleware.GetIdentity(c)
	user, err := h.userRepo.GetByID(c.UserContext(), id.ID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: user})
}

// ListUsers backs the share picker.
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.userRepo.List(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: users})
}

func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	if err := h.deletion.DeleteUser(c.UserContext(), middleware.GetIdentity(c), id); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}
