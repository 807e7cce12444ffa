package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/project-tracker/backend/internal/apperrors"
	"github.com/project-tracker/backend/internal/http/dto"
	"github.com/project-tracker/backend/internal/middleware"
	"go.uber.org/zap"
)

// writeError maps a service error onto a status code. Store failures are
// logged and reported without detail.
func writeError(c *fiber.Ctx, log *zap.Logger, err error) error {
	reqID, _ := c.Locals(middleware.CtxRequestID).(string)

	status := fiber.StatusInternalServerError
	msg := "internal error"
	switch apperrors.Classify(err) {
	case apperrors.KindNotFound:
		status, msg = fiber.StatusNotFound, err.Error()
	case apperrors.KindForbidden:
		status, msg = fiber.StatusForbidden, err.Error()
	case apperrors.KindInvalid:
		status, msg = fiber.StatusBadRequest, err.Error()
	default:
		log.Error("request failed",
			zap.String("request_id", reqID),
			zap.String("path", c.Path()),
			zap.Error(err))
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: msg, RequestID: reqID})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: msg})
}

func paramID(c *fiber.Ctx, name string) (int64, bool) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, false
	}
	return int64(id), true
}
