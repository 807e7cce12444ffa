package handlers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/project-tracker/backend/internal/http/dto"
	"github.com/project-tracker/backend/internal/middleware"
	"github.com/project-tracker/backend/internal/models"
	"github.com/project-tracker/backend/internal/services"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

type ActivityHandler struct {
	query *services.ActivityQueryEngine
	log   *zap.Logger
}

func NewActivityHandler(query *services.ActivityQueryEngine, log *zap.Logger) *ActivityHandler {
	return &ActivityHandler{query: query, log: log}
}

func (h *ActivityHandler) ListActivity(c *fiber.Ctx) error {
	f, err := parseActivityFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 0)

	result, err := h.query.Query(c.UserContext(), middleware.GetIdentity(c), f, page, limit)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: result})
}

func (h *ActivityHandler) Stats(c *fiber.Ctx) error {
	days := c.QueryInt("days", 0)
	stats, err := h.query.Stats(c.UserContext(), middleware.GetIdentity(c), days)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: stats})
}

func (h *ActivityHandler) Filters(c *fiber.Ctx) error {
	opts, err := h.query.FilterOptions(c.UserContext(), middleware.GetIdentity(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: opts})
}

// parseActivityFilter reads the filter query parameters. Empty values and
// "all" mean no constraint.
func parseActivityFilter(c *fiber.Ctx) (models.ActivityFilter, error) {
	var f models.ActivityFilter

	if v := queryValue(c, "user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return f, fmt.Errorf("invalid user_id %q", v)
		}
		f.ActorID = &id
	}
	if v := queryValue(c, "action_type"); v != "" {
		v = strings.ToUpper(v)
		f.ActionType = &v
	}
	if v := queryValue(c, "resource_type"); v != "" {
		v = strings.ToUpper(v)
		f.ResourceType = &v
	}
	if v := queryValue(c, "search"); v != "" {
		f.Search = &v
	}

	var err error
	if f.StartDate, err = parseDate(c, "start_date"); err != nil {
		return f, err
	}
	if f.EndDate, err = parseDate(c, "end_date"); err != nil {
		return f, err
	}
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return f, fmt.Errorf("end_date is before start_date")
	}
	return f, nil
}

func queryValue(c *fiber.Ctx, key string) string {
	v := strings.TrimSpace(c.Query(key))
	if strings.EqualFold(v, "all") {
		return ""
	}
	return v
}

func parseDate(c *fiber.Ctx, key string) (*time.Time, error) {
	return parseDay(key, queryValue(c, key))
}

// parseDay reads a YYYY-MM-DD value; blank yields nil.
func parseDay(key, v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil, fmt.Errorf("%s must be YYYY-MM-DD", key)
	}
	return &t, nil
}
