package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/project-tracker/backend/internal/config"
	"github.com/project-tracker/backend/internal/http/handlers"
	"github.com/project-tracker/backend/internal/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Handlers struct {
	Session  *handlers.SessionHandler
	Notes    *handlers.NoteHandler
	Projects *handlers.ProjectHandler
	Users    *handlers.UserHandler
	Activity *handlers.ActivityHandler
	WSHub    *handlers.WSHub
}

func SetupRouter(app *fiber.App, cfg *config.Config, log *zap.Logger, rdb *redis.Client, h Handlers) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		status := fiber.Map{"status": "ok"}
		if h.WSHub != nil {
			status["ws_connections"] = h.WSHub.ConnectionCount()
		}
		return c.JSON(status)
	})

	api := app.Group("/api/v1", middleware.AuthMiddleware(cfg, log))
	api.Use(middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMinute, time.Minute, log))

	// Session
	api.Post("/session/login", h.Session.Login)
	api.Post("/session/logout", h.Session.Logout)

	// Users
	api.Get("/me", h.Users.GetMe)
	api.Get("/users", h.Users.ListUsers)
	api.Delete("/users/:id", middleware.ElevatedMiddleware(), h.Users.DeleteUser)

	// Notes
	api.Get("/notes", h.Notes.ListNotes)
	api.Post("/notes", h.Notes.CreateNote)
	api.Get("/notes/:id", h.Notes.GetNote)
	api.Put("/notes/:id", h.Notes.UpdateNote)
	api.Delete("/notes/:id", h.Notes.DeleteNote)
	api.Put("/notes/:id/sharing", h.Notes.UpdateSharing)
	api.Delete("/notes/:id/sharing/:userId", h.Notes.RevokeShare)

	// Projects
	api.Get("/projects", h.Projects.ListProjects)
	api.Post("/projects", h.Projects.CreateProject)
	api.Get("/projects/:id", h.Projects.GetProject)
	api.Put("/projects/:id", h.Projects.UpdateProject)
	api.Delete("/projects/:id", h.Projects.DeleteProject)
	api.Post("/projects/:id/images", h.Projects.AddImage)
	api.Post("/projects/:id/milestones", h.Projects.CreateMilestone)
	api.Put("/milestones/:id", h.Projects.UpdateMilestone)
	api.Delete("/milestones/:id", h.Projects.DeleteMilestone)

	// Activity log
	activity := api.Group("/activity-log", middleware.ElevatedMiddleware())
	activity.Get("", h.Activity.ListActivity)
	activity.Get("/stats", h.Activity.Stats)
	activity.Get("/filters", h.Activity.Filters)

	// WebSocket (token in query, outside the bearer-authenticated group)
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws/activity", websocket.New(h.WSHub.HandleWS))
}
