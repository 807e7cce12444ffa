package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/project-tracker/backend/internal/config"
	"github.com/project-tracker/backend/internal/db"
	"github.com/project-tracker/backend/internal/events"
	apphttp "github.com/project-tracker/backend/internal/http"
	"github.com/project-tracker/backend/internal/http/handlers"
	"github.com/project-tracker/backend/internal/rbac"
	"github.com/project-tracker/backend/internal/repositories"
	"github.com/project-tracker/backend/internal/services"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, db.PoolOptions{
		MaxConns:        cfg.PGMaxConns,
		MinConns:        cfg.PGMinConns,
		MaxConnLifetime: cfg.PGConnLifetime,
	}, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, cfg.MigrationsDir, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	store := repositories.NewStore(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Services
	resolver := rbac.NewResolver(store.Shares)
	audit := services.NewAuditLogger(store.Activity, publisher, log)
	noteService := services.NewNoteService(store.Notes, store.Shares, store.Users, resolver, audit, log)
	projectService := services.NewProjectService(store.Projects, resolver, audit, log)
	sessionService := services.NewSessionService(audit)
	deletion := services.NewDeletionCoordinator(services.NewCascadeStore(store), resolver, audit, log)
	query := services.NewActivityQueryEngine(store.Activity, services.ActivityQueryOptions{
		DefaultPageSize: cfg.ActivityPageSize,
		MaxPageSize:     cfg.ActivityMaxPageSize,
		TopActors:       cfg.ActivityTopActors,
		DefaultDays:     cfg.ActivityStatsDays,
	}, log)

	// Handlers
	wsHub := handlers.NewWSHub(cfg, subscriber, log)
	h := apphttp.Handlers{
		Session:  handlers.NewSessionHandler(sessionService, log),
		Notes:    handlers.NewNoteHandler(noteService, log),
		Projects: handlers.NewProjectHandler(projectService, deletion, log),
		Users:    handlers.NewUserHandler(store.Users, deletion, log),
		Activity: handlers.NewActivityHandler(query, log),
		WSHub:    wsHub,
	}

	// Start WS hub
	if err := wsHub.Start(ctx); err != nil {
		log.Error("live activity feed unavailable", zap.Error(err))
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, h)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
