package http

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/project-tracker/backend/internal/auth"
	"github.com/project-tracker/backend/internal/config"
	"github.com/project-tracker/backend/internal/http/handlers"
	"github.com/project-tracker/backend/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestRouter wires handlers without backing services; only requests that
// are rejected before reaching a handler are safe to send.
func newTestRouter(t *testing.T) (*fiber.App, *config.Config) {
	t.Helper()
	cfg := &config.Config{JWTSecret: "secret", CORSAllowOrigins: "*", RateLimitPerMinute: 100}
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = rdb.Close() })

	app := fiber.New()
	SetupRouter(app, cfg, zap.NewNop(), rdb, Handlers{
		WSHub: handlers.NewWSHub(cfg, nil, zap.NewNop()),
	})
	return app, cfg
}

func TestRouter_Health(t *testing.T) {
	app, _ := newTestRouter(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRouter_RequiresAuthentication(t *testing.T) {
	app, _ := newTestRouter(t)

	for _, route := range []struct{ method, path string }{
		{"GET", "/api/v1/notes"},
		{"POST", "/api/v1/session/login"},
		{"DELETE", "/api/v1/projects/1"},
		{"GET", "/api/v1/activity-log"},
	} {
		resp, err := app.Test(httptest.NewRequest(route.method, route.path, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, route.path)
	}
}

func TestRouter_ElevatedRoutes(t *testing.T) {
	app, cfg := newTestRouter(t)
	token, err := auth.GenerateJWT(cfg.JWTSecret, models.Identity{ID: 3, DisplayName: "Alice", Role: models.RoleEmployee}, time.Hour)
	require.NoError(t, err)

	for _, route := range []struct{ method, path string }{
		{"GET", "/api/v1/activity-log"},
		{"GET", "/api/v1/activity-log/stats"},
		{"GET", "/api/v1/activity-log/filters"},
		{"DELETE", "/api/v1/users/8"},
	} {
		req := httptest.NewRequest(route.method, route.path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode, route.path)
	}
}

func TestRouter_WebSocketRequiresUpgrade(t *testing.T) {
	app, _ := newTestRouter(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/ws/activity?token=x", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}
