package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"JWT_SECRET", "API_PORT", "ACTIVITY_PAGE_SIZE", "CORS_ALLOW_ORIGINS", "JWT_EXPIRATION_HOURS"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "3000", cfg.APIPort)
	assert.Equal(t, 50, cfg.ActivityPageSize)
	assert.Equal(t, 200, cfg.ActivityMaxPageSize)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiration)
	assert.Equal(t, "*", cfg.CORSAllowOrigins)
	assert.Equal(t, defaultJWTSecret, cfg.JWTSecret)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("API_PORT", "8080")
	t.Setenv("ACTIVITY_PAGE_SIZE", "25")
	t.Setenv("ACTIVITY_TOP_ACTORS", "not-a-number")
	t.Setenv("JWT_EXPIRATION_HOURS", "2")
	t.Setenv("CORS_ALLOW_ORIGINS", " https://a.example , ,https://b.example")

	cfg := Load()
	assert.Equal(t, "8080", cfg.APIPort)
	assert.Equal(t, 25, cfg.ActivityPageSize)
	assert.Equal(t, 10, cfg.ActivityTopActors)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiration)
	assert.Equal(t, "https://a.example,https://b.example", cfg.CORSAllowOrigins)
}

func TestValidate_Warnings(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	cfg := &Config{
		JWTSecret:           defaultJWTSecret,
		CORSAllowOrigins:    "https://a.example",
		ActivityPageSize:    500,
		ActivityMaxPageSize: 200,
		RateLimitPerMinute:  60,
	}

	cfg.Validate(zap.New(core))
	assert.Equal(t, 1, logs.FilterMessage("JWT_SECRET is default, change in production").Len())
	assert.Equal(t, 1, logs.FilterMessageSnippet("exceeds ACTIVITY_MAX_PAGE_SIZE").Len())
	assert.Equal(t, 2, logs.Len())
}
