package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/project-tracker/backend/internal/config"
	"github.com/project-tracker/backend/internal/db"
	"github.com/project-tracker/backend/internal/repositories"
	"github.com/project-tracker/backend/internal/services"
	"go.uber.org/zap"
)

// activity-report prints activity statistics as JSON, once or on an
// interval. The -user account must hold an admin or owner role.
func main() {
	userID := flag.Int64("user", 0, "id of the admin running the report")
	days := flag.Int("days", 30, "trailing window in days")
	withFilters := flag.Bool("filters", false, "include the available filter values")
	every := flag.Duration("every", 0, "repeat at this interval (0 runs once)")
	flag.Parse()

	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, db.PoolOptions{MaxConns: 2, MinConns: 1}, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	store := repositories.NewStore(pool)
	user, err := store.Users.GetByID(ctx, *userID)
	if err != nil {
		log.Fatal("unknown -user", zap.Int64("user_id", *userID), zap.Error(err))
	}
	caller := user.Identity("")

	query := services.NewActivityQueryEngine(store.Activity, services.ActivityQueryOptions{
		TopActors:   cfg.ActivityTopActors,
		DefaultDays: cfg.ActivityStatsDays,
	}, log)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	run := func() {
		r, err := buildReport(ctx, query, caller, *days, *withFilters, time.Now())
		if err != nil {
			log.Error("failed to build activity report", zap.Error(err))
			return
		}
		if err := enc.Encode(r); err != nil {
			log.Error("failed to write report", zap.Error(err))
		}
	}

	run()
	if *every <= 0 {
		return
	}

	ticker := time.NewTicker(*every)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			run()
		case <-sigCh:
			log.Info("shutting down activity report")
			return
		}
	}
}
