package main

import (
	"context"
	"database/sql"
	"time"

	"Socialbot/internal/config"
	"Socialbot/internal/core/poller"
	"Socialbot/internal/core/posts"
	"Socialbot/internal/core/publishers"
	"Socialbot/internal/core/scheduled"
	postgresRepo "Socialbot/internal/db/postgres"
	"Socialbot/internal/platforms/instagram"
	"Socialbot/internal/platforms/linkedin"

	"github.com/cockroachdb/errors"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// app holds the wired services shared by serve and tick
type app struct {
	db     *sql.DB
	jobs   scheduled.Service
	posts  posts.Service
	poller *poller.Poller
}

func openDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}
	return db, nil
}

// buildRegistry registers a circuit-breaker guarded publisher for every
// platform that has credentials configured
func buildRegistry(cfg *config.Config, breaker *publishers.CircuitBreaker, log *zap.SugaredLogger) (*publishers.Registry, error) {
	registry := publishers.NewRegistry()

	if cfg.LinkedIn.Enabled() {
		client, err := linkedin.NewClient(linkedin.Config{
			APIURL:      cfg.LinkedIn.APIURL,
			AccessToken: cfg.LinkedIn.AccessToken,
			AuthorURN:   cfg.LinkedIn.AuthorURN,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to configure linkedin")
		}
		registry.Register(publishers.PlatformLinkedIn, breaker.Guard(publishers.PlatformLinkedIn, client))
	}

	if cfg.Instagram.Enabled() {
		client, err := instagram.NewClient(instagram.Config{
			APIURL:       cfg.Instagram.APIURL,
			AccessToken:  cfg.Instagram.AccessToken,
			AccountID:    cfg.Instagram.AccountID,
			PollInterval: cfg.Instagram.PollInterval,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to configure instagram")
		}
		registry.Register(publishers.PlatformInstagram, breaker.Guard(publishers.PlatformInstagram, client))
	}

	if len(registry.Platforms()) == 0 {
		log.Warnw("no platform credentials configured, every publish will be retried until it fails")
	} else {
		log.Infow("publishers configured", "platforms", registry.Platforms())
	}
	return registry, nil
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*app, error) {
	db, err := openDB(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	breaker := publishers.NewCircuitBreaker(cfg.Breaker.FailureThreshold, cfg.Breaker.OpenDuration, log.Named("breaker"))
	registry, err := buildRegistry(cfg, breaker, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	jobRepo := postgresRepo.NewScheduledJobRepository(db)
	postRepo := postgresRepo.NewPostRepository(db)

	jobService := scheduled.NewService(jobRepo, log.Named("scheduled"))
	postService := posts.NewPostService(postRepo, jobService, registry, cfg.Poller.PublishTimeout, log.Named("posts"))

	pollerCfg := poller.DefaultConfig()
	pollerCfg.Retry.MaxAttempts = cfg.Poller.MaxAttempts
	pollerCfg.Retry.BaseBackoff = cfg.Poller.BaseBackoff
	pollerCfg.PublishTimeout = cfg.Poller.PublishTimeout
	pollerCfg.StaleAfter = cfg.Poller.StaleAfter
	pollerCfg.BatchSize = cfg.Poller.BatchSize

	return &app{
		db:     db,
		jobs:   jobService,
		posts:  postService,
		poller: poller.New(jobRepo, registry, postService, pollerCfg, log.Named("poller")),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}
