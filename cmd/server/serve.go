package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Socialbot/internal/api/middleware"
	"Socialbot/internal/api/routes"
	"Socialbot/internal/core/poller"
	"Socialbot/internal/db/migrations"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the scheduled post poller",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	log.Infow("connected to database")

	if cfg.Database.AutoMigrate {
		if err := migrations.Up(a.db); err != nil {
			return err
		}
		log.Infow("migrations completed")
	}

	auth, err := middleware.NewJWTAuthMiddleware(cfg.Auth.JWTSecret, cfg.Auth.Issuer, log.Named("auth"))
	if err != nil {
		return err
	}

	router := routes.NewRouter(routes.RouterConfig{
		Posts:          a.posts,
		Jobs:           a.jobs,
		Auth:           auth,
		RateLimiter:    middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window),
		Log:            log,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Health: func(r *http.Request) error {
			return a.db.PingContext(r.Context())
		},
	})

	var runner *poller.Runner
	if cfg.Server.RunPoller {
		runner, err = poller.NewRunner(a.poller, cfg.Poller.Interval, log.Named("poller"))
		if err != nil {
			return err
		}
		runner.Start()
	} else {
		log.Infow("in-process poller disabled; run `socialbot tick` from cron")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Immediate publishes wait on the platform for up to the publish timeout
		WriteTimeout: cfg.Poller.PublishTimeout + 30*time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infow("socialbot API starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return errors.Wrap(err, "http server failed")
		}
	case <-ctx.Done():
		log.Infow("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("http server shutdown failed", "error", err)
	}
	if runner != nil {
		// Lets a running tick finish its in-flight publishes
		if err := runner.Stop(shutdownCtx); err != nil {
			log.Errorw("poller shutdown failed", "error", err)
		}
	}
	log.Infow("socialbot stopped")
	return nil
}
