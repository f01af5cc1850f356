package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lantern/internal/crypto"
	"lantern/internal/db"
	"lantern/internal/handlers"
	"lantern/internal/jobs"
	mw "lantern/internal/middleware"
)

const (
	limiterSweepInterval = time.Minute
	limiterMaxIdle       = 10 * time.Minute
)

func newServeCommand() *cobra.Command {
	var skipMigrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(false)
			if err != nil {
				return err
			}
			defer e.close()
			return serve(cmd.Context(), e, skipMigrate)
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply schema migrations on start")
	return cmd
}

func serve(ctx context.Context, e *env, skipMigrate bool) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	if e.db != nil && !skipMigrate {
		if err := db.RunMigrations(ctx, e.db); err != nil {
			return err
		}
	}

	cipher, err := crypto.NewCipher(e.cfg.Key)
	if err != nil {
		return err
	}
	st := e.store()

	scheduler, err := jobs.NewScheduler(e.cfg.StoryPurgeSchedule, jobs.NewStoryPurger(st, e.log, e.cfg.StoreTimeout), e.log)
	if err != nil {
		return err
	}
	scheduler.Start()

	limiter := mw.NewRateLimiter(e.cfg.RateLimitRPS, e.cfg.RateLimitBurst, e.log)
	limiter.StartCleanup(ctx, limiterSweepInterval, limiterMaxIdle)

	router := handlers.NewRouter(handlers.Options{
		Store:          st,
		Cipher:         cipher,
		JWTSecret:      []byte(e.cfg.JWTSecret),
		WeekStart:      e.cfg.WeekStart,
		StoreTimeout:   e.cfg.StoreTimeout,
		RateLimitRPS:   e.cfg.RateLimitRPS,
		RateLimitBurst: e.cfg.RateLimitBurst,
		Limiter:        limiter,
		Logger:         e.log,
	})

	srv := &http.Server{
		Addr:              ":" + e.cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		e.log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	var serveErr error
	select {
	case <-quit:
	case <-ctx.Done():
	case serveErr = <-errCh:
		e.log.Error("server error", zap.Error(serveErr))
	}
	e.log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	scheduler.Stop(shutdownCtx)
	e.log.Info("server stopped")
	if serveErr != nil {
		return fmt.Errorf("listen on %s: %w", srv.Addr, serveErr)
	}
	return nil
}
