package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httpapi "seatdesk/internal/http"
	"seatdesk/internal/logging"
	"seatdesk/internal/services"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the reminder schedule and the dashboard stream",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.close()
	cfg := rt.cfg

	created, err := services.NewUserService(rt.store).EnsureDefaultAdmin(ctx, cfg.DefaultAdminUsername, cfg.DefaultAdminPassword)
	if err != nil {
		return errors.Wrap(err, "bootstrap admin")
	}
	if created {
		rt.logger.Warn("created default admin account, change its password", "username", cfg.DefaultAdminUsername)
	}
	if _, err := services.EnsureStoragePath(cfg.MediaStoragePath, services.BucketImages); err != nil {
		return errors.Wrap(err, "media storage")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	hub := services.NewDashboardHub(logging.New("dashboard"))
	server := httpapi.NewServer(rt.store, cfg, hub, reg)

	job := services.NewReminderJob(rt.store, newNotifier(cfg), rt.clock(), services.NewReminderMetrics(reg), logging.New("reminders"))
	scheduler, err := services.NewScheduler(job, cfg.ReminderSpec, cfg.Location(), logging.New("scheduler"))
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		hub.Poll(gctx, time.Duration(cfg.DashboardPushSeconds)*time.Second, server.Students)
		return nil
	})
	g.Go(func() error {
		return scheduler.Run(gctx)
	})
	g.Go(func() error {
		rt.logger.Info("listening", "addr", cfg.Addr(), "reminder_spec", cfg.ReminderSpec, "timezone", cfg.Timezone)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	rt.logger.Info("shutdown complete")
	return err
}
