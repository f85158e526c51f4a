package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/paywatch/paywatch/internal/cronapi"
	"github.com/paywatch/paywatch/internal/logging"
	"github.com/paywatch/paywatch/internal/relay"
	"github.com/paywatch/paywatch/internal/schedule"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler and webhook relay",
	Long: `Run paywatch as a long-lived process: the local cron scheduler fires the
daily extract and remind jobs in the business timezone, and the webhook relay
accepts token-authenticated POST triggers for the same jobs. When a cron API
is configured the managed trigger jobs are synced on startup.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}

		extract := func(ctx context.Context) error {
			return a.runExtract(ctx, time.Now(), "")
		}
		remind := func(ctx context.Context) error {
			return a.runRemind(ctx, time.Now(), false)
		}

		runner := schedule.NewRunner(a.loc, a.cfg.Schedule.SkipHolidays)
		if err := runner.Add(a.cfg.Schedule.ExtractSpec, "extract", extract); err != nil {
			return fmt.Errorf("scheduling extract: %w", err)
		}
		if err := runner.Add(a.cfg.Schedule.RemindSpec, "remind", remind); err != nil {
			return fmt.Errorf("scheduling remind: %w", err)
		}

		srv := relay.New(a.cfg.Relay.ListenAddr, a.cfg.Relay.Token, a.cfg.Relay.AllowedOrigins, relay.Triggers{
			Extract: extract,
			Remind:  remind,
		})

		if a.cfg.CronAPI.BaseURL != "" {
			if err := syncCronJobs(cmd.Context(), a); err != nil {
				logging.Logger.WithError(err).Warn("cron API sync failed")
			}
		}

		runner.Start()
		defer runner.Stop()

		errc := make(chan error, 1)
		go func() { errc <- srv.Start() }()
		logging.Logger.WithField("addr", a.cfg.Relay.ListenAddr).Info("relay listening")

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errc:
			return err
		case s := <-sig:
			logging.Logger.WithField("signal", s.String()).Info("shutting down")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	},
}

// syncCronJobs makes sure the managed cron service has one trigger job per
// relay hook, creating or updating as needed. Jobs are matched by title.
func syncCronJobs(ctx context.Context, a *app) error {
	client := cronapi.NewClient(a.cfg.CronAPI.BaseURL, a.cfg.CronAPI.APIKey)

	existing, err := client.List(ctx)
	if err != nil {
		return err
	}
	byTitle := make(map[string]cronapi.Job, len(existing))
	for _, j := range existing {
		byTitle[j.Title] = j
	}

	base := a.cfg.CronAPI.RelayBaseURL
	want := []cronapi.Job{
		{Title: "paywatch-extract", URL: base + "/hooks/extract", Schedule: a.cfg.Schedule.ExtractSpec, Enabled: true},
		{Title: "paywatch-remind", URL: base + "/hooks/remind", Schedule: a.cfg.Schedule.RemindSpec, Enabled: true},
	}
	for _, job := range want {
		cur, ok := byTitle[job.Title]
		switch {
		case !ok:
			if _, err := client.Create(ctx, job); err != nil {
				return fmt.Errorf("creating job %s: %w", job.Title, err)
			}
		case cur.URL != job.URL || cur.Schedule != job.Schedule || !cur.Enabled:
			if err := client.Update(ctx, cur.ID, job); err != nil {
				return fmt.Errorf("updating job %s: %w", job.Title, err)
			}
		}
	}
	return nil
}
