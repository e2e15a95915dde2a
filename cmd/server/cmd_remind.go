package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"seatdesk/internal/logging"
	"seatdesk/internal/services"
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Run the daily sweep and reminder job once",
	Long: `Purges expired sessions, marks lapsed memberships expired and sends
reminders for memberships ending in days_before_expiration days, exactly as
the scheduled job does.`,
	RunE: runRemind,
}

func runRemind(cmd *cobra.Command, _ []string) error {
	rt, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	job := services.NewReminderJob(rt.store, newNotifier(rt.cfg), rt.clock(),
		services.NewReminderMetrics(prometheus.NewRegistry()), logging.New("reminders"))
	run, err := job.Run(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Sessions purged:  %d\n", run.PurgedSessions)
	fmt.Fprintf(out, "Expired students: %d\n", run.ExpiredStudents)
	if run.Target == nil {
		fmt.Fprintln(out, "Reminders:        not configured")
		return nil
	}
	fmt.Fprintf(out, "Reminder date:    %s\n", run.Target.String())
	fmt.Fprintf(out, "Sent:             %d\n", run.Sent)
	fmt.Fprintf(out, "Failed:           %d\n", run.Failed)
	fmt.Fprintf(out, "Skipped:          %d\n", run.Skipped)
	return nil
}
