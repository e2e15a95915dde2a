package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"

	"seatdesk/internal/models"
	"seatdesk/internal/store"
)

type ReminderMetrics struct {
	Sent     prometheus.Counter
	Failures prometheus.Counter
}

func NewReminderMetrics(reg prometheus.Registerer) *ReminderMetrics {
	factory := promauto.With(reg)
	return &ReminderMetrics{
		Sent: factory.NewCounter(prometheus.CounterOpts{
			Name: "seatdesk_reminders_sent_total",
			Help: "Membership expiry reminders delivered.",
		}),
		Failures: factory.NewCounter(prometheus.CounterOpts{
			Name: "seatdesk_reminder_failures_total",
			Help: "Membership expiry reminders that could not be delivered.",
		}),
	}
}

// ReminderRun summarises one firing of the job.
type ReminderRun struct {
	Target          *models.Date
	PurgedSessions  int64
	ExpiredStudents int64
	Sent            int
	Failed          int
	Skipped         int
}

type ReminderJob struct {
	store    store.Store
	students *StudentService
	settings *SettingsService
	notifier Notifier
	clock    Clock
	metrics  *ReminderMetrics
	logger   *slog.Logger
}

func NewReminderJob(st store.Store, notifier Notifier, clock Clock, metrics *ReminderMetrics, logger *slog.Logger) *ReminderJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReminderJob{
		store:    st,
		students: NewStudentService(st, clock, 0),
		settings: NewSettingsService(st),
		notifier: notifier,
		clock:    clock,
		metrics:  metrics,
		logger:   logger,
	}
}

// Run performs one daily pass: purge expired sessions, mark lapsed
// memberships expired, then remind active students whose membership ends
// exactly N days from today. Reminders go out one at a time and a failing
// student never stops the rest.
func (j *ReminderJob) Run(ctx context.Context) (ReminderRun, error) {
	var run ReminderRun

	// Housekeeping failures are logged; they never hold back the reminders.
	if purged, err := j.store.PurgeSessions(ctx, j.clock.now().UTC()); err != nil {
		j.logger.ErrorContext(ctx, "purge sessions failed", "err", err)
	} else {
		run.PurgedSessions = purged
	}

	if expired, err := j.students.ExpireLapsed(ctx); err != nil {
		j.logger.ErrorContext(ctx, "expire memberships failed", "err", err)
	} else {
		run.ExpiredStudents = expired
	}

	settings, ok, err := j.settings.Reminder(ctx)
	if err != nil {
		return run, errors.Wrap(err, "load settings")
	}
	if !ok {
		j.logger.InfoContext(ctx, "reminders not configured, skipping")
		return run, nil
	}

	target := j.clock.Today().AddDays(settings.DaysBeforeExpiry)
	run.Target = &target
	students, err := j.store.ListStudents(ctx, store.StudentFilter{Status: models.StatusActive, EndOn: &target})
	if err != nil {
		return run, errors.Wrap(err, "list expiring students")
	}
	if len(students) == 0 {
		j.logger.InfoContext(ctx, "no memberships expiring", "date", target.String())
		return run, nil
	}

	for _, student := range students {
		if ctx.Err() != nil {
			return run, ctx.Err()
		}
		if !student.Email.Valid || student.Email.String == "" {
			run.Skipped++
			j.logger.InfoContext(ctx, "student has no email, skipping reminder", "student_id", student.ID)
			continue
		}
		if err := j.remind(ctx, student, settings.TemplateID); err != nil {
			run.Failed++
			j.count(false)
			j.logger.ErrorContext(ctx, "reminder failed", "student_id", student.ID, "err", err)
			continue
		}
		run.Sent++
		j.count(true)
	}
	j.logger.InfoContext(ctx, "reminders done",
		"date", target.String(), "sent", run.Sent, "failed", run.Failed, "skipped", run.Skipped)
	return run, nil
}

func (j *ReminderJob) remind(ctx context.Context, student models.Student, templateID string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return j.notifier.Send(ctx, ReminderFor(student, templateID))
}

func (j *ReminderJob) count(sent bool) {
	if j.metrics == nil {
		return
	}
	if sent {
		j.metrics.Sent.Inc()
	} else {
		j.metrics.Failures.Inc()
	}
}

// Scheduler fires the reminder job on a cron spec in the clock's zone.
type Scheduler struct {
	cron   *cron.Cron
	job    *ReminderJob
	logger *slog.Logger
}

func NewScheduler(job *ReminderJob, spec string, loc *time.Location, logger *slog.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	cronLog := cronLogger{logger}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	s := &Scheduler{cron: c, job: job, logger: logger}
	if _, err := c.AddFunc(spec, s.fire); err != nil {
		return nil, errors.Wrapf(err, "reminder schedule %q", spec)
	}
	return s, nil
}

func (s *Scheduler) fire() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	s.logger.Info("running expiration reminder job")
	if _, err := s.job.Run(ctx); err != nil {
		s.logger.Error("reminder job failed", "err", err)
	}
}

// Run starts the schedule and blocks until ctx is done, then waits for a
// running firing to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}

type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "err", err)...)
}
