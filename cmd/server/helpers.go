package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"seatdesk/internal/config"
	"seatdesk/internal/db"
	"seatdesk/internal/logging"
	"seatdesk/internal/migrations"
	"seatdesk/internal/services"
	"seatdesk/internal/store"
)

// runtime is what every command needs: configuration, logging and an
// open, migrated database.
type runtime struct {
	cfg     config.Config
	db      *sqlx.DB
	store   *store.PGStore
	logFile *logging.DailyFile
	logger  *slog.Logger
}

func setup(ctx context.Context) (*runtime, error) {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "config")
	}

	rt := &runtime{cfg: cfg}
	var out io.Writer = os.Stdout
	logFile, logErr := logging.OpenDailyFile(cfg.LogDir, cfg.LogRetentionDays)
	if logErr == nil {
		rt.logFile = logFile
		out = io.MultiWriter(os.Stdout, logFile)
	}
	logging.Init(logging.Options{
		Level:        cfg.LogLevel,
		Format:       cfg.LogFormat,
		RollbarToken: cfg.RollbarToken,
		Environment:  cfg.Environment,
	}, out)
	rt.logger = logging.New("main")
	if logErr != nil {
		rt.logger.Warn("log file unavailable, logging to stdout only", "dir", cfg.LogDir, "err", logErr)
	}

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.db = database
	version, err := migrations.Apply(database)
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.logger.Info("schema ready", "version", version)
	rt.store = store.NewPGStore(database)
	return rt, nil
}

func (rt *runtime) close() {
	if rt.db != nil {
		_ = rt.db.Close()
	}
	logging.Close()
	if rt.logFile != nil {
		_ = rt.logFile.Close()
	}
}

func (rt *runtime) clock() services.Clock {
	return services.Clock{Location: rt.cfg.Location()}
}

// newNotifier picks the reminder transport named by EMAIL_PROVIDER.
func newNotifier(cfg config.Config) services.Notifier {
	switch cfg.EmailProvider {
	case "sendgrid":
		return services.NewSendgridNotifier(cfg.SendgridAPIKey, cfg.EmailFromName, cfg.EmailFromAddress)
	case "brevo":
		return services.NewBrevoNotifier(cfg.BrevoAPIKey, cfg.EmailFromName, cfg.EmailFromAddress)
	default:
		return services.NewConsoleNotifier(logging.New("notify"))
	}
}
