// Command warmup runs one progression cycle and exits. It is meant for cron
// style schedulers; the api process runs the same cycle on a ticker.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/DeeipChheda/warmup-master-main/internal/config"
	"github.com/DeeipChheda/warmup-master-main/internal/domain"
	"github.com/DeeipChheda/warmup-master-main/internal/infra/postgresql"
	"github.com/DeeipChheda/warmup-master-main/internal/infra/postgresql/migrations"
	infraredis "github.com/DeeipChheda/warmup-master-main/internal/infra/redis"
	"github.com/DeeipChheda/warmup-master-main/internal/observability"
	"github.com/DeeipChheda/warmup-master-main/internal/plan"
	"github.com/DeeipChheda/warmup-master-main/internal/repository"
	"github.com/DeeipChheda/warmup-master-main/internal/service"
	"github.com/DeeipChheda/warmup-master-main/internal/warmup"
)

func main() {
	kind := flag.String("kind", "", "identity kind to advance: domain, mailbox or empty for both")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger", zap.Error(err))
	}
	defer logger.Sync() //nolint:errcheck

	if *kind != "" {
		if _, err := domain.ParseIdentityKindFromString(*kind); err != nil {
			logger.Fatal("invalid -kind", zap.Error(err))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}
	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	locker, err := infraredis.NewRedisLocker(rdb, time.Duration(cfg.LockTTLSec)*time.Second, logger)
	if err != nil {
		logger.Fatal("redis locker init failed", zap.Error(err))
	}

	table := plan.DefaultTable()
	if cfg.PlansFile != "" {
		if table, err = plan.LoadTableFile(cfg.PlansFile); err != nil {
			logger.Fatal("plan table load failed", zap.String("path", cfg.PlansFile), zap.Error(err))
		}
	}
	plans, err := plan.NewResolver(table, plan.EmailAllowList(cfg.UnlimitedEmails()))
	if err != nil {
		logger.Fatal("plan resolver init failed", zap.Error(err))
	}

	identityRepo := repository.NewGormIdentityRepo(db)
	outcomeRepo := repository.NewGormOutcomeRepo(db)

	healthService, err := service.NewHealthService(identityRepo, outcomeRepo, locker, logger)
	if err != nil {
		logger.Fatal("health service init failed", zap.Error(err))
	}

	scheduler, err := service.NewWarmupScheduler(
		identityRepo, outcomeRepo, repository.NewGormTenantRepo(db), plans, healthService, locker,
		warmup.Config{
			DomainBase:    cfg.DomainRampBase,
			DomainStep:    cfg.DomainRampStep,
			DomainLength:  cfg.DomainRampLength,
			MailboxLength: cfg.MailboxRampLength,
		},
		0, logger,
	)
	if err != nil {
		logger.Fatal("warmup scheduler init failed", zap.Error(err))
	}

	runs := []func(context.Context) (*service.CycleReport, error){}
	if *kind == "" || *kind == domain.KindDomain.String() {
		runs = append(runs, scheduler.AdvanceDomains)
	}
	if *kind == "" || *kind == domain.KindMailbox.String() {
		runs = append(runs, scheduler.AdvanceMailboxes)
	}

	failed := false
	for _, run := range runs {
		report, err := run(ctx)
		if err != nil {
			logger.Error("warmup cycle failed", zap.Error(err))
			failed = true
			continue
		}
		logger.Info("warmup cycle finished",
			zap.String("kind", report.Kind.String()),
			zap.String("period", report.Period),
			zap.Int("advanced", len(report.Advanced)),
			zap.Int("reset", len(report.Reset)),
			zap.Int("skipped", len(report.Skipped)),
			zap.Int("failures", len(report.Failures)),
		)
		if len(report.Failures) > 0 {
			failed = true
		}
	}
	if failed {
		_ = logger.Sync()
		os.Exit(1)
	}
}
