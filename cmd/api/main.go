package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DeeipChheda/warmup-master-main/internal/admission"
	"github.com/DeeipChheda/warmup-master-main/internal/config"
	"github.com/DeeipChheda/warmup-master-main/internal/handler"
	"github.com/DeeipChheda/warmup-master-main/internal/infra/postgresql"
	"github.com/DeeipChheda/warmup-master-main/internal/infra/postgresql/migrations"
	infraredis "github.com/DeeipChheda/warmup-master-main/internal/infra/redis"
	"github.com/DeeipChheda/warmup-master-main/internal/observability"
	"github.com/DeeipChheda/warmup-master-main/internal/plan"
	"github.com/DeeipChheda/warmup-master-main/internal/provider"
	"github.com/DeeipChheda/warmup-master-main/internal/queue"
	"github.com/DeeipChheda/warmup-master-main/internal/repository"
	"github.com/DeeipChheda/warmup-master-main/internal/service"
	"github.com/DeeipChheda/warmup-master-main/internal/spamscore"
	"github.com/DeeipChheda/warmup-master-main/internal/transport"
	"github.com/DeeipChheda/warmup-master-main/internal/warmup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger", zap.Error(err))
	}
	defer logger.Sync() //nolint:errcheck

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

	mq, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}
	defer mq.Close()

	metrics := observability.NewMetrics()

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
	controller, err := admission.NewController(plans)
	if err != nil {
		logger.Fatal("admission controller init failed", zap.Error(err))
	}

	locker, err := infraredis.NewRedisLocker(rdb, time.Duration(cfg.LockTTLSec)*time.Second, logger)
	if err != nil {
		logger.Fatal("redis locker init failed", zap.Error(err))
	}
	rateLimiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.SendRatePerSec)
	if err != nil {
		logger.Fatal("redis rate limiter init failed", zap.Error(err))
	}

	sender, err := newSender(ctx, cfg)
	if err != nil {
		logger.Fatal("sender init failed", zap.String("kind", cfg.SenderKind), zap.Error(err))
	}

	var analyzer spamscore.Analyzer
	if cfg.OpenAIAPIKey != "" {
		openAI, err := provider.NewOpenAIAnalyzer(provider.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
		}, logger)
		if err != nil {
			logger.Fatal("openai analyzer init failed", zap.Error(err))
		}
		analyzer = openAI
	}
	scorer := spamscore.NewScorer(analyzer, logger)
	scorer.SetMetrics(metrics)

	tenantRepo := repository.NewGormTenantRepo(db)
	identityRepo := repository.NewGormIdentityRepo(db)
	campaignRepo := repository.NewGormCampaignRepo(db)
	outcomeRepo := repository.NewGormOutcomeRepo(db)
	warmupLogRepo := repository.NewGormWarmupLogRepo(db)

	ramp := warmup.Config{
		DomainBase:    cfg.DomainRampBase,
		DomainStep:    cfg.DomainRampStep,
		DomainLength:  cfg.DomainRampLength,
		MailboxLength: cfg.MailboxRampLength,
	}

	healthService, err := service.NewHealthService(identityRepo, outcomeRepo, locker, logger)
	if err != nil {
		logger.Fatal("health service init failed", zap.Error(err))
	}
	healthService.SetMetrics(metrics)

	aggregator, err := service.NewAggregator(outcomeRepo, healthService, locker, logger)
	if err != nil {
		logger.Fatal("aggregator init failed", zap.Error(err))
	}
	aggregator.SetMetrics(metrics)

	dispatcher, err := service.NewDispatcher(
		campaignRepo, identityRepo, outcomeRepo, aggregator, controller, sender, rateLimiter, locker, logger,
	)
	if err != nil {
		logger.Fatal("dispatcher init failed", zap.Error(err))
	}
	dispatcher.SetMetrics(metrics)

	scheduler, err := service.NewWarmupScheduler(
		identityRepo, outcomeRepo, tenantRepo, plans, healthService, locker, ramp,
		time.Duration(cfg.WarmupScanIntervalSec)*time.Second, logger,
	)
	if err != nil {
		logger.Fatal("warmup scheduler init failed", zap.Error(err))
	}
	scheduler.SetMetrics(metrics)

	tenantService, err := service.NewTenantService(tenantRepo, plans, logger)
	if err != nil {
		logger.Fatal("tenant service init failed", zap.Error(err))
	}

	identityService, err := service.NewIdentityService(
		identityRepo, tenantRepo, warmupLogRepo, controller, provider.NewPassingDNSChecker(), locker, ramp, logger,
	)
	if err != nil {
		logger.Fatal("identity service init failed", zap.Error(err))
	}
	identityService.SetMetrics(metrics)

	publisher := queue.NewRabbitMQPublisher(mq)
	campaignService, err := service.NewCampaignService(
		campaignRepo, identityRepo, tenantRepo, outcomeRepo, controller, publisher, logger,
	)
	if err != nil {
		logger.Fatal("campaign service init failed", zap.Error(err))
	}
	campaignService.SetMetrics(metrics)

	consumer := queue.NewRabbitMQConsumer(mq, cfg.WorkerConcurrency, logger)
	defer consumer.Close()

	workerService, err := service.NewWorkerService(consumer, dispatcher, cfg.WorkerConcurrency, logger)
	if err != nil {
		logger.Fatal("worker service init failed", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(requestid.New())
	app.Use(handler.RequestContext())
	app.Use(metrics.HTTPMiddleware())
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	handler.RegisterHealthRoutes(app, sqlDB, rdb, mq)
	mustRegister(logger, "tenant", handler.RegisterTenantRoutes(app, tenantService))
	mustRegister(logger, "identity", handler.RegisterIdentityRoutes(app, identityService, healthService))
	mustRegister(logger, "campaign", handler.RegisterCampaignRoutes(app, campaignService))
	mustRegister(logger, "content", handler.RegisterContentRoutes(app, scorer))
	mustRegister(logger, "warmup", handler.RegisterWarmupRoutes(app, scheduler))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return workerService.Start(gctx)
	})
	g.Go(func() error {
		return scheduler.Start(gctx)
	})
	g.Go(func() error {
		logger.Info("warmup engine api started", zap.Int("port", cfg.APIPort), zap.String("sender", cfg.SenderKind))
		return app.Listen(fmt.Sprintf(":%d", cfg.APIPort))
	})
	g.Go(func() error {
		<-gctx.Done()
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("warmup engine stopped with error", zap.Error(err))
		return
	}
	logger.Info("warmup engine stopped")
}

func newSender(ctx context.Context, cfg *config.Config) (provider.Sender, error) {
	switch cfg.SenderKind {
	case config.SenderWebhook:
		return provider.NewWebhookSender(cfg.WebhookSenderURL)
	case config.SenderSES:
		return provider.NewSESSender(ctx, provider.SESConfig{
			Region:    cfg.SESRegion,
			AccessKey: cfg.SESAccessKey,
			SecretKey: cfg.SESSecretKey,
			From:      cfg.SESFrom,
		})
	default:
		return provider.NewSimulatedSender(0), nil
	}
}

func mustRegister(logger *zap.Logger, name string, err error) {
	if err != nil {
		logger.Fatal("route registration failed", zap.String("routes", name), zap.Error(err))
	}
}
