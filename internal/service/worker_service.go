package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/DeeipChheda/warmup-master-main/internal/domain"
	"github.com/DeeipChheda/warmup-master-main/internal/observability"
	"github.com/DeeipChheda/warmup-master-main/internal/queue"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const minWorkerConcurrency = 1

// CampaignDispatcher runs one campaign dispatch.
type CampaignDispatcher interface {
	Dispatch(ctx context.Context, campaignID string) (*DispatchReport, error)
}

type WorkerService struct {
	consumer    queue.Consumer
	dispatcher  CampaignDispatcher
	logger      *zap.Logger
	concurrency int
}

func NewWorkerService(
	consumer queue.Consumer,
	dispatcher CampaignDispatcher,
	concurrency int,
	logger *zap.Logger,
) (*WorkerService, error) {
	if consumer == nil {
		return nil, fmt.Errorf("consumer is required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if concurrency < minWorkerConcurrency {
		concurrency = minWorkerConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WorkerService{
		consumer:    consumer,
		dispatcher:  dispatcher,
		logger:      logger,
		concurrency: concurrency,
	}, nil
}

// Start consumes the dispatch queue until context cancellation.
func (s *WorkerService) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	queueNames := queue.WorkQueueNames()
	if len(queueNames) == 0 {
		return fmt.Errorf("no work queues configured")
	}

	g, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < s.concurrency; i++ {
		queueName := queueNames[i%len(queueNames)]
		workerID := i + 1

		g.Go(func() error {
			s.logger.Info("worker started",
				zap.Int("workerId", workerID),
				zap.String("queue", queueName),
			)

			err := s.consumer.Consume(groupCtx, queueName, s.processMessage)
			if err != nil {
				s.logger.Error("worker stopped with error",
					zap.Int("workerId", workerID),
					zap.String("queue", queueName),
					zap.Error(err),
				)
				return err
			}

			s.logger.Info("worker stopped",
				zap.Int("workerId", workerID),
				zap.String("queue", queueName),
			)
			return nil
		})
	}

	return g.Wait()
}

// processMessage acks unusable messages. Only infrastructure failures are
// returned so the consumer can requeue them.
func (s *WorkerService) processMessage(ctx context.Context, msg queue.CampaignMessage) error {
	if err := msg.Validate(); err != nil {
		s.logger.Error("dropping invalid campaign message", zap.Error(err))
		return nil
	}

	if msg.CorrelationID != "" {
		ctx = observability.WithCorrelationID(ctx, msg.CorrelationID)
	}
	ctx = observability.WithTenantID(ctx, msg.TenantID)
	logger := observability.WithContextLogger(s.logger, ctx)

	report, err := s.dispatcher.Dispatch(ctx, msg.CampaignID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Warn("campaign not found, skipping",
				zap.String("campaignId", msg.CampaignID),
			)
			return nil
		}
		return fmt.Errorf("failed to dispatch campaign %s: %w", msg.CampaignID, err)
	}

	logger.Info("campaign message processed",
		zap.String("campaignId", report.CampaignID),
		zap.String("status", report.Status.String()),
		zap.Int("sent", len(report.Sent)),
		zap.Int("unsent", len(report.Unsent)),
		zap.Int("unresolved", len(report.Unresolved)),
	)
	return nil
}
