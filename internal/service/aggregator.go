package service

import (
	"context"
	"fmt"
	"time"

	"github.com/DeeipChheda/warmup-master-main/internal/domain"
	"github.com/DeeipChheda/warmup-master-main/internal/lock"
	"github.com/DeeipChheda/warmup-master-main/internal/observability"
	"github.com/DeeipChheda/warmup-master-main/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Aggregator is the only writer of send outcome records. Every record is
// followed by a health check of the sending identity.
type Aggregator struct {
	outcomes repository.OutcomeRepository
	health   *HealthService
	locker   lock.Locker
	logger   *zap.Logger
	metrics  *observability.Metrics
	now      func() time.Time
}

func NewAggregator(
	outcomes repository.OutcomeRepository,
	healthService *HealthService,
	locker lock.Locker,
	logger *zap.Logger,
) (*Aggregator, error) {
	if outcomes == nil {
		return nil, fmt.Errorf("outcome repository is required")
	}
	if healthService == nil {
		return nil, fmt.Errorf("health service is required")
	}
	if locker == nil {
		return nil, fmt.Errorf("locker is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Aggregator{
		outcomes: outcomes,
		health:   healthService,
		locker:   locker,
		logger:   logger,
		now:      time.Now,
	}, nil
}

func (a *Aggregator) SetMetrics(metrics *observability.Metrics) {
	a.metrics = metrics
}

// Record stores one outcome under the identity lock.
func (a *Aggregator) Record(ctx context.Context, outcome *domain.SendOutcome) (*HealthView, error) {
	unlock, err := a.locker.Lock(ctx, lock.IdentityKey(outcome.IdentityID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	return a.recordLocked(ctx, outcome)
}

// recordLocked expects the caller to hold the identity lock. A failed health
// check does not undo the stored outcome.
func (a *Aggregator) recordLocked(ctx context.Context, outcome *domain.SendOutcome) (*HealthView, error) {
	if outcome.ID == "" {
		outcome.ID = uuid.NewString()
	}
	if outcome.CreatedAt.IsZero() {
		outcome.CreatedAt = a.now().UTC()
	}
	if err := a.outcomes.Record(ctx, outcome); err != nil {
		return nil, err
	}
	a.metrics.IncOutcome(outcome.Outcome.String())

	view, err := a.health.checkLocked(ctx, outcome.IdentityID)
	if err != nil {
		a.logger.Error("health check after outcome failed",
			zap.String("identityId", outcome.IdentityID),
			zap.Error(err),
		)
		return nil, nil
	}
	return view, nil
}
