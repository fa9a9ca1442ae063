package service

import (
	"context"
	"fmt"
	"time"

	"github.com/DeeipChheda/warmup-master-main/internal/domain"
	"github.com/DeeipChheda/warmup-master-main/internal/health"
	"github.com/DeeipChheda/warmup-master-main/internal/lock"
	"github.com/DeeipChheda/warmup-master-main/internal/observability"
	"github.com/DeeipChheda/warmup-master-main/internal/repository"
	"go.uber.org/zap"
)

// HealthView is the current deliverability picture of one identity.
type HealthView struct {
	IdentityID   string
	Kind         domain.IdentityKind
	Tally        domain.OutcomeTally
	BounceRate   float64
	SpamRate     float64
	HealthScore  int
	HealthStatus domain.HealthStatus
	IsPaused     bool
	PauseReason  string
	// Paused is true when this check performed the pause.
	Paused bool
}

// HealthService runs the auto-pause engine against stored outcomes.
type HealthService struct {
	identities repository.IdentityRepository
	outcomes   repository.OutcomeRepository
	locker     lock.Locker
	logger     *zap.Logger
	metrics    *observability.Metrics
}

func NewHealthService(
	identities repository.IdentityRepository,
	outcomes repository.OutcomeRepository,
	locker lock.Locker,
	logger *zap.Logger,
) (*HealthService, error) {
	if identities == nil || outcomes == nil {
		return nil, fmt.Errorf("identity and outcome repositories are required")
	}
	if locker == nil {
		return nil, fmt.Errorf("locker is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HealthService{
		identities: identities,
		outcomes:   outcomes,
		locker:     locker,
		logger:     logger,
	}, nil
}

func (s *HealthService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// Check evaluates the identity under its lock and persists any change.
func (s *HealthService) Check(ctx context.Context, identityID string) (*HealthView, error) {
	unlock, err := s.locker.Lock(ctx, lock.IdentityKey(identityID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	return s.checkLocked(ctx, identityID)
}

// checkLocked expects the caller to hold the identity lock.
func (s *HealthService) checkLocked(ctx context.Context, identityID string) (*HealthView, error) {
	identity, err := s.identities.GetByID(ctx, identityID)
	if err != nil {
		return nil, err
	}

	tally, err := s.outcomes.Tally(ctx, identityID, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("failed to tally outcomes: %w", err)
	}

	decision := health.Assess(*identity, tally)
	if health.Apply(identity, decision) {
		if err := s.identities.Update(ctx, identity); err != nil {
			return nil, fmt.Errorf("failed to persist health: %w", err)
		}
	}

	if decision.Pause && decision.Breach != nil {
		s.metrics.IncAutoPause(identity.Kind.String(), decision.Breach.Reason)
		s.logger.Warn("identity auto-paused",
			zap.String("identityId", identity.ID),
			zap.String("kind", identity.Kind.String()),
			zap.String("reason", decision.Breach.Reason),
			zap.Float64("rate", decision.Breach.Rate),
			zap.Float64("threshold", decision.Breach.Threshold),
			zap.Int("healthScore", identity.HealthScore),
		)
	}

	view := newHealthView(*identity, tally, decision.Rates)
	view.Paused = decision.Pause
	return view, nil
}

// View reports rates and status without mutating the identity.
func (s *HealthService) View(ctx context.Context, tenantID, identityID string) (*HealthView, error) {
	identity, err := s.identities.GetForTenant(ctx, tenantID, identityID)
	if err != nil {
		return nil, err
	}

	tally, err := s.outcomes.Tally(ctx, identity.ID, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("failed to tally outcomes: %w", err)
	}

	rates := health.ComputeRates(tally)
	view := newHealthView(*identity, tally, rates)
	view.HealthStatus = health.Classify(rates, identity.HealthScore)
	return view, nil
}

func newHealthView(identity domain.Identity, tally domain.OutcomeTally, rates health.Rates) *HealthView {
	return &HealthView{
		IdentityID:   identity.ID,
		Kind:         identity.Kind,
		Tally:        tally,
		BounceRate:   rates.Bounce,
		SpamRate:     rates.Spam,
		HealthScore:  identity.HealthScore,
		HealthStatus: identity.HealthStatus,
		IsPaused:     identity.IsPaused,
		PauseReason:  identity.PauseReasonText(),
	}
}
