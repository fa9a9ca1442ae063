package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DeeipChheda/warmup-master-main/internal/admission"
	"github.com/DeeipChheda/warmup-master-main/internal/domain"
	"github.com/DeeipChheda/warmup-master-main/internal/lock"
	"github.com/DeeipChheda/warmup-master-main/internal/observability"
	"github.com/DeeipChheda/warmup-master-main/internal/repository"
	"github.com/DeeipChheda/warmup-master-main/internal/warmup"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultWarmupScanInterval = time.Hour

// CycleFailure is one identity the cycle could not process.
type CycleFailure struct {
	IdentityID string
	Err        error
}

// CycleReport is the result of one progression run over one identity kind.
type CycleReport struct {
	Period   string
	Kind     domain.IdentityKind
	Advanced []string
	Reset    []string
	Skipped  []string
	Failures []CycleFailure
}

// WarmupScheduler advances identities through their ramp once per period.
type WarmupScheduler struct {
	identities repository.IdentityRepository
	outcomes   repository.OutcomeRepository
	tenants    repository.TenantRepository
	plans      admission.PlanResolver
	health     *HealthService
	locker     lock.Locker
	ramp       warmup.Config
	interval   time.Duration
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time
}

func NewWarmupScheduler(
	identities repository.IdentityRepository,
	outcomes repository.OutcomeRepository,
	tenants repository.TenantRepository,
	plans admission.PlanResolver,
	healthService *HealthService,
	locker lock.Locker,
	ramp warmup.Config,
	interval time.Duration,
	logger *zap.Logger,
) (*WarmupScheduler, error) {
	if identities == nil || outcomes == nil || tenants == nil {
		return nil, fmt.Errorf("identity, outcome and tenant repositories are required")
	}
	if plans == nil {
		return nil, fmt.Errorf("plan resolver is required")
	}
	if healthService == nil {
		return nil, fmt.Errorf("health service is required")
	}
	if locker == nil {
		return nil, fmt.Errorf("locker is required")
	}
	if interval <= 0 {
		interval = defaultWarmupScanInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WarmupScheduler{
		identities: identities,
		outcomes:   outcomes,
		tenants:    tenants,
		plans:      plans,
		health:     healthService,
		locker:     locker,
		ramp:       ramp.WithDefaults(),
		interval:   interval,
		logger:     logger,
		now:        time.Now,
	}, nil
}

func (s *WarmupScheduler) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// Start runs both cycles on every tick. A repeat run within a period is a
// no-op, so the interval only bounds how late a new period is picked up.
func (s *WarmupScheduler) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.runAll(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("warmup initial cycle failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.runAll(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Error("warmup cycle failed", zap.Error(err))
			}
		}
	}
}

func (s *WarmupScheduler) runAll(ctx context.Context) error {
	if _, err := s.AdvanceDomains(ctx); err != nil {
		return err
	}
	_, err := s.AdvanceMailboxes(ctx)
	return err
}

func (s *WarmupScheduler) AdvanceDomains(ctx context.Context) (*CycleReport, error) {
	return s.advance(ctx, domain.KindDomain)
}

func (s *WarmupScheduler) AdvanceMailboxes(ctx context.Context) (*CycleReport, error) {
	return s.advance(ctx, domain.KindMailbox)
}

// advance returns an error only when the identities cannot be listed.
// Per-identity problems are collected into the report.
func (s *WarmupScheduler) advance(ctx context.Context, kind domain.IdentityKind) (*CycleReport, error) {
	now := s.now().UTC()
	report := &CycleReport{Period: warmup.PeriodKey(now), Kind: kind}

	ids, err := s.identities.ListIDsByKind(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s identities: %w", kind, err)
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		advanced, skipped, err := s.advanceOne(ctx, id, report.Period, now)
		switch {
		case err != nil:
			report.Failures = append(report.Failures, CycleFailure{IdentityID: id, Err: err})
			s.metrics.IncWarmupFailure(kind.String())
			s.logger.Error("warmup cycle failed for identity",
				zap.String("identityId", id),
				zap.String("period", report.Period),
				zap.Error(err),
			)
		case skipped:
			report.Skipped = append(report.Skipped, id)
		case advanced:
			report.Advanced = append(report.Advanced, id)
			s.metrics.IncWarmupAdvance(kind.String())
		default:
			report.Reset = append(report.Reset, id)
		}
	}

	s.logger.Info("warmup cycle finished",
		zap.String("kind", kind.String()),
		zap.String("period", report.Period),
		zap.Int("advanced", len(report.Advanced)),
		zap.Int("reset", len(report.Reset)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("failed", len(report.Failures)),
	)
	return report, nil
}

func (s *WarmupScheduler) advanceOne(
	ctx context.Context,
	identityID string,
	period string,
	now time.Time,
) (advanced bool, skipped bool, err error) {
	unlock, err := s.locker.Lock(ctx, lock.IdentityKey(identityID))
	if err != nil {
		return false, false, err
	}
	defer unlock()

	identity, err := s.identities.GetByID(ctx, identityID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, true, nil
	}
	if err != nil {
		return false, false, err
	}
	if err := identity.Validate(); err != nil {
		return false, false, fmt.Errorf("%w: %v", domain.ErrMalformed, err)
	}
	if identity.LastCyclePeriod == period {
		return false, true, nil
	}

	steadyLimit, err := s.steadyLimit(ctx, identity.TenantID)
	if err != nil {
		return false, false, err
	}

	tally, err := s.outcomes.Tally(ctx, identity.ID, identity.LastResetAt)
	if err != nil {
		return false, false, fmt.Errorf("failed to tally outcomes: %w", err)
	}

	step := s.ramp.Advance(*identity, steadyLimit, period, tally, now)
	step.Log.ID = uuid.NewString()
	if err := s.identities.ApplyCycle(ctx, &step.Identity, &step.Log); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return false, true, nil
		}
		return false, false, err
	}

	if step.Advanced {
		s.logger.Debug("identity advanced",
			zap.String("identityId", identity.ID),
			zap.Int("day", step.Identity.WarmupDay),
			zap.Int("dailyLimit", step.Identity.DailyLimit),
			zap.Bool("completed", step.Identity.WarmupCompleted),
		)
	}

	if identity.Kind == domain.KindMailbox {
		if _, err := s.health.checkLocked(ctx, identity.ID); err != nil {
			s.logger.Error("health check after progression failed",
				zap.String("identityId", identity.ID),
				zap.Error(err),
			)
		}
	}

	return step.Advanced, false, nil
}

func (s *WarmupScheduler) steadyLimit(ctx context.Context, tenantID string) (int, error) {
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("failed to load tenant %s: %w", tenantID, err)
	}
	return s.plans.Resolve(*tenant).DailyLimitPerIdentity, nil
}
