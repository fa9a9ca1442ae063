package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DeeipChheda/warmup-master-main/internal/admission"
	"github.com/DeeipChheda/warmup-master-main/internal/domain"
	"github.com/DeeipChheda/warmup-master-main/internal/health"
	"github.com/DeeipChheda/warmup-master-main/internal/lock"
	"github.com/DeeipChheda/warmup-master-main/internal/observability"
	"github.com/DeeipChheda/warmup-master-main/internal/provider"
	"github.com/DeeipChheda/warmup-master-main/internal/repository"
	"github.com/DeeipChheda/warmup-master-main/internal/warmup"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const warmupStatsWindow = 30

// CreateIdentityInput carries the caller-provided fields of a new identity.
// Zero values take the defaults.
type CreateIdentityInput struct {
	Kind            domain.IdentityKind
	Address         string
	Mode            domain.Mode
	BounceThreshold float64
	SpamThreshold   float64
	WarmupEnabled   bool
	WarmupSettings
}

// WarmupSettings are the adjustable mailbox warmup knobs. Nil leaves a value
// unchanged.
type WarmupSettings struct {
	DailyVolume     *int
	RampUp          *int
	DailySendLimit  *int
	BounceThreshold *float64
}

// WarmupStats aggregates the most recent warmup log entries of an identity.
type WarmupStats struct {
	IdentityID   string
	WarmupDay    int
	WarmupStatus domain.WarmupStatus
	Completed    bool
	DailyLimit   int
	SentToday    int
	Sent         int64
	Delivered    int64
	Bounced      int64
	Spam         int64
	BounceRate   float64
	SpamRate     float64
	Logs         []domain.WarmupLog
}

type IdentityService struct {
	identities repository.IdentityRepository
	tenants    repository.TenantRepository
	logs       repository.WarmupLogRepository
	admission  *admission.Controller
	dns        provider.DNSChecker
	locker     lock.Locker
	ramp       warmup.Config
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time
}

func NewIdentityService(
	identities repository.IdentityRepository,
	tenants repository.TenantRepository,
	logs repository.WarmupLogRepository,
	controller *admission.Controller,
	dns provider.DNSChecker,
	locker lock.Locker,
	ramp warmup.Config,
	logger *zap.Logger,
) (*IdentityService, error) {
	if identities == nil || tenants == nil || logs == nil {
		return nil, fmt.Errorf("identity, tenant and warmup log repositories are required")
	}
	if controller == nil {
		return nil, fmt.Errorf("admission controller is required")
	}
	if locker == nil {
		return nil, fmt.Errorf("locker is required")
	}
	if dns == nil {
		dns = provider.NewPassingDNSChecker()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &IdentityService{
		identities: identities,
		tenants:    tenants,
		logs:       logs,
		admission:  controller,
		dns:        dns,
		locker:     locker,
		ramp:       ramp.WithDefaults(),
		logger:     logger,
		now:        time.Now,
	}, nil
}

func (s *IdentityService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// Create admits and stores a new identity. The count-then-insert runs under
// the tenant lock so concurrent creates cannot overshoot the quota.
func (s *IdentityService) Create(ctx context.Context, tenantID string, in CreateIdentityInput) (*domain.Identity, error) {
	identity, err := newIdentity(tenantID, in)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, lock.TenantKey(tenantID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	owned, err := s.identities.CountByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to count identities: %w", err)
	}

	if err := s.admission.CanCreateIdentity(*tenant, int(owned), identity.Mode); err != nil {
		s.metrics.IncAdmission("create_identity", creationResult(err))
		return nil, err
	}
	s.metrics.IncAdmission("create_identity", "admitted")

	identity.DailyLimit = s.ramp.InitialLimit(*identity)
	identity.LastResetAt = s.now().UTC()
	if err := identity.Validate(); err != nil {
		return nil, err
	}
	if err := s.identities.Create(ctx, identity); err != nil {
		return nil, err
	}

	s.logger.Info("identity created",
		zap.String("tenantId", tenantID),
		zap.String("identityId", identity.ID),
		zap.String("kind", identity.Kind.String()),
		zap.String("mode", identity.Mode.String()),
	)
	return identity, nil
}

func newIdentity(tenantID string, in CreateIdentityInput) (*domain.Identity, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, fmt.Errorf("%w: tenantId is required", domain.ErrValidation)
	}
	if !in.Kind.IsValid() {
		return nil, fmt.Errorf("%w: invalid identity kind %q", domain.ErrValidation, in.Kind)
	}

	identity := &domain.Identity{
		ID:              uuid.NewString(),
		TenantID:        tenantID,
		Kind:            in.Kind,
		Address:         strings.ToLower(strings.TrimSpace(in.Address)),
		Mode:            in.Mode,
		HealthScore:     domain.MaxHealthScore,
		HealthStatus:    domain.HealthHealthy,
		BounceThreshold: in.BounceThreshold,
		SpamThreshold:   in.SpamThreshold,
	}

	policy := health.PolicyFor(*identity)
	identity.BounceThreshold = policy.BounceThreshold
	identity.SpamThreshold = policy.SpamThreshold

	if identity.Kind == domain.KindMailbox {
		identity.WarmupEnabled = in.WarmupEnabled
		identity.WarmupStatus = domain.WarmupInactive
		if in.WarmupEnabled {
			identity.WarmupStatus = domain.WarmupActive
		}
		identity.WarmupDailyVolume = domain.DefaultMailboxDailyVolume
		identity.WarmupRampUp = domain.DefaultMailboxRampUp
		identity.DailySendLimit = domain.DefaultMailboxDailySendLimit
		if err := applySettings(identity, in.WarmupSettings); err != nil {
			return nil, err
		}
	}

	return identity, nil
}

func (s *IdentityService) List(ctx context.Context, tenantID string) ([]domain.Identity, error) {
	return s.identities.ListByTenant(ctx, tenantID)
}

func (s *IdentityService) Get(ctx context.Context, tenantID, id string) (*domain.Identity, error) {
	return s.identities.GetForTenant(ctx, tenantID, id)
}

// Validate records the DNS checker's flags verbatim. Verified requires all
// three.
func (s *IdentityService) Validate(ctx context.Context, tenantID, id string) (*domain.Identity, error) {
	return s.mutate(ctx, tenantID, id, func(identity *domain.Identity) (bool, error) {
		result, err := s.dns.Check(ctx, identity.Address)
		if err != nil {
			return false, fmt.Errorf("dns check failed: %w", err)
		}
		identity.SPFValid = result.SPF
		identity.DKIMValid = result.DKIM
		identity.DMARCValid = result.DMARC
		identity.Verified = result.Verified()
		return true, nil
	})
}

// Pause is a no-op for an identity that is already paused.
func (s *IdentityService) Pause(ctx context.Context, tenantID, id, reason string) (*domain.Identity, error) {
	return s.mutate(ctx, tenantID, id, func(identity *domain.Identity) (bool, error) {
		if identity.IsPaused {
			return false, nil
		}
		identity.Pause(reason)
		s.logger.Info("identity paused",
			zap.String("identityId", identity.ID),
			zap.String("reason", identity.PauseReasonText()),
		)
		return true, nil
	})
}

func (s *IdentityService) Resume(ctx context.Context, tenantID, id string) (*domain.Identity, error) {
	return s.mutate(ctx, tenantID, id, func(identity *domain.Identity) (bool, error) {
		if !identity.IsPaused {
			return false, nil
		}
		identity.Resume()
		s.logger.Info("identity resumed", zap.String("identityId", identity.ID))
		return true, nil
	})
}

// ResetHealth is the administrative path that raises the health score.
func (s *IdentityService) ResetHealth(ctx context.Context, tenantID, id string) (*domain.Identity, error) {
	return s.mutate(ctx, tenantID, id, func(identity *domain.Identity) (bool, error) {
		identity.HealthScore = domain.MaxHealthScore
		identity.HealthStatus = health.Classify(health.Rates{
			Bounce: identity.BounceRate,
			Spam:   identity.SpamRate,
		}, identity.HealthScore)
		return true, nil
	})
}

// StartWarmup requires a verified, unpaused mailbox.
func (s *IdentityService) StartWarmup(ctx context.Context, tenantID, id string) (*domain.Identity, error) {
	return s.mutate(ctx, tenantID, id, func(identity *domain.Identity) (bool, error) {
		if err := requireMailbox(identity); err != nil {
			return false, err
		}
		if identity.IsPaused {
			return false, &domain.IdentityPausedError{IdentityID: identity.ID, Reason: identity.PauseReasonText()}
		}
		if !identity.Verified {
			return false, fmt.Errorf("%w: mailbox must be verified before warmup", domain.ErrValidation)
		}
		if identity.WarmupCompleted {
			return false, fmt.Errorf("%w: warmup already completed", domain.ErrConflict)
		}
		if identity.WarmupEnabled && identity.WarmupStatus == domain.WarmupActive {
			return false, nil
		}

		identity.WarmupEnabled = true
		identity.WarmupStatus = domain.WarmupActive
		identity.DailyLimit = s.ramp.MailboxLimit(identity.WarmupDay, *identity)
		return true, nil
	})
}

func (s *IdentityService) StopWarmup(ctx context.Context, tenantID, id string) (*domain.Identity, error) {
	return s.mutate(ctx, tenantID, id, func(identity *domain.Identity) (bool, error) {
		if err := requireMailbox(identity); err != nil {
			return false, err
		}
		if identity.WarmupStatus != domain.WarmupActive {
			return false, nil
		}
		identity.WarmupStatus = domain.WarmupPaused
		return true, nil
	})
}

func (s *IdentityService) UpdateSettings(ctx context.Context, tenantID, id string, settings WarmupSettings) (*domain.Identity, error) {
	return s.mutate(ctx, tenantID, id, func(identity *domain.Identity) (bool, error) {
		if err := requireMailbox(identity); err != nil {
			return false, err
		}
		if err := applySettings(identity, settings); err != nil {
			return false, err
		}
		if !identity.WarmupEnabled || identity.WarmupCompleted {
			identity.DailyLimit = identity.DailySendLimit
		} else {
			identity.DailyLimit = min(identity.DailyLimit, identity.DailySendLimit)
		}
		return true, nil
	})
}

func applySettings(identity *domain.Identity, settings WarmupSettings) error {
	if settings.DailyVolume != nil {
		if *settings.DailyVolume < 1 {
			return fmt.Errorf("%w: dailyVolume must be positive", domain.ErrValidation)
		}
		identity.WarmupDailyVolume = *settings.DailyVolume
	}
	if settings.RampUp != nil {
		if *settings.RampUp < 0 {
			return fmt.Errorf("%w: rampUp must be non-negative", domain.ErrValidation)
		}
		identity.WarmupRampUp = *settings.RampUp
	}
	if settings.DailySendLimit != nil {
		if *settings.DailySendLimit < 1 {
			return fmt.Errorf("%w: dailySendLimit must be positive", domain.ErrValidation)
		}
		identity.DailySendLimit = *settings.DailySendLimit
	}
	if settings.BounceThreshold != nil {
		if *settings.BounceThreshold <= 0 {
			return fmt.Errorf("%w: bounceThreshold must be positive", domain.ErrValidation)
		}
		identity.BounceThreshold = *settings.BounceThreshold
	}
	return nil
}

// WarmupStats sums the last 30 log entries.
func (s *IdentityService) WarmupStats(ctx context.Context, tenantID, id string) (*WarmupStats, error) {
	identity, err := s.identities.GetForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	logs, err := s.logs.ListRecent(ctx, identity.ID, warmupStatsWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load warmup logs: %w", err)
	}

	stats := &WarmupStats{
		IdentityID:   identity.ID,
		WarmupDay:    identity.WarmupDay,
		WarmupStatus: identity.WarmupStatus,
		Completed:    identity.WarmupCompleted,
		DailyLimit:   identity.DailyLimit,
		SentToday:    identity.SentToday,
		Logs:         logs,
	}
	for _, l := range logs {
		stats.Sent += l.Sent
		stats.Delivered += l.Delivered
		stats.Bounced += l.Bounced
		stats.Spam += l.Spam
	}

	rates := health.ComputeRates(domain.OutcomeTally{
		Sent:    stats.Sent,
		Bounced: stats.Bounced,
		Spam:    stats.Spam,
	})
	stats.BounceRate = rates.Bounce
	stats.SpamRate = rates.Spam
	return stats, nil
}

// mutate loads the tenant's identity under its lock, applies fn and persists
// the result when fn reports a change.
func (s *IdentityService) mutate(
	ctx context.Context,
	tenantID, id string,
	fn func(identity *domain.Identity) (bool, error),
) (*domain.Identity, error) {
	unlock, err := s.locker.Lock(ctx, lock.IdentityKey(id))
	if err != nil {
		return nil, err
	}
	defer unlock()

	identity, err := s.identities.GetForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	changed, err := fn(identity)
	if err != nil {
		return nil, err
	}
	if !changed {
		return identity, nil
	}

	if err := identity.Validate(); err != nil {
		return nil, err
	}
	if err := s.identities.Update(ctx, identity); err != nil {
		return nil, err
	}
	return identity, nil
}

func requireMailbox(identity *domain.Identity) error {
	if identity.Kind != domain.KindMailbox {
		return fmt.Errorf("%w: warmup settings apply to mailboxes only", domain.ErrValidation)
	}
	return nil
}

func creationResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, domain.ErrModeNotEntitled):
		return "mode_not_entitled"
	default:
		return "error"
	}
}
