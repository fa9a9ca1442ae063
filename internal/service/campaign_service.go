package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/DeeipChheda/warmup-master-main/internal/admission"
	"github.com/DeeipChheda/warmup-master-main/internal/domain"
	"github.com/DeeipChheda/warmup-master-main/internal/observability"
	"github.com/DeeipChheda/warmup-master-main/internal/queue"
	"github.com/DeeipChheda/warmup-master-main/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CampaignService struct {
	campaigns  repository.CampaignRepository
	identities repository.IdentityRepository
	tenants    repository.TenantRepository
	outcomes   repository.OutcomeRepository
	admission  *admission.Controller
	publisher  queue.Publisher
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time
}

func NewCampaignService(
	campaigns repository.CampaignRepository,
	identities repository.IdentityRepository,
	tenants repository.TenantRepository,
	outcomes repository.OutcomeRepository,
	controller *admission.Controller,
	publisher queue.Publisher,
	logger *zap.Logger,
) (*CampaignService, error) {
	if campaigns == nil || identities == nil || tenants == nil || outcomes == nil {
		return nil, fmt.Errorf("campaign, identity, tenant and outcome repositories are required")
	}
	if controller == nil {
		return nil, fmt.Errorf("admission controller is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CampaignService{
		campaigns:  campaigns,
		identities: identities,
		tenants:    tenants,
		outcomes:   outcomes,
		admission:  controller,
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
	}, nil
}

func (s *CampaignService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// Create stores a draft. The identity must belong to the tenant and have room
// for every recipient today.
func (s *CampaignService) Create(ctx context.Context, tenantID string, campaign *domain.Campaign) (*domain.Campaign, error) {
	campaign.TenantID = tenantID
	campaign.Status = domain.CampaignDraft
	campaign.Recipients = normalizeRecipients(campaign.Recipients)
	if err := campaign.Validate(); err != nil {
		return nil, err
	}

	identity, err := s.identities.GetForTenant(ctx, tenantID, campaign.IdentityID)
	if err != nil {
		return nil, err
	}
	if _, err := s.admission.CanSend(*identity, len(campaign.Recipients)); err != nil {
		s.metrics.IncAdmission("campaign_create", admissionResult(err))
		return nil, err
	}
	s.metrics.IncAdmission("campaign_create", "admitted")

	campaign.ID = uuid.NewString()
	if err := s.campaigns.Create(ctx, campaign); err != nil {
		return nil, err
	}

	s.logger.Info("campaign created",
		zap.String("tenantId", tenantID),
		zap.String("campaignId", campaign.ID),
		zap.String("identityId", campaign.IdentityID),
		zap.Int("recipients", len(campaign.Recipients)),
	)
	return campaign, nil
}

func (s *CampaignService) Get(ctx context.Context, tenantID, id string) (*domain.Campaign, error) {
	return s.campaigns.GetForTenant(ctx, tenantID, id)
}

func (s *CampaignService) List(ctx context.Context, tenantID string) ([]domain.Campaign, error) {
	return s.campaigns.ListByTenant(ctx, tenantID)
}

// Send moves a draft or paused campaign into sending and enqueues it. Only
// recipients without a recorded outcome count against today's quota.
func (s *CampaignService) Send(ctx context.Context, tenantID, id string) (*domain.Campaign, error) {
	campaign, err := s.campaigns.GetForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !campaign.Status.Sendable() {
		return nil, fmt.Errorf("%w: campaign is %s", domain.ErrConflict, campaign.Status)
	}

	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	identity, err := s.identities.GetForTenant(ctx, tenantID, campaign.IdentityID)
	if err != nil {
		return nil, err
	}
	if err := s.admission.CheckMode(*tenant, identity.Mode); err != nil {
		s.metrics.IncAdmission("campaign_send", "mode_not_entitled")
		return nil, err
	}

	done, err := s.outcomes.RecipientsWithOutcome(ctx, campaign.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recorded recipients: %w", err)
	}
	pending := len(campaign.Recipients) - len(done)
	if _, err := s.admission.CanSend(*identity, max(pending, 0)); err != nil {
		s.metrics.IncAdmission("campaign_send", admissionResult(err))
		return nil, err
	}
	s.metrics.IncAdmission("campaign_send", "admitted")

	previous := campaign.Status
	sending, err := s.campaigns.Transition(ctx, campaign.ID,
		[]domain.CampaignStatus{domain.CampaignDraft, domain.CampaignPaused}, domain.CampaignSending)
	if err != nil {
		return nil, err
	}

	msg := queue.CampaignMessage{
		CampaignID:    sending.ID,
		TenantID:      tenantID,
		CorrelationID: correlationID(ctx),
		RequestedAt:   s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, queue.DispatchQueue, msg); err != nil {
		s.logger.Error("failed to publish campaign",
			zap.String("campaignId", sending.ID),
			zap.Error(err),
		)
		if _, revertErr := s.campaigns.Transition(context.WithoutCancel(ctx), sending.ID,
			[]domain.CampaignStatus{domain.CampaignSending}, previous); revertErr != nil {
			s.logger.Error("failed to revert campaign status after publish error",
				zap.String("campaignId", sending.ID),
				zap.Error(revertErr),
			)
			return nil, fmt.Errorf("failed to publish campaign: %w (failed to revert status: %v)", err, revertErr)
		}
		return nil, fmt.Errorf("failed to publish campaign: %w", err)
	}

	s.logger.Info("campaign queued",
		zap.String("campaignId", sending.ID),
		zap.String("correlationId", msg.CorrelationID),
		zap.Int("pending", pending),
	)
	return sending, nil
}

func normalizeRecipients(recipients []string) []string {
	out := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

func correlationID(ctx context.Context) string {
	if id, ok := observability.CorrelationIDFromContext(ctx); ok {
		return id
	}
	return uuid.NewString()
}
