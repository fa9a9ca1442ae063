package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/DeeipChheda/warmup-master-main/internal/admission"
	"github.com/DeeipChheda/warmup-master-main/internal/domain"
	"github.com/DeeipChheda/warmup-master-main/internal/lock"
	"github.com/DeeipChheda/warmup-master-main/internal/observability"
	"github.com/DeeipChheda/warmup-master-main/internal/provider"
	"github.com/DeeipChheda/warmup-master-main/internal/ratelimit"
	"github.com/DeeipChheda/warmup-master-main/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultMaxSendAttempts = 3
	baseRetryDelay         = 200 * time.Millisecond
	maxRetryDelay          = 2 * time.Second
	maxRetryJitterMillis   = 100
)

const (
	StopInterrupted = "interrupted"
	StopPaused      = "identity_paused"
	StopQuota       = "daily_limit_exceeded"
)

// DispatchReport summarizes one pass over a campaign's recipients.
type DispatchReport struct {
	CampaignID string
	Status     domain.CampaignStatus
	Sent       []string
	Unsent     []string
	Unresolved []string
	StopReason string
}

// Dispatcher sends a campaign one recipient at a time. Each recipient is one
// unit of (quota check, send, record, health check) under the identity lock.
type Dispatcher struct {
	campaigns   repository.CampaignRepository
	identities  repository.IdentityRepository
	outcomes    repository.OutcomeRepository
	aggregator  *Aggregator
	admission   *admission.Controller
	sender      provider.Sender
	senderName  string
	rateLimiter ratelimit.RateLimiter
	locker      lock.Locker
	logger      *zap.Logger
	metrics     *observability.Metrics
	maxAttempts int
	randIntn    func(n int) int
}

func NewDispatcher(
	campaigns repository.CampaignRepository,
	identities repository.IdentityRepository,
	outcomes repository.OutcomeRepository,
	aggregator *Aggregator,
	controller *admission.Controller,
	sender provider.Sender,
	rateLimiter ratelimit.RateLimiter,
	locker lock.Locker,
	logger *zap.Logger,
) (*Dispatcher, error) {
	if campaigns == nil || identities == nil || outcomes == nil {
		return nil, fmt.Errorf("campaign, identity and outcome repositories are required")
	}
	if aggregator == nil || controller == nil {
		return nil, fmt.Errorf("aggregator and admission controller are required")
	}
	if sender == nil {
		return nil, fmt.Errorf("sender is required")
	}
	if locker == nil {
		return nil, fmt.Errorf("locker is required")
	}
	if rateLimiter == nil {
		rateLimiter = ratelimit.Unlimited{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dispatcher{
		campaigns:   campaigns,
		identities:  identities,
		outcomes:    outcomes,
		aggregator:  aggregator,
		admission:   controller,
		sender:      sender,
		senderName:  senderLabel(sender),
		rateLimiter: rateLimiter,
		locker:      locker,
		logger:      logger,
		maxAttempts: defaultMaxSendAttempts,
		randIntn:    rand.IntN,
	}, nil
}

func (d *Dispatcher) SetMetrics(metrics *observability.Metrics) {
	d.metrics = metrics
}

// Dispatch sends every recipient of a sending campaign that has no outcome
// yet. A stopped batch leaves the campaign paused so it can be sent again.
func (d *Dispatcher) Dispatch(ctx context.Context, campaignID string) (*DispatchReport, error) {
	campaign, err := d.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	report := &DispatchReport{CampaignID: campaign.ID, Status: campaign.Status}
	if campaign.Status != domain.CampaignSending {
		d.logger.Warn("campaign is not sending, skipping dispatch",
			zap.String("campaignId", campaign.ID),
			zap.String("status", campaign.Status.String()),
		)
		return report, nil
	}

	d.metrics.IncDispatchInFlight()
	defer d.metrics.DecDispatchInFlight()

	identity, err := d.identities.GetByID(ctx, campaign.IdentityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sending identity: %w", err)
	}

	pending, err := d.pendingRecipients(ctx, campaign)
	if err != nil {
		return nil, err
	}

	if _, err := d.admission.CanSend(*identity, len(pending)); err != nil {
		d.metrics.IncAdmission("send", admissionResult(err))
		report.Unsent = pending
		report.StopReason = stopReasonFor(err)
		return d.finish(ctx, campaign, report)
	}
	d.metrics.IncAdmission("send", "admitted")

	for i, recipient := range pending {
		if ctx.Err() != nil {
			report.Unsent = append(report.Unsent, pending[i:]...)
			report.StopReason = StopInterrupted
			break
		}

		stop, consumed := d.sendOne(ctx, campaign, identity, recipient, report)
		if stop != "" {
			rest := pending[i:]
			if consumed {
				rest = pending[i+1:]
			}
			report.Unsent = append(report.Unsent, rest...)
			report.StopReason = stop
			break
		}
	}

	return d.finish(ctx, campaign, report)
}

// sendOne returns a non-empty stop reason when the batch must stop. consumed
// reports whether the recipient was already accounted for as sent or
// unresolved. Failures after the send attempt mark it unresolved.
func (d *Dispatcher) sendOne(
	ctx context.Context,
	campaign *domain.Campaign,
	identity *domain.Identity,
	recipient string,
	report *DispatchReport,
) (stop string, consumed bool) {
	unlock, err := d.locker.Lock(ctx, lock.IdentityKey(identity.ID))
	if err != nil {
		return StopInterrupted, false
	}
	defer unlock()

	current, err := d.identities.GetByID(ctx, identity.ID)
	if err != nil {
		d.logger.Error("failed to reload identity",
			zap.String("campaignId", campaign.ID),
			zap.String("identityId", identity.ID),
			zap.Error(err),
		)
		return StopInterrupted, false
	}
	if _, err := d.admission.CanSend(*current, 1); err != nil {
		d.metrics.IncAdmission("send", admissionResult(err))
		d.logger.Info("dispatch stopped by admission",
			zap.String("campaignId", campaign.ID),
			zap.String("identityId", identity.ID),
			zap.Error(err),
		)
		return stopReasonFor(err), false
	}

	if err := d.rateLimiter.Wait(ctx, identity.ID); err != nil {
		return StopInterrupted, false
	}

	outcome, err := d.send(ctx, provider.Message{
		IdentityID: identity.ID,
		CampaignID: campaign.ID,
		From:       current.Address,
		To:         recipient,
		Subject:    campaign.Subject,
		Body:       campaign.Body,
	})
	if err != nil {
		d.logger.Warn("send failed",
			zap.String("campaignId", campaign.ID),
			zap.String("identityId", identity.ID),
			zap.String("recipient", recipient),
			zap.Bool("transient", provider.IsTransient(err)),
			zap.Error(err),
		)
		report.Unresolved = append(report.Unresolved, recipient)
		if ctx.Err() != nil {
			return StopInterrupted, true
		}
		return "", true
	}

	campaignID := campaign.ID
	record := &domain.SendOutcome{
		IdentityID: identity.ID,
		CampaignID: &campaignID,
		Recipient:  recipient,
		Outcome:    outcome,
	}
	if _, err := d.aggregator.recordLocked(context.WithoutCancel(ctx), record); err != nil {
		d.logger.Error("failed to record outcome",
			zap.String("campaignId", campaign.ID),
			zap.String("identityId", identity.ID),
			zap.String("recipient", recipient),
			zap.String("outcome", outcome.String()),
			zap.Error(err),
		)
		report.Unresolved = append(report.Unresolved, recipient)
		return "", true
	}

	report.Sent = append(report.Sent, recipient)
	return "", true
}

// send retries transient sender errors with a capped exponential backoff.
func (d *Dispatcher) send(ctx context.Context, msg provider.Message) (domain.Outcome, error) {
	var lastErr error
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		start := time.Now()
		outcome, err := d.sender.Send(ctx, msg)
		d.metrics.ObserveSendDuration(d.senderName, time.Since(start))
		if err == nil {
			return outcome, nil
		}
		lastErr = err
		if !provider.IsTransient(err) || attempt == d.maxAttempts {
			break
		}

		timer := time.NewTimer(d.computeRetryDelay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	return "", lastErr
}

func (d *Dispatcher) computeRetryDelay(attemptNumber int) time.Duration {
	if attemptNumber < 1 {
		attemptNumber = 1
	}

	delay := baseRetryDelay
	for i := 1; i < attemptNumber; i++ {
		delay *= 2
		if delay >= maxRetryDelay {
			delay = maxRetryDelay
			break
		}
	}

	jitterMillis := 0
	if d.randIntn != nil && maxRetryJitterMillis > 0 {
		jitterMillis = d.randIntn(maxRetryJitterMillis + 1)
	}

	return delay + time.Duration(jitterMillis)*time.Millisecond
}

func (d *Dispatcher) finish(ctx context.Context, campaign *domain.Campaign, report *DispatchReport) (*DispatchReport, error) {
	target := domain.CampaignCompleted
	if report.StopReason != "" || len(report.Unresolved) > 0 {
		target = domain.CampaignPaused
	}
	if len(report.Unsent) > 0 {
		d.metrics.AddDispatchUnsent(len(report.Unsent))
	}

	updated, err := d.campaigns.Transition(context.WithoutCancel(ctx), campaign.ID,
		[]domain.CampaignStatus{domain.CampaignSending}, target)
	if err != nil {
		d.logger.Error("failed to persist campaign status",
			zap.String("campaignId", campaign.ID),
			zap.String("status", target.String()),
			zap.Error(err),
		)
		return report, fmt.Errorf("failed to persist campaign status: %w", err)
	}
	report.Status = updated.Status

	d.logger.Info("campaign dispatch finished",
		zap.String("campaignId", campaign.ID),
		zap.String("status", report.Status.String()),
		zap.Int("sent", len(report.Sent)),
		zap.Int("unsent", len(report.Unsent)),
		zap.Int("unresolved", len(report.Unresolved)),
		zap.String("stopReason", report.StopReason),
	)
	return report, nil
}

func (d *Dispatcher) pendingRecipients(ctx context.Context, campaign *domain.Campaign) ([]string, error) {
	done, err := d.outcomes.RecipientsWithOutcome(ctx, campaign.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recorded recipients: %w", err)
	}

	seen := make(map[string]struct{}, len(done))
	for _, r := range done {
		seen[strings.ToLower(r)] = struct{}{}
	}

	pending := make([]string, 0, len(campaign.Recipients))
	for _, r := range campaign.Recipients {
		if _, ok := seen[strings.ToLower(r)]; ok {
			continue
		}
		pending = append(pending, r)
	}
	return pending, nil
}

func stopReasonFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrIdentityPaused):
		return StopPaused
	case errors.Is(err, domain.ErrDailyLimitExceeded):
		return StopQuota
	default:
		return StopInterrupted
	}
}

func admissionResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrIdentityPaused):
		return "paused"
	case errors.Is(err, domain.ErrDailyLimitExceeded):
		return "daily_limit"
	default:
		return "error"
	}
}

func senderLabel(sender provider.Sender) string {
	switch sender.(type) {
	case *provider.SimulatedSender:
		return "simulated"
	case *provider.WebhookSender:
		return provider.SenderWebhook
	case *provider.SESSender:
		return provider.SenderSES
	default:
		return "custom"
	}
}
