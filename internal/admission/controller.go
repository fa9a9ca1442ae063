package admission

import (
	"fmt"

	"github.com/DeeipChheda/warmup-master-main/internal/domain"
	"github.com/DeeipChheda/warmup-master-main/internal/plan"
)

// PlanResolver resolves a tenant's entitlement.
type PlanResolver interface {
	Resolve(tenant domain.Tenant) plan.Entitlement
}

// Approval is the result of an admitted send. It reserves nothing.
type Approval struct {
	IdentityID     string
	RecipientCount int
	Remaining      int
}

// Controller gates identity creation and outbound batches. Every check is
// read-only; counters move only when outcomes are recorded.
type Controller struct {
	plans PlanResolver
}

func NewController(plans PlanResolver) (*Controller, error) {
	if plans == nil {
		return nil, fmt.Errorf("plan resolver is required")
	}
	return &Controller{plans: plans}, nil
}

// CanCreateIdentity checks the tenant's identity quota and mode entitlement.
func (c *Controller) CanCreateIdentity(tenant domain.Tenant, owned int, mode domain.Mode) error {
	entitlement := c.plans.Resolve(tenant)
	if owned >= entitlement.MaxIdentities {
		return &domain.QuotaExceededError{Owned: owned, Limit: entitlement.MaxIdentities}
	}
	return checkMode(entitlement, mode)
}

// CheckMode verifies the mode is still part of the tenant's plan.
func (c *Controller) CheckMode(tenant domain.Tenant, mode domain.Mode) error {
	return checkMode(c.plans.Resolve(tenant), mode)
}

// CanSend checks pause state and remaining daily quota for a batch.
func (c *Controller) CanSend(identity domain.Identity, recipientCount int) (Approval, error) {
	if recipientCount < 0 {
		return Approval{}, fmt.Errorf("%w: recipient count must be non-negative", domain.ErrValidation)
	}

	remaining := identity.Remaining()
	if recipientCount == 0 {
		return Approval{IdentityID: identity.ID, Remaining: remaining}, nil
	}

	if identity.IsPaused {
		return Approval{}, &domain.IdentityPausedError{
			IdentityID: identity.ID,
			Reason:     identity.PauseReasonText(),
		}
	}

	if recipientCount > remaining {
		return Approval{}, &domain.DailyLimitExceededError{
			IdentityID: identity.ID,
			Requested:  recipientCount,
			Remaining:  remaining,
			DailyLimit: identity.DailyLimit,
		}
	}

	return Approval{
		IdentityID:     identity.ID,
		RecipientCount: recipientCount,
		Remaining:      remaining - recipientCount,
	}, nil
}

func checkMode(entitlement plan.Entitlement, mode domain.Mode) error {
	if !mode.IsValid() {
		return fmt.Errorf("%w: invalid mode %q", domain.ErrValidation, mode)
	}
	if !entitlement.Allows(mode) {
		return &domain.ModeNotEntitledError{Mode: mode, Allowed: entitlement.AllowedModes}
	}
	return nil
}
