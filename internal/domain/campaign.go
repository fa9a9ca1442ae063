package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// CampaignStatus is the lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignSending   CampaignStatus = "sending"
	CampaignCompleted CampaignStatus = "completed"
	CampaignPaused    CampaignStatus = "paused"
)

func (s CampaignStatus) String() string { return string(s) }

func (s CampaignStatus) IsValid() bool {
	switch s {
	case CampaignDraft, CampaignSending, CampaignCompleted, CampaignPaused:
		return true
	}
	return false
}

// Sendable reports whether a campaign may transition into sending.
func (s CampaignStatus) Sendable() bool {
	return s == CampaignDraft || s == CampaignPaused
}

const MaxCampaignRecipients = 10000

// Campaign is one content payload sent from one identity to a recipient set.
type Campaign struct {
	ID         string
	TenantID   string
	IdentityID string
	Name       string
	Subject    string
	Body       string
	Recipients []string
	Status     CampaignStatus

	SentCount      int
	DeliveredCount int
	BounceCount    int
	SpamCount      int

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Campaign) Validate() error {
	if strings.TrimSpace(c.TenantID) == "" {
		return fmt.Errorf("%w: tenantId is required", ErrValidation)
	}
	if strings.TrimSpace(c.IdentityID) == "" {
		return fmt.Errorf("%w: identityId is required", ErrValidation)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if strings.TrimSpace(c.Subject) == "" {
		return fmt.Errorf("%w: subject is required", ErrValidation)
	}
	if strings.TrimSpace(c.Body) == "" {
		return fmt.Errorf("%w: body is required", ErrValidation)
	}
	if len(c.Recipients) == 0 {
		return fmt.Errorf("%w: at least one recipient is required", ErrValidation)
	}
	if len(c.Recipients) > MaxCampaignRecipients {
		return fmt.Errorf("%w: recipients exceed %d", ErrValidation, MaxCampaignRecipients)
	}

	seen := make(map[string]struct{}, len(c.Recipients))
	for _, r := range c.Recipients {
		if _, err := mail.ParseAddress(r); err != nil {
			return fmt.Errorf("%w: invalid recipient %q", ErrValidation, r)
		}
		key := strings.ToLower(r)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: duplicate recipient %q", ErrValidation, r)
		}
		seen[key] = struct{}{}
	}
	return nil
}
