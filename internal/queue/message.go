package queue

import (
	"fmt"
	"strings"
	"time"
)

// CampaignMessage asks a dispatch worker to send a campaign's pending
// recipients.
type CampaignMessage struct {
	CampaignID    string    `json:"campaignId"`
	TenantID      string    `json:"tenantId"`
	CorrelationID string    `json:"correlationId,omitempty"`
	RequestedAt   time.Time `json:"requestedAt"`
}

func (m CampaignMessage) Validate() error {
	if strings.TrimSpace(m.CampaignID) == "" {
		return fmt.Errorf("campaignId is required")
	}
	if strings.TrimSpace(m.TenantID) == "" {
		return fmt.Errorf("tenantId is required")
	}
	return nil
}
