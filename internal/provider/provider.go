package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/DeeipChheda/warmup-master-main/internal/domain"
)

// Sender delivers one message and reports its terminal outcome. The context
// bounds how long the caller waits for that outcome.
type Sender interface {
	Send(ctx context.Context, msg Message) (domain.Outcome, error)
}

// Message is one outbound email from an identity to a single recipient.
type Message struct {
	IdentityID string
	CampaignID string
	From       string
	To         string
	Subject    string
	Body       string
}

func (m Message) Validate() error {
	if strings.TrimSpace(m.IdentityID) == "" {
		return fmt.Errorf("%w: identityId is required", domain.ErrValidation)
	}
	if strings.TrimSpace(m.To) == "" {
		return fmt.Errorf("%w: recipient is required", domain.ErrValidation)
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("%w: subject is required", domain.ErrValidation)
	}
	return nil
}
