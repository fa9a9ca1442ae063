package domain

import (
	"fmt"
	"strings"
	"time"
)

// Outcome is the terminal status of one delivery attempt.
type Outcome string

const (
	OutcomeDelivered     Outcome = "delivered"
	OutcomeBounced       Outcome = "bounced"
	OutcomeSpamComplaint Outcome = "spam_complaint"
)

func (o Outcome) String() string { return string(o) }

func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeDelivered, OutcomeBounced, OutcomeSpamComplaint:
		return true
	}
	return false
}

func ParseOutcomeFromString(s string) (Outcome, error) {
	o := Outcome(strings.ToLower(strings.TrimSpace(s)))
	if !o.IsValid() {
		return "", fmt.Errorf("%w: invalid outcome %q", ErrValidation, s)
	}
	return o, nil
}

// SendOutcome is the immutable record of one completed send attempt.
type SendOutcome struct {
	ID         string
	IdentityID string
	CampaignID *string
	Recipient  string
	Outcome    Outcome
	CreatedAt  time.Time
}

func (o *SendOutcome) Validate() error {
	if strings.TrimSpace(o.IdentityID) == "" {
		return fmt.Errorf("%w: identityId is required", ErrValidation)
	}
	if strings.TrimSpace(o.Recipient) == "" {
		return fmt.Errorf("%w: recipient is required", ErrValidation)
	}
	if !o.Outcome.IsValid() {
		return fmt.Errorf("%w: invalid outcome %q", ErrValidation, o.Outcome)
	}
	return nil
}

// OutcomeTally sums outcome records.
type OutcomeTally struct {
	Sent      int64
	Delivered int64
	Bounced   int64
	Spam      int64
}

func (t *OutcomeTally) Add(outcome Outcome, n int64) {
	switch outcome {
	case OutcomeDelivered:
		t.Delivered += n
	case OutcomeBounced:
		t.Bounced += n
	case OutcomeSpamComplaint:
		t.Spam += n
	default:
		return
	}
	t.Sent += n
}
