package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// Tier is a subscription plan name.
type Tier string

const (
	TierFree               Tier = "free"
	TierPremium            Tier = "premium"
	TierPro                Tier = "pro"
	TierEnterprise         Tier = "enterprise"
	TierEnterpriseInternal Tier = "enterprise_internal"
)

func (t Tier) String() string { return string(t) }

func (t Tier) IsValid() bool {
	switch t {
	case TierFree, TierPremium, TierPro, TierEnterprise, TierEnterpriseInternal:
		return true
	}
	return false
}

func ParseTierFromString(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: invalid plan %q", ErrValidation, s)
	}
	return t, nil
}

// Tenant owns identities and campaigns and carries the plan tier.
type Tenant struct {
	ID        string
	Email     string
	Plan      Tier
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (t *Tenant) Validate() error {
	if _, err := mail.ParseAddress(t.Email); err != nil {
		return fmt.Errorf("%w: invalid email %q", ErrValidation, t.Email)
	}
	if !t.Plan.IsValid() {
		return fmt.Errorf("%w: invalid plan %q", ErrValidation, t.Plan)
	}
	return nil
}
