package domain

import (
	"fmt"
	"strings"
	"time"
)

// IdentityKind distinguishes sending domains from mailbox accounts.
type IdentityKind string

const (
	KindDomain  IdentityKind = "domain"
	KindMailbox IdentityKind = "mailbox"
)

func (k IdentityKind) String() string { return string(k) }

func (k IdentityKind) IsValid() bool {
	switch k {
	case KindDomain, KindMailbox:
		return true
	}
	return false
}

func ParseIdentityKindFromString(s string) (IdentityKind, error) {
	k := IdentityKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", fmt.Errorf("%w: invalid identity kind %q", ErrValidation, s)
	}
	return k, nil
}

// Mode is the sending category an identity is provisioned for.
type Mode string

const (
	ModeColdOutreach    Mode = "cold_outreach"
	ModeFounderOutbound Mode = "founder_outbound"
	ModeNewsletter      Mode = "newsletter"
)

func (m Mode) String() string { return string(m) }

func (m Mode) IsValid() bool {
	switch m {
	case ModeColdOutreach, ModeFounderOutbound, ModeNewsletter:
		return true
	}
	return false
}

func ParseModeFromString(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", fmt.Errorf("%w: invalid mode %q", ErrValidation, s)
	}
	return m, nil
}

// WarmupStatus is the mailbox warmup lifecycle.
type WarmupStatus string

const (
	WarmupInactive  WarmupStatus = "inactive"
	WarmupActive    WarmupStatus = "active"
	WarmupPaused    WarmupStatus = "paused"
	WarmupCompleted WarmupStatus = "completed"
)

func (s WarmupStatus) String() string { return string(s) }

func (s WarmupStatus) IsValid() bool {
	switch s {
	case WarmupInactive, WarmupActive, WarmupPaused, WarmupCompleted:
		return true
	}
	return false
}

// HealthStatus is a display band derived from current rates.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthRisky    HealthStatus = "risky"
	HealthCritical HealthStatus = "critical"
)

func (s HealthStatus) String() string { return string(s) }

func (s HealthStatus) IsValid() bool {
	switch s {
	case HealthHealthy, HealthRisky, HealthCritical:
		return true
	}
	return false
}

const (
	MaxHealthScore = 100

	DefaultBounceThreshold      = 4.0
	DefaultSpamThreshold        = 0.2
	DefaultMailboxSpamThreshold = 0.5

	DefaultMailboxDailyVolume    = 5
	DefaultMailboxRampUp         = 2
	DefaultMailboxDailySendLimit = 50

	ManualPauseReason = "Manually paused"
)

// Identity is a sending origin: a domain or a mailbox account.
type Identity struct {
	ID       string
	TenantID string
	Kind     IdentityKind
	Address  string
	Mode     Mode

	WarmupDay       int
	WarmupCompleted bool
	DailyLimit      int
	SentToday       int

	HealthScore  int
	HealthStatus HealthStatus
	BounceRate   float64
	SpamRate     float64
	IsPaused     bool
	PauseReason  *string

	SPFValid   bool
	DKIMValid  bool
	DMARCValid bool
	Verified   bool

	BounceThreshold float64
	SpamThreshold   float64

	// Mailbox warmup settings. Unused for domains.
	WarmupEnabled     bool
	WarmupStatus      WarmupStatus
	WarmupDailyVolume int
	WarmupRampUp      int
	DailySendLimit    int

	LastCyclePeriod string
	LastResetAt     time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (i *Identity) Validate() error {
	if strings.TrimSpace(i.TenantID) == "" {
		return fmt.Errorf("%w: tenantId is required", ErrValidation)
	}
	if strings.TrimSpace(i.Address) == "" {
		return fmt.Errorf("%w: address is required", ErrValidation)
	}
	if !i.Kind.IsValid() {
		return fmt.Errorf("%w: invalid identity kind %q", ErrValidation, i.Kind)
	}
	if !i.Mode.IsValid() {
		return fmt.Errorf("%w: invalid mode %q", ErrValidation, i.Mode)
	}
	if i.WarmupDay < 0 || i.DailyLimit < 0 || i.SentToday < 0 {
		return fmt.Errorf("%w: warmup counters must be non-negative", ErrValidation)
	}
	if i.HealthScore < 0 || i.HealthScore > MaxHealthScore {
		return fmt.Errorf("%w: healthScore must be between 0 and %d", ErrValidation, MaxHealthScore)
	}
	if i.IsPaused && strings.TrimSpace(i.PauseReasonText()) == "" {
		return fmt.Errorf("%w: paused identity requires a pause reason", ErrValidation)
	}
	if i.BounceThreshold <= 0 || i.SpamThreshold <= 0 {
		return fmt.Errorf("%w: health thresholds must be positive", ErrValidation)
	}
	if i.Kind == KindMailbox {
		if !i.WarmupStatus.IsValid() {
			return fmt.Errorf("%w: invalid warmup status %q", ErrValidation, i.WarmupStatus)
		}
		if i.DailySendLimit < 1 {
			return fmt.Errorf("%w: dailySendLimit must be positive", ErrValidation)
		}
		if i.WarmupDailyVolume < 1 || i.WarmupRampUp < 0 {
			return fmt.Errorf("%w: invalid warmup volume settings", ErrValidation)
		}
	}
	return nil
}

func (i *Identity) PauseReasonText() string {
	if i.PauseReason == nil {
		return ""
	}
	return *i.PauseReason
}

// Remaining is today's unused quota, never negative.
func (i *Identity) Remaining() int {
	return max(i.DailyLimit-i.SentToday, 0)
}

// Ramping reports whether the identity is eligible for a warmup day advance.
func (i *Identity) Ramping() bool {
	if i.WarmupCompleted || i.IsPaused {
		return false
	}
	if i.Kind == KindMailbox {
		return i.WarmupEnabled && i.WarmupStatus == WarmupActive
	}
	return true
}

// Pause marks the identity paused. Health is left to the caller.
func (i *Identity) Pause(reason string) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = ManualPauseReason
	}
	i.IsPaused = true
	i.PauseReason = &reason
	if i.Kind == KindMailbox && i.WarmupStatus == WarmupActive {
		i.WarmupStatus = WarmupPaused
	}
}

// Resume clears the pause and restores the mailbox warmup status.
func (i *Identity) Resume() {
	i.IsPaused = false
	i.PauseReason = nil
	if i.Kind != KindMailbox {
		return
	}
	switch {
	case i.WarmupCompleted:
		i.WarmupStatus = WarmupCompleted
	case i.WarmupStatus != WarmupPaused:
	case i.WarmupEnabled:
		i.WarmupStatus = WarmupActive
	default:
		i.WarmupStatus = WarmupInactive
	}
}
