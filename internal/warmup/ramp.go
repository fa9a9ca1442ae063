package warmup

import (
	"time"

	"github.com/DeeipChheda/warmup-master-main/internal/domain"
)

const (
	DefaultDomainBase    = 10
	DefaultDomainStep    = 5
	DefaultDomainLength  = 15
	DefaultMailboxLength = 30

	periodLayout = "2006-01-02"
)

// Config holds the ramp constants for both identity kinds.
type Config struct {
	DomainBase    int
	DomainStep    int
	DomainLength  int
	MailboxLength int
}

func DefaultConfig() Config {
	return Config{
		DomainBase:    DefaultDomainBase,
		DomainStep:    DefaultDomainStep,
		DomainLength:  DefaultDomainLength,
		MailboxLength: DefaultMailboxLength,
	}
}

// WithDefaults replaces non-positive values with the defaults.
func (c Config) WithDefaults() Config {
	if c.DomainBase <= 0 {
		c.DomainBase = DefaultDomainBase
	}
	if c.DomainStep <= 0 {
		c.DomainStep = DefaultDomainStep
	}
	if c.DomainLength <= 0 {
		c.DomainLength = DefaultDomainLength
	}
	if c.MailboxLength <= 0 {
		c.MailboxLength = DefaultMailboxLength
	}
	return c
}

// PeriodKey is the idempotence key of a scheduling period: the UTC date.
func PeriodKey(t time.Time) string {
	return t.UTC().Format(periodLayout)
}

// DomainLimit is the linear ramp; past the ramp the steady-state limit applies.
func (c Config) DomainLimit(day int, steadyLimit int) int {
	if day > c.DomainLength {
		return steadyLimit
	}
	return c.DomainBase + day*c.DomainStep
}

// MailboxLimit ramps from the configured volume and is capped at the hard
// per-mailbox limit.
func (c Config) MailboxLimit(day int, identity domain.Identity) int {
	return min(identity.WarmupDailyVolume+day*identity.WarmupRampUp, identity.DailySendLimit)
}

// InitialLimit is the day-0 quota for a freshly created identity.
func (c Config) InitialLimit(identity domain.Identity) int {
	if identity.Kind == domain.KindMailbox {
		if !identity.WarmupEnabled {
			return identity.DailySendLimit
		}
		return c.MailboxLimit(0, identity)
	}
	return c.DomainLimit(0, 0)
}

// Step is the outcome of applying one cycle to one identity.
type Step struct {
	Identity domain.Identity
	Advanced bool
	Log      domain.WarmupLog
}

// Advance applies one period to the identity. Every identity has its daily
// counter reset; only ramping identities move to the next day. The log entry
// captures the outgoing period before the reset.
func (c Config) Advance(
	identity domain.Identity,
	steadyLimit int,
	period string,
	tally domain.OutcomeTally,
	now time.Time,
) Step {
	next := identity
	next.SentToday = 0
	next.LastCyclePeriod = period
	next.LastResetAt = now

	advanced := false
	switch {
	case identity.Ramping():
		day := identity.WarmupDay + 1
		next.WarmupDay = day
		advanced = true

		if identity.Kind == domain.KindMailbox {
			next.DailyLimit = c.MailboxLimit(day, identity)
			if day >= c.MailboxLength {
				next.WarmupCompleted = true
				next.WarmupStatus = domain.WarmupCompleted
			}
		} else {
			next.DailyLimit = c.DomainLimit(day, steadyLimit)
			next.WarmupCompleted = day >= c.DomainLength
		}
	case identity.WarmupCompleted:
		if identity.Kind == domain.KindMailbox {
			next.DailyLimit = identity.DailySendLimit
		} else if steadyLimit > 0 {
			next.DailyLimit = steadyLimit
		}
	case identity.Kind == domain.KindMailbox && !identity.WarmupEnabled:
		next.DailyLimit = identity.DailySendLimit
	}

	return Step{
		Identity: next,
		Advanced: advanced,
		Log: domain.WarmupLog{
			IdentityID: identity.ID,
			Period:     period,
			Day:        next.WarmupDay,
			DailyLimit: next.DailyLimit,
			Sent:       int64(identity.SentToday),
			Delivered:  tally.Delivered,
			Bounced:    tally.Bounced,
			Spam:       tally.Spam,
			CreatedAt:  now,
		},
	}
}
