package health

import (
	"fmt"

	"github.com/DeeipChheda/warmup-master-main/internal/domain"
)

const (
	ReasonHighBounce = "high bounce rate"
	ReasonHighSpam   = "high spam complaint rate"

	PausePenalty = 20

	riskyBounceRate    = 2.0
	riskySpamRate      = 0.2
	riskyHealthScore   = 70
	criticalBounceRate = 4.0
	criticalSpamRate   = 0.5
)

// Rates are percentages of total sends.
type Rates struct {
	Bounce float64
	Spam   float64
}

// ComputeRates returns zero rates when nothing has been sent.
func ComputeRates(tally domain.OutcomeTally) Rates {
	if tally.Sent <= 0 {
		return Rates{}
	}
	sent := float64(tally.Sent)
	return Rates{
		Bounce: float64(tally.Bounced) / sent * 100,
		Spam:   float64(tally.Spam) / sent * 100,
	}
}

// Policy holds the pause thresholds of one identity.
type Policy struct {
	BounceThreshold float64
	SpamThreshold   float64
	// BounceGated pauses only inside the critical band, and only once the
	// bounce rate reaches BounceThreshold. Spam alone never pauses.
	BounceGated bool
}

// PolicyFor returns the identity's pause policy. Domains pause strictly above
// either threshold; mailboxes are bounce gated.
func PolicyFor(identity domain.Identity) Policy {
	p := Policy{
		BounceThreshold: identity.BounceThreshold,
		SpamThreshold:   identity.SpamThreshold,
		BounceGated:     identity.Kind == domain.KindMailbox,
	}
	if p.BounceThreshold <= 0 {
		p.BounceThreshold = domain.DefaultBounceThreshold
	}
	if p.SpamThreshold <= 0 {
		p.SpamThreshold = domain.DefaultSpamThreshold
		if identity.Kind == domain.KindMailbox {
			p.SpamThreshold = domain.DefaultMailboxSpamThreshold
		}
	}
	return p
}

// Breach describes the first threshold an identity crossed.
type Breach struct {
	Reason    string
	Rate      float64
	Threshold float64
}

func (b Breach) PauseReason() string {
	return fmt.Sprintf("%s: %.2f%%", b.Reason, b.Rate)
}

// Evaluate checks bounce before spam; the first breach names the reason.
func (p Policy) Evaluate(r Rates) (Breach, bool) {
	if p.BounceGated {
		return p.evaluateGated(r)
	}
	if r.Bounce > p.BounceThreshold {
		return Breach{Reason: ReasonHighBounce, Rate: r.Bounce, Threshold: p.BounceThreshold}, true
	}
	if r.Spam > p.SpamThreshold {
		return Breach{Reason: ReasonHighSpam, Rate: r.Spam, Threshold: p.SpamThreshold}, true
	}
	return Breach{}, false
}

// evaluateGated treats SpamThreshold as the critical spam cut. A critical
// spam rate with bounces below BounceThreshold is reported by Classify only.
func (p Policy) evaluateGated(r Rates) (Breach, bool) {
	critical := r.Bounce >= criticalBounceRate || r.Spam >= p.SpamThreshold
	if !critical || r.Bounce < p.BounceThreshold {
		return Breach{}, false
	}
	if r.Bounce >= criticalBounceRate || r.Spam < p.SpamThreshold {
		return Breach{Reason: ReasonHighBounce, Rate: r.Bounce, Threshold: p.BounceThreshold}, true
	}
	return Breach{Reason: ReasonHighSpam, Rate: r.Spam, Threshold: p.SpamThreshold}, true
}

// Classify derives the display band. Risky starts below the pause thresholds.
func Classify(r Rates, healthScore int) domain.HealthStatus {
	switch {
	case r.Bounce >= criticalBounceRate || r.Spam >= criticalSpamRate:
		return domain.HealthCritical
	case r.Bounce >= riskyBounceRate || r.Spam >= riskySpamRate || healthScore < riskyHealthScore:
		return domain.HealthRisky
	default:
		return domain.HealthHealthy
	}
}

func Penalize(score int) int {
	return max(score-PausePenalty, 0)
}

// Decision is the assessment of one identity against its outcome tally.
type Decision struct {
	Rates  Rates
	Status domain.HealthStatus
	Breach *Breach
	// Pause is set only when the identity is breaching and not yet paused.
	Pause bool
}

func Assess(identity domain.Identity, tally domain.OutcomeTally) Decision {
	rates := ComputeRates(tally)
	d := Decision{
		Rates:  rates,
		Status: Classify(rates, identity.HealthScore),
	}
	if breach, ok := PolicyFor(identity).Evaluate(rates); ok {
		d.Breach = &breach
		d.Pause = !identity.IsPaused
	}
	return d
}

// Apply writes the decision onto the identity and reports whether anything
// changed. Health is only ever lowered here.
func Apply(identity *domain.Identity, d Decision) bool {
	before := *identity

	identity.BounceRate = d.Rates.Bounce
	identity.SpamRate = d.Rates.Spam
	if d.Pause && d.Breach != nil {
		identity.Pause(d.Breach.PauseReason())
		identity.HealthScore = Penalize(identity.HealthScore)
	}
	identity.HealthStatus = Classify(d.Rates, identity.HealthScore)

	return before.BounceRate != identity.BounceRate ||
		before.SpamRate != identity.SpamRate ||
		before.HealthStatus != identity.HealthStatus ||
		before.IsPaused != identity.IsPaused ||
		before.HealthScore != identity.HealthScore
}
