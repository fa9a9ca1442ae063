package health

import (
	"strings"
	"testing"

	"github.com/DeeipChheda/warmup-master-main/internal/domain"
)

func newIdentity(kind domain.IdentityKind) domain.Identity {
	spam := domain.DefaultSpamThreshold
	if kind == domain.KindMailbox {
		spam = domain.DefaultMailboxSpamThreshold
	}
	return domain.Identity{
		ID:              "id-1",
		Kind:            kind,
		HealthScore:     100,
		HealthStatus:    domain.HealthHealthy,
		BounceThreshold: domain.DefaultBounceThreshold,
		SpamThreshold:   spam,
		WarmupEnabled:   true,
		WarmupStatus:    domain.WarmupActive,
	}
}

func TestComputeRatesZeroSent(t *testing.T) {
	t.Parallel()

	rates := ComputeRates(domain.OutcomeTally{Sent: 0, Bounced: 7, Spam: 3})
	if rates.Bounce != 0 || rates.Spam != 0 {
		t.Fatalf("ComputeRates() = %+v, want zero rates", rates)
	}

	d := Assess(newIdentity(domain.KindDomain), domain.OutcomeTally{Bounced: 7, Spam: 3})
	if d.Pause || d.Breach != nil {
		t.Fatalf("Assess() with zero sends = %+v, want no pause", d)
	}
}

func TestComputeRates(t *testing.T) {
	t.Parallel()

	rates := ComputeRates(domain.OutcomeTally{Sent: 200, Delivered: 189, Bounced: 10, Spam: 1})
	if rates.Bounce != 5 {
		t.Fatalf("Bounce = %v, want 5", rates.Bounce)
	}
	if rates.Spam != 0.5 {
		t.Fatalf("Spam = %v, want 0.5", rates.Spam)
	}
}

func TestPolicyEvaluate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		kind       domain.IdentityKind
		rates      Rates
		wantBreach bool
		wantReason string
	}{
		{name: "domain healthy", kind: domain.KindDomain, rates: Rates{Bounce: 1, Spam: 0.1}},
		{name: "domain bounce at threshold does not pause", kind: domain.KindDomain, rates: Rates{Bounce: 4.0}},
		{name: "domain bounce above threshold", kind: domain.KindDomain, rates: Rates{Bounce: 4.1}, wantBreach: true, wantReason: ReasonHighBounce},
		{name: "domain spam above threshold", kind: domain.KindDomain, rates: Rates{Spam: 0.25}, wantBreach: true, wantReason: ReasonHighSpam},
		{name: "domain bounce reported first", kind: domain.KindDomain, rates: Rates{Bounce: 9, Spam: 3}, wantBreach: true, wantReason: ReasonHighBounce},
		{name: "mailbox spam 0.3 tolerated", kind: domain.KindMailbox, rates: Rates{Spam: 0.3}},
		{name: "mailbox spam-only critical does not pause", kind: domain.KindMailbox, rates: Rates{Spam: 0.5}},
		{name: "mailbox spam critical with low bounces", kind: domain.KindMailbox, rates: Rates{Bounce: 3.9, Spam: 2}},
		{name: "mailbox bounce at critical", kind: domain.KindMailbox, rates: Rates{Bounce: 4.0}, wantBreach: true, wantReason: ReasonHighBounce},
		{name: "mailbox bounce and spam critical", kind: domain.KindMailbox, rates: Rates{Bounce: 6, Spam: 1}, wantBreach: true, wantReason: ReasonHighBounce},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			breach, ok := PolicyFor(newIdentity(tt.kind)).Evaluate(tt.rates)
			if ok != tt.wantBreach {
				t.Fatalf("Evaluate() breached = %v, want %v", ok, tt.wantBreach)
			}
			if ok && breach.Reason != tt.wantReason {
				t.Fatalf("Reason = %q, want %q", breach.Reason, tt.wantReason)
			}
		})
	}
}

func TestPolicyForFillsMissingThresholds(t *testing.T) {
	t.Parallel()

	p := PolicyFor(domain.Identity{Kind: domain.KindMailbox})
	if p.BounceThreshold != domain.DefaultBounceThreshold || p.SpamThreshold != domain.DefaultMailboxSpamThreshold {
		t.Fatalf("PolicyFor() = %+v, want mailbox defaults", p)
	}
	if !p.BounceGated {
		t.Fatal("mailbox policy should be bounce gated")
	}
	if PolicyFor(domain.Identity{Kind: domain.KindDomain}).BounceGated {
		t.Fatal("domain policy should not be bounce gated")
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		rates Rates
		score int
		want  domain.HealthStatus
	}{
		{name: "healthy", rates: Rates{Bounce: 1, Spam: 0.1}, score: 100, want: domain.HealthHealthy},
		{name: "risky bounce", rates: Rates{Bounce: 2}, score: 100, want: domain.HealthRisky},
		{name: "risky spam", rates: Rates{Spam: 0.2}, score: 100, want: domain.HealthRisky},
		{name: "risky score", rates: Rates{}, score: 69, want: domain.HealthRisky},
		{name: "critical bounce", rates: Rates{Bounce: 4}, score: 100, want: domain.HealthCritical},
		{name: "critical spam", rates: Rates{Spam: 0.5}, score: 100, want: domain.HealthCritical},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Classify(tt.rates, tt.score); got != tt.want {
				t.Fatalf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestApplyPausesAndPenalizesOnce(t *testing.T) {
	t.Parallel()

	identity := newIdentity(domain.KindDomain)
	tally := domain.OutcomeTally{Sent: 100, Delivered: 94, Bounced: 6}

	d := Assess(identity, tally)
	if !d.Pause {
		t.Fatal("Assess() Pause = false, want true")
	}
	if changed := Apply(&identity, d); !changed {
		t.Fatal("Apply() changed = false, want true")
	}
	if !identity.IsPaused || !strings.HasPrefix(identity.PauseReasonText(), ReasonHighBounce) {
		t.Fatalf("paused/reason = %v/%q", identity.IsPaused, identity.PauseReasonText())
	}
	if identity.HealthScore != 80 {
		t.Fatalf("HealthScore = %d, want 80", identity.HealthScore)
	}
	if identity.HealthStatus != domain.HealthCritical {
		t.Fatalf("HealthStatus = %s, want critical", identity.HealthStatus)
	}

	for i := 0; i < 3; i++ {
		again := Assess(identity, tally)
		if again.Pause {
			t.Fatalf("iteration %d: Pause = true for an already paused identity", i)
		}
		Apply(&identity, again)
		if identity.HealthScore != 80 {
			t.Fatalf("iteration %d: HealthScore = %d, want 80", i, identity.HealthScore)
		}
	}
}

func TestApplyMailboxSpamOnlyIsCriticalNotPaused(t *testing.T) {
	t.Parallel()

	identity := newIdentity(domain.KindMailbox)
	d := Assess(identity, domain.OutcomeTally{Sent: 200, Delivered: 199, Spam: 1})
	Apply(&identity, d)

	if d.Pause || identity.IsPaused {
		t.Fatal("mailbox with spam but no bounces should not be paused")
	}
	if identity.HealthStatus != domain.HealthCritical {
		t.Fatalf("HealthStatus = %s, want critical", identity.HealthStatus)
	}
	if identity.HealthScore != 100 || identity.WarmupStatus != domain.WarmupActive {
		t.Fatalf("score=%d warmup=%s, want 100/active", identity.HealthScore, identity.WarmupStatus)
	}
}

func TestApplyMailboxPauseStopsWarmup(t *testing.T) {
	t.Parallel()

	identity := newIdentity(domain.KindMailbox)
	Apply(&identity, Assess(identity, domain.OutcomeTally{Sent: 100, Delivered: 95, Bounced: 4, Spam: 1}))

	if !identity.IsPaused {
		t.Fatal("mailbox at 4% bounce should be paused")
	}
	if identity.WarmupStatus != domain.WarmupPaused {
		t.Fatalf("WarmupStatus = %s, want paused", identity.WarmupStatus)
	}
}

func TestPenalizeFloorsAtZero(t *testing.T) {
	t.Parallel()

	if got := Penalize(15); got != 0 {
		t.Fatalf("Penalize(15) = %d, want 0", got)
	}
	if got := Penalize(100); got != 80 {
		t.Fatalf("Penalize(100) = %d, want 80", got)
	}
}

func TestApplyNeverRaisesHealth(t *testing.T) {
	t.Parallel()

	identity := newIdentity(domain.KindDomain)
	identity.HealthScore = 40
	Apply(&identity, Assess(identity, domain.OutcomeTally{Sent: 1000, Delivered: 1000}))

	if identity.HealthScore != 40 {
		t.Fatalf("HealthScore = %d, want 40", identity.HealthScore)
	}
	if identity.HealthStatus != domain.HealthRisky {
		t.Fatalf("HealthStatus = %s, want risky", identity.HealthStatus)
	}
}
