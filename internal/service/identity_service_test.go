package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/DeeipChheda/warmup-master-main/internal/domain"
	"github.com/DeeipChheda/warmup-master-main/internal/provider"
)

func TestIdentityServiceCreateAppliesDefaults(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.db.putTenant(testTenant("t1", domain.TierPro))

	tests := []struct {
		name       string
		in         CreateIdentityInput
		wantLimit  int
		wantSpam   float64
		wantStatus domain.WarmupStatus
	}{
		{
			name:      "domain",
			in:        CreateIdentityInput{Kind: domain.KindDomain, Address: "Acme.io", Mode: domain.ModeColdOutreach},
			wantLimit: 10,
			wantSpam:  domain.DefaultSpamThreshold,
		},
		{
			name:       "mailbox with warmup",
			in:         CreateIdentityInput{Kind: domain.KindMailbox, Address: "a@acme.io", Mode: domain.ModeNewsletter, WarmupEnabled: true},
			wantLimit:  domain.DefaultMailboxDailyVolume,
			wantSpam:   domain.DefaultMailboxSpamThreshold,
			wantStatus: domain.WarmupActive,
		},
		{
			name:       "mailbox without warmup",
			in:         CreateIdentityInput{Kind: domain.KindMailbox, Address: "b@acme.io", Mode: domain.ModeNewsletter},
			wantLimit:  domain.DefaultMailboxDailySendLimit,
			wantSpam:   domain.DefaultMailboxSpamThreshold,
			wantStatus: domain.WarmupInactive,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			identity, err := env.identitySv.Create(context.Background(), "t1", tt.in)
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if identity.DailyLimit != tt.wantLimit {
				t.Fatalf("dailyLimit = %d, want %d", identity.DailyLimit, tt.wantLimit)
			}
			if identity.SpamThreshold != tt.wantSpam {
				t.Fatalf("spamThreshold = %v, want %v", identity.SpamThreshold, tt.wantSpam)
			}
			if identity.WarmupStatus != tt.wantStatus {
				t.Fatalf("warmupStatus = %q, want %q", identity.WarmupStatus, tt.wantStatus)
			}
			if identity.HealthScore != domain.MaxHealthScore || identity.HealthStatus != domain.HealthHealthy {
				t.Fatalf("health = %d/%s, want 100/healthy", identity.HealthScore, identity.HealthStatus)
			}
		})
	}
}

func TestIdentityServiceCreateAdmission(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.db.putTenant(testTenant("free", domain.TierFree))

	_, err := env.identitySv.Create(context.Background(), "free", CreateIdentityInput{
		Kind: domain.KindDomain, Address: "a.io", Mode: domain.ModeNewsletter,
	})
	var modeErr *domain.ModeNotEntitledError
	if !errors.As(err, &modeErr) {
		t.Fatalf("Create() error = %v, want ModeNotEntitledError", err)
	}

	if _, err := env.identitySv.Create(context.Background(), "free", CreateIdentityInput{
		Kind: domain.KindDomain, Address: "a.io", Mode: domain.ModeColdOutreach,
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err = env.identitySv.Create(context.Background(), "free", CreateIdentityInput{
		Kind: domain.KindDomain, Address: "b.io", Mode: domain.ModeColdOutreach,
	})
	var quotaErr *domain.QuotaExceededError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("Create() error = %v, want QuotaExceededError", err)
	}
	if quotaErr.Owned != 1 || quotaErr.Limit != 1 {
		t.Fatalf("quota error = %+v, want 1 of 1", quotaErr)
	}

	if _, err := env.identitySv.Create(context.Background(), "missing", CreateIdentityInput{
		Kind: domain.KindDomain, Address: "c.io", Mode: domain.ModeColdOutreach,
	}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Create() for unknown tenant error = %v, want ErrNotFound", err)
	}
}

func TestIdentityServiceConcurrentCreateRespectsQuota(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.db.putTenant(testTenant("t1", domain.TierPremium))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		rejected int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := env.identitySv.Create(context.Background(), "t1", CreateIdentityInput{
				Kind:    domain.KindDomain,
				Address: fmt.Sprintf("d%d.io", i),
				Mode:    domain.ModeColdOutreach,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, domain.ErrQuotaExceeded):
				rejected++
			default:
				t.Errorf("Create() unexpected error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	if created != 3 || rejected != 5 {
		t.Fatalf("created=%d rejected=%d, want 3/5", created, rejected)
	}
}

func TestIdentityServicePauseResume(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.db.putTenant(testTenant("t1", domain.TierPro))
	env.db.putIdentity(testMailbox("m1", "t1"))

	paused, err := env.identitySv.Pause(context.Background(), "t1", "m1", "")
	if err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if !paused.IsPaused || paused.PauseReasonText() != domain.ManualPauseReason {
		t.Fatalf("paused = %v reason = %q", paused.IsPaused, paused.PauseReasonText())
	}
	if paused.WarmupStatus != domain.WarmupPaused {
		t.Fatalf("warmupStatus = %s, want paused", paused.WarmupStatus)
	}

	again, err := env.identitySv.Pause(context.Background(), "t1", "m1", "other reason")
	if err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if again.PauseReasonText() != domain.ManualPauseReason {
		t.Fatalf("second pause changed reason to %q", again.PauseReasonText())
	}

	resumed, err := env.identitySv.Resume(context.Background(), "t1", "m1")
	if err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	if resumed.IsPaused || resumed.PauseReason != nil || resumed.WarmupStatus != domain.WarmupActive {
		t.Fatalf("resumed = %+v, want active and unpaused", resumed)
	}

	if _, err := env.identitySv.Pause(context.Background(), "other", "m1", ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Pause() for other tenant error = %v, want ErrNotFound", err)
	}
}

func TestIdentityServiceResetHealth(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.db.putTenant(testTenant("t1", domain.TierPro))
	identity := testDomainIdentity("d1", "t1", 20, 0)
	identity.HealthScore = 40
	identity.HealthStatus = domain.HealthRisky
	env.db.putIdentity(identity)

	reset, err := env.identitySv.ResetHealth(context.Background(), "t1", "d1")
	if err != nil {
		t.Fatalf("ResetHealth() error = %v", err)
	}
	if reset.HealthScore != 100 || reset.HealthStatus != domain.HealthHealthy {
		t.Fatalf("health = %d/%s, want 100/healthy", reset.HealthScore, reset.HealthStatus)
	}
}

func TestIdentityServiceValidateRecordsDNSFlags(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.identitySv.dns = provider.StaticDNSChecker{Result: provider.DNSResult{SPF: true, DKIM: true}}
	env.db.putTenant(testTenant("t1", domain.TierPro))
	env.db.putIdentity(testDomainIdentity("d1", "t1", 20, 0))

	identity, err := env.identitySv.Validate(context.Background(), "t1", "d1")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !identity.SPFValid || !identity.DKIMValid || identity.DMARCValid || identity.Verified {
		t.Fatalf("flags = spf %v dkim %v dmarc %v verified %v", identity.SPFValid, identity.DKIMValid, identity.DMARCValid, identity.Verified)
	}
}

func TestIdentityServiceWarmupControls(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.db.putTenant(testTenant("t1", domain.TierPro))

	unverified := testMailbox("m1", "t1")
	unverified.Verified = false
	unverified.WarmupEnabled = false
	unverified.WarmupStatus = domain.WarmupInactive
	env.db.putIdentity(unverified)

	if _, err := env.identitySv.StartWarmup(context.Background(), "t1", "m1"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("StartWarmup() unverified error = %v, want ErrValidation", err)
	}

	if _, err := env.identitySv.Validate(context.Background(), "t1", "m1"); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	started, err := env.identitySv.StartWarmup(context.Background(), "t1", "m1")
	if err != nil {
		t.Fatalf("StartWarmup() error = %v", err)
	}
	if !started.WarmupEnabled || started.WarmupStatus != domain.WarmupActive || started.DailyLimit != 5 {
		t.Fatalf("started = enabled %v status %s limit %d", started.WarmupEnabled, started.WarmupStatus, started.DailyLimit)
	}

	stopped, err := env.identitySv.StopWarmup(context.Background(), "t1", "m1")
	if err != nil {
		t.Fatalf("StopWarmup() error = %v", err)
	}
	if stopped.WarmupStatus != domain.WarmupPaused {
		t.Fatalf("warmupStatus = %s, want paused", stopped.WarmupStatus)
	}

	volume, limit := 10, 8
	updated, err := env.identitySv.UpdateSettings(context.Background(), "t1", "m1", WarmupSettings{
		DailyVolume:    &volume,
		DailySendLimit: &limit,
	})
	if err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}
	if updated.WarmupDailyVolume != 10 || updated.DailySendLimit != 8 || updated.DailyLimit != 5 {
		t.Fatalf("updated = volume %d sendLimit %d limit %d", updated.WarmupDailyVolume, updated.DailySendLimit, updated.DailyLimit)
	}

	bad := 0
	if _, err := env.identitySv.UpdateSettings(context.Background(), "t1", "m1", WarmupSettings{DailySendLimit: &bad}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("UpdateSettings() error = %v, want ErrValidation", err)
	}

	env.db.putIdentity(testDomainIdentity("d1", "t1", 20, 0))
	if _, err := env.identitySv.StartWarmup(context.Background(), "t1", "d1"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("StartWarmup() on domain error = %v, want ErrValidation", err)
	}

	pausedBox := testMailbox("m2", "t1")
	pausedBox.Pause("")
	env.db.putIdentity(pausedBox)
	if _, err := env.identitySv.StartWarmup(context.Background(), "t1", "m2"); !errors.Is(err, domain.ErrIdentityPaused) {
		t.Fatalf("StartWarmup() on paused mailbox error = %v, want ErrIdentityPaused", err)
	}
}

func TestIdentityServiceWarmupStats(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.db.putTenant(testTenant("t1", domain.TierPro))
	env.db.putIdentity(testMailbox("m1", "t1"))

	env.db.mu.Lock()
	for i := 0; i < 35; i++ {
		env.db.logs = append(env.db.logs, domain.WarmupLog{
			IdentityID: "m1",
			Day:        i + 1,
			Sent:       10,
			Delivered:  9,
			Bounced:    1,
		})
	}
	env.db.mu.Unlock()

	stats, err := env.identitySv.WarmupStats(context.Background(), "t1", "m1")
	if err != nil {
		t.Fatalf("WarmupStats() error = %v", err)
	}
	if len(stats.Logs) != 30 {
		t.Fatalf("logs = %d, want 30", len(stats.Logs))
	}
	if stats.Sent != 300 || stats.Delivered != 270 || stats.Bounced != 30 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.BounceRate != 10 || stats.SpamRate != 0 {
		t.Fatalf("rates = %v/%v, want 10/0", stats.BounceRate, stats.SpamRate)
	}
}
