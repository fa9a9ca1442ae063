package plan

import (
	"errors"
	"strings"
	"testing"

	"github.com/DeeipChheda/warmup-master-main/internal/domain"
)

func TestResolverResolveTiers(t *testing.T) {
	t.Parallel()

	resolver, err := NewResolver(nil, nil)
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}

	tests := []struct {
		name          string
		tier          domain.Tier
		maxIdentities int
		dailyLimit    int
		newsletter    bool
	}{
		{name: "free", tier: domain.TierFree, maxIdentities: 1, dailyLimit: 20, newsletter: false},
		{name: "premium", tier: domain.TierPremium, maxIdentities: 3, dailyLimit: 150, newsletter: false},
		{name: "pro", tier: domain.TierPro, maxIdentities: 10, dailyLimit: 300, newsletter: true},
		{name: "enterprise", tier: domain.TierEnterprise, maxIdentities: 50, dailyLimit: 1000, newsletter: true},
		{name: "unknown tier fails closed", tier: domain.Tier("platinum"), maxIdentities: 1, dailyLimit: 20, newsletter: false},
		{name: "empty tier fails closed", tier: domain.Tier(""), maxIdentities: 1, dailyLimit: 20, newsletter: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := resolver.Resolve(domain.Tenant{Email: "user@example.com", Plan: tt.tier})
			if got.MaxIdentities != tt.maxIdentities {
				t.Fatalf("MaxIdentities = %d, want %d", got.MaxIdentities, tt.maxIdentities)
			}
			if got.DailyLimitPerIdentity != tt.dailyLimit {
				t.Fatalf("DailyLimitPerIdentity = %d, want %d", got.DailyLimitPerIdentity, tt.dailyLimit)
			}
			if got.Allows(domain.ModeNewsletter) != tt.newsletter {
				t.Fatalf("Allows(newsletter) = %v, want %v", got.Allows(domain.ModeNewsletter), tt.newsletter)
			}
			if !got.WarmupRequired {
				t.Fatal("WarmupRequired = false, want true")
			}
		})
	}
}

func TestResolverOverridePredicate(t *testing.T) {
	t.Parallel()

	resolver, err := NewResolver(DefaultTable(), EmailAllowList([]string{" Founder@Example.com ", ""}))
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}

	got := resolver.Resolve(domain.Tenant{Email: "founder@example.com", Plan: domain.TierFree})
	if got.Tier != domain.TierEnterpriseInternal {
		t.Fatalf("Tier = %q, want %q", got.Tier, domain.TierEnterpriseInternal)
	}
	if got.DailyLimitPerIdentity != 10000 {
		t.Fatalf("DailyLimitPerIdentity = %d, want 10000", got.DailyLimitPerIdentity)
	}

	regular := resolver.Resolve(domain.Tenant{Email: "someone@example.com", Plan: domain.TierFree})
	if regular.Tier != domain.TierFree {
		t.Fatalf("Tier = %q, want %q", regular.Tier, domain.TierFree)
	}
}

func TestEmailAllowListEmptyIsNil(t *testing.T) {
	t.Parallel()

	if EmailAllowList([]string{"", "  "}) != nil {
		t.Fatal("EmailAllowList() with no addresses should be nil")
	}
}

func TestResolverDoesNotShareModes(t *testing.T) {
	t.Parallel()

	resolver, err := NewResolver(nil, nil)
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}

	first := resolver.ResolveTier(domain.TierPro)
	first.AllowedModes[0] = domain.Mode("tampered")

	second := resolver.ResolveTier(domain.TierPro)
	if second.AllowedModes[0] == domain.Mode("tampered") {
		t.Fatal("resolved entitlements must not alias the table")
	}
}

func TestTableValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(Table)
	}{
		{name: "missing free", mutate: func(tb Table) { delete(tb, domain.TierFree) }},
		{name: "missing internal", mutate: func(tb Table) { delete(tb, domain.TierEnterpriseInternal) }},
		{name: "zero identities", mutate: func(tb Table) {
			e := tb[domain.TierPro]
			e.MaxIdentities = 0
			tb[domain.TierPro] = e
		}},
		{name: "zero limit", mutate: func(tb Table) {
			e := tb[domain.TierPro]
			e.DailyLimitPerIdentity = 0
			tb[domain.TierPro] = e
		}},
		{name: "no modes", mutate: func(tb Table) {
			e := tb[domain.TierPro]
			e.AllowedModes = nil
			tb[domain.TierPro] = e
		}},
		{name: "bad mode", mutate: func(tb Table) {
			e := tb[domain.TierPro]
			e.AllowedModes = []domain.Mode{"spam_cannon"}
			tb[domain.TierPro] = e
		}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			table := DefaultTable()
			tt.mutate(table)
			if err := table.Validate(); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("Validate() error = %v, want ErrValidation", err)
			}
			if _, err := NewResolver(table, nil); err == nil {
				t.Fatal("NewResolver() expected error for invalid table")
			}
		})
	}
}

func TestLoadTableOverridesDefaults(t *testing.T) {
	t.Parallel()

	doc := `
tiers:
  premium:
    dailyLimitPerIdentity: 200
    allowedModes: [cold_outreach, newsletter]
  free:
    warmupRequired: false
`
	table, err := LoadTable(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}

	premium := table[domain.TierPremium]
	if premium.DailyLimitPerIdentity != 200 {
		t.Fatalf("premium daily limit = %d, want 200", premium.DailyLimitPerIdentity)
	}
	if premium.MaxIdentities != 3 {
		t.Fatalf("premium max identities = %d, want 3", premium.MaxIdentities)
	}
	if !premium.Allows(domain.ModeNewsletter) || premium.Allows(domain.ModeFounderOutbound) {
		t.Fatalf("premium modes = %v, want [cold_outreach newsletter]", premium.AllowedModes)
	}
	if table[domain.TierFree].WarmupRequired {
		t.Fatal("free warmupRequired = true, want false")
	}
}

func TestLoadTableEmptyDocument(t *testing.T) {
	t.Parallel()

	table, err := LoadTable(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}
	if table[domain.TierPro].DailyLimitPerIdentity != 300 {
		t.Fatalf("pro daily limit = %d, want 300", table[domain.TierPro].DailyLimitPerIdentity)
	}
}

func TestLoadTableRejectsInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{name: "unknown tier", doc: "tiers:\n  platinum:\n    maxIdentities: 5\n"},
		{name: "unknown mode", doc: "tiers:\n  pro:\n    allowedModes: [blast]\n"},
		{name: "non-positive limit", doc: "tiers:\n  pro:\n    dailyLimitPerIdentity: 0\n"},
		{name: "unknown field", doc: "tiers:\n  pro:\n    maxDomains: 3\n"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := LoadTable(strings.NewReader(tt.doc)); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("LoadTable() error = %v, want ErrValidation", err)
			}
		})
	}
}
