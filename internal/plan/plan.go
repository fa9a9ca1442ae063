package plan

import (
	"fmt"
	"slices"
	"strings"

	"github.com/DeeipChheda/warmup-master-main/internal/domain"
)

// Entitlement is the set of limits a tier grants.
type Entitlement struct {
	Tier                  domain.Tier
	MaxIdentities         int
	DailyLimitPerIdentity int
	AllowedModes          []domain.Mode
	WarmupRequired        bool
}

func (e Entitlement) Allows(mode domain.Mode) bool {
	return slices.Contains(e.AllowedModes, mode)
}

// Table maps every known tier to its entitlement.
type Table map[domain.Tier]Entitlement

var allModes = []domain.Mode{
	domain.ModeColdOutreach,
	domain.ModeFounderOutbound,
	domain.ModeNewsletter,
}

func DefaultTable() Table {
	return Table{
		domain.TierFree: {
			MaxIdentities:         1,
			DailyLimitPerIdentity: 20,
			AllowedModes:          []domain.Mode{domain.ModeColdOutreach},
			WarmupRequired:        true,
		},
		domain.TierPremium: {
			MaxIdentities:         3,
			DailyLimitPerIdentity: 150,
			AllowedModes:          []domain.Mode{domain.ModeColdOutreach, domain.ModeFounderOutbound},
			WarmupRequired:        true,
		},
		domain.TierPro: {
			MaxIdentities:         10,
			DailyLimitPerIdentity: 300,
			AllowedModes:          slices.Clone(allModes),
			WarmupRequired:        true,
		},
		domain.TierEnterprise: {
			MaxIdentities:         50,
			DailyLimitPerIdentity: 1000,
			AllowedModes:          slices.Clone(allModes),
			WarmupRequired:        true,
		},
		domain.TierEnterpriseInternal: {
			MaxIdentities:         999,
			DailyLimitPerIdentity: 10000,
			AllowedModes:          slices.Clone(allModes),
			WarmupRequired:        true,
		},
	}
}

// Validate checks that every tier is usable and that the fallback and
// override tiers are present.
func (t Table) Validate() error {
	for _, required := range []domain.Tier{domain.TierFree, domain.TierEnterpriseInternal} {
		if _, ok := t[required]; !ok {
			return fmt.Errorf("%w: plan table is missing tier %q", domain.ErrValidation, required)
		}
	}

	for tier, e := range t {
		if !tier.IsValid() {
			return fmt.Errorf("%w: unknown tier %q", domain.ErrValidation, tier)
		}
		if e.MaxIdentities < 1 {
			return fmt.Errorf("%w: tier %q maxIdentities must be positive", domain.ErrValidation, tier)
		}
		if e.DailyLimitPerIdentity < 1 {
			return fmt.Errorf("%w: tier %q dailyLimitPerIdentity must be positive", domain.ErrValidation, tier)
		}
		if len(e.AllowedModes) == 0 {
			return fmt.Errorf("%w: tier %q has no allowed modes", domain.ErrValidation, tier)
		}
		for _, m := range e.AllowedModes {
			if !m.IsValid() {
				return fmt.Errorf("%w: tier %q has invalid mode %q", domain.ErrValidation, tier, m)
			}
		}
	}
	return nil
}

// OverridePredicate grants the internal unlimited entitlement to a tenant.
type OverridePredicate func(tenant domain.Tenant) bool

// EmailAllowList matches tenants by email, case-insensitively.
func EmailAllowList(emails []string) OverridePredicate {
	set := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			set[e] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}
	return func(tenant domain.Tenant) bool {
		_, ok := set[strings.ToLower(strings.TrimSpace(tenant.Email))]
		return ok
	}
}

// Resolver maps tenants to entitlements. It is safe for concurrent use.
type Resolver struct {
	table    Table
	override OverridePredicate
}

func NewResolver(table Table, override OverridePredicate) (*Resolver, error) {
	if table == nil {
		table = DefaultTable()
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}

	cloned := make(Table, len(table))
	for tier, e := range table {
		e.Tier = tier
		e.AllowedModes = slices.Clone(e.AllowedModes)
		cloned[tier] = e
	}

	return &Resolver{table: cloned, override: override}, nil
}

// Resolve returns the tenant's entitlement. Unknown tiers resolve to free.
func (r *Resolver) Resolve(tenant domain.Tenant) Entitlement {
	if r.override != nil && r.override(tenant) {
		return r.ResolveTier(domain.TierEnterpriseInternal)
	}
	return r.ResolveTier(tenant.Plan)
}

func (r *Resolver) ResolveTier(tier domain.Tier) Entitlement {
	e, ok := r.table[tier]
	if !ok {
		e = r.table[domain.TierFree]
	}
	e.AllowedModes = slices.Clone(e.AllowedModes)
	return e
}
