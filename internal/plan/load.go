package plan

import (
	"fmt"
	"io"
	"os"

	"github.com/DeeipChheda/warmup-master-main/internal/domain"
	"gopkg.in/yaml.v3"
)

type fileTier struct {
	MaxIdentities         *int     `yaml:"maxIdentities"`
	DailyLimitPerIdentity *int     `yaml:"dailyLimitPerIdentity"`
	AllowedModes          []string `yaml:"allowedModes"`
	WarmupRequired        *bool    `yaml:"warmupRequired"`
}

type fileTable struct {
	Tiers map[string]fileTier `yaml:"tiers"`
}

// LoadTable reads tier overrides from YAML on top of DefaultTable.
func LoadTable(r io.Reader) (Table, error) {
	var file fileTable
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: failed to parse plan table: %v", domain.ErrValidation, err)
	}

	table := DefaultTable()
	for name, ft := range file.Tiers {
		tier, err := domain.ParseTierFromString(name)
		if err != nil {
			return nil, err
		}

		e := table[tier]
		if ft.MaxIdentities != nil {
			e.MaxIdentities = *ft.MaxIdentities
		}
		if ft.DailyLimitPerIdentity != nil {
			e.DailyLimitPerIdentity = *ft.DailyLimitPerIdentity
		}
		if ft.AllowedModes != nil {
			modes := make([]domain.Mode, 0, len(ft.AllowedModes))
			for _, raw := range ft.AllowedModes {
				m, err := domain.ParseModeFromString(raw)
				if err != nil {
					return nil, fmt.Errorf("tier %q: %w", tier, err)
				}
				modes = append(modes, m)
			}
			e.AllowedModes = modes
		}
		if ft.WarmupRequired != nil {
			e.WarmupRequired = *ft.WarmupRequired
		}
		table[tier] = e
	}

	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

func LoadTableFile(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open plan table: %w", err)
	}
	defer f.Close()

	return LoadTable(f)
}
