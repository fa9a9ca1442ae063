package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/DeeipChheda/warmup-master-main/internal/repository"
)

func createIdentitiesTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_identities",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.IdentityModel{}); err != nil {
				return err
			}
			return execAll(tx, []string{
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_identities_tenant_kind_address ON identities (tenant_id, kind, lower(address))`,
				`CREATE INDEX IF NOT EXISTS idx_identities_kind_created ON identities (kind, created_at)`,
				`ALTER TABLE identities ADD CONSTRAINT chk_identities_sent_today CHECK (sent_today >= 0)`,
				`ALTER TABLE identities ADD CONSTRAINT chk_identities_health_score CHECK (health_score BETWEEN 0 AND 100)`,
				`ALTER TABLE identities ADD CONSTRAINT chk_identities_pause_reason CHECK (NOT is_paused OR coalesce(pause_reason, '') <> '')`,
			})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.IdentityModel{})
		},
	}
}
