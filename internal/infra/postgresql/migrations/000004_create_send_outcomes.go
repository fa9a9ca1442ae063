package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/DeeipChheda/warmup-master-main/internal/repository"
)

func createSendOutcomesTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000004_create_send_outcomes",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.SendOutcomeModel{}); err != nil {
				return err
			}
			return execAll(tx, []string{
				`CREATE INDEX IF NOT EXISTS idx_send_outcomes_identity_created ON send_outcomes (identity_id, created_at)`,
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_send_outcomes_campaign_recipient ON send_outcomes (campaign_id, recipient) WHERE campaign_id IS NOT NULL`,
			})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.SendOutcomeModel{})
		},
	}
}
