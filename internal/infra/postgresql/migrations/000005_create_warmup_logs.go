package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/DeeipChheda/warmup-master-main/internal/repository"
)

func createWarmupLogsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000005_create_warmup_logs",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.WarmupLogModel{}); err != nil {
				return err
			}
			return tx.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_warmup_logs_identity_period ON warmup_logs (identity_id, period)`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.WarmupLogModel{})
		},
	}
}
