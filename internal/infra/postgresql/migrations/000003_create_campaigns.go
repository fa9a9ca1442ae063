package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/DeeipChheda/warmup-master-main/internal/repository"
)

func createCampaignsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_create_campaigns",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&repository.CampaignModel{})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.CampaignModel{})
		},
	}
}
