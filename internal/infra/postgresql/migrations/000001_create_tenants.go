package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/DeeipChheda/warmup-master-main/internal/repository"
)

func createTenantsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_tenants",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&repository.TenantModel{})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.TenantModel{})
		},
	}
}
