package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/DeeipChheda/warmup-master-main/internal/domain"
)

type TenantRepository interface {
	Create(ctx context.Context, t *domain.Tenant) error
	GetByID(ctx context.Context, id string) (*domain.Tenant, error)
}

type GormTenantRepo struct {
	db *gorm.DB
}

func NewGormTenantRepo(db *gorm.DB) *GormTenantRepo {
	return &GormTenantRepo{db: db}
}

func (r *GormTenantRepo) Create(ctx context.Context, t *domain.Tenant) error {
	model := tenantModelFromDomain(t)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err)
	}
	if t != nil {
		*t = *tenantModelToDomain(model)
	}
	return nil
}

func (r *GormTenantRepo) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	var model TenantModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return tenantModelToDomain(&model), nil
}
