package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/DeeipChheda/warmup-master-main/internal/domain"
)

type IdentityRepository interface {
	Create(ctx context.Context, i *domain.Identity) error
	GetByID(ctx context.Context, id string) (*domain.Identity, error)
	GetForTenant(ctx context.Context, tenantID, id string) (*domain.Identity, error)
	ListByTenant(ctx context.Context, tenantID string) ([]domain.Identity, error)
	CountByTenant(ctx context.Context, tenantID string) (int64, error)
	ListIDsByKind(ctx context.Context, kind domain.IdentityKind) ([]string, error)
	Update(ctx context.Context, i *domain.Identity) error
	ApplyCycle(ctx context.Context, i *domain.Identity, log *domain.WarmupLog) error
}

type GormIdentityRepo struct {
	db *gorm.DB
}

func NewGormIdentityRepo(db *gorm.DB) *GormIdentityRepo {
	return &GormIdentityRepo{db: db}
}

func (r *GormIdentityRepo) Create(ctx context.Context, i *domain.Identity) error {
	model := identityModelFromDomain(i)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err)
	}
	if i != nil {
		*i = *identityModelToDomain(model)
	}
	return nil
}

func (r *GormIdentityRepo) GetByID(ctx context.Context, id string) (*domain.Identity, error) {
	var model IdentityModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return identityModelToDomain(&model), nil
}

// GetForTenant hides identities owned by other tenants behind ErrNotFound.
func (r *GormIdentityRepo) GetForTenant(ctx context.Context, tenantID, id string) (*domain.Identity, error) {
	var model IdentityModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&model).Error
	if err != nil {
		return nil, translateError(err)
	}
	return identityModelToDomain(&model), nil
}

func (r *GormIdentityRepo) ListByTenant(ctx context.Context, tenantID string) ([]domain.Identity, error) {
	var models []IdentityModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	identities := make([]domain.Identity, 0, len(models))
	for i := range models {
		identities = append(identities, *identityModelToDomain(&models[i]))
	}
	return identities, nil
}

func (r *GormIdentityRepo) CountByTenant(ctx context.Context, tenantID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&IdentityModel{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error
	return count, err
}

func (r *GormIdentityRepo) ListIDsByKind(ctx context.Context, kind domain.IdentityKind) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&IdentityModel{}).
		Where("kind = ?", kind).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Update writes every mutable column except sent_today, which only the
// outcome ceiling increment and the warmup cycle reset may change.
func (r *GormIdentityRepo) Update(ctx context.Context, i *domain.Identity) error {
	model := identityModelFromDomain(i)
	model.UpdatedAt = time.Now().UTC()

	result := r.db.WithContext(ctx).
		Model(&IdentityModel{}).
		Where("id = ?", model.ID).
		Select("*").
		Omit("id", "tenant_id", "kind", "address", "sent_today", "created_at").
		Updates(model)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	i.UpdatedAt = model.UpdatedAt
	return nil
}

// ApplyCycle persists one progression step and its audit row atomically. It
// returns ErrConflict when the period was already applied.
func (r *GormIdentityRepo) ApplyCycle(ctx context.Context, i *domain.Identity, log *domain.WarmupLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&IdentityModel{}).
			Where("id = ? AND last_cycle_period <> ?", i.ID, i.LastCyclePeriod).
			Updates(map[string]any{
				"warmup_day":        i.WarmupDay,
				"warmup_completed":  i.WarmupCompleted,
				"warmup_status":     i.WarmupStatus,
				"daily_limit":       i.DailyLimit,
				"sent_today":        i.SentToday,
				"last_cycle_period": i.LastCyclePeriod,
				"last_reset_at":     i.LastResetAt,
				"updated_at":        time.Now().UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrConflict
		}

		if log == nil {
			return nil
		}
		if err := tx.Create(warmupLogModelFromDomain(log)).Error; err != nil {
			return translateError(err)
		}
		return nil
	})
}
