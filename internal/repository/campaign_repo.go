package repository

import (
	"context"
	"fmt"
	"slices"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/DeeipChheda/warmup-master-main/internal/domain"
)

type CampaignRepository interface {
	Create(ctx context.Context, c *domain.Campaign) error
	GetByID(ctx context.Context, id string) (*domain.Campaign, error)
	GetForTenant(ctx context.Context, tenantID, id string) (*domain.Campaign, error)
	ListByTenant(ctx context.Context, tenantID string) ([]domain.Campaign, error)
	Transition(ctx context.Context, id string, from []domain.CampaignStatus, to domain.CampaignStatus) (*domain.Campaign, error)
}

type GormCampaignRepo struct {
	db *gorm.DB
}

func NewGormCampaignRepo(db *gorm.DB) *GormCampaignRepo {
	return &GormCampaignRepo{db: db}
}

func (r *GormCampaignRepo) Create(ctx context.Context, c *domain.Campaign) error {
	model := campaignModelFromDomain(c)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err)
	}
	if c != nil {
		*c = *campaignModelToDomain(model)
	}
	return nil
}

func (r *GormCampaignRepo) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	var model CampaignModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return campaignModelToDomain(&model), nil
}

func (r *GormCampaignRepo) GetForTenant(ctx context.Context, tenantID, id string) (*domain.Campaign, error) {
	var model CampaignModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&model).Error
	if err != nil {
		return nil, translateError(err)
	}
	return campaignModelToDomain(&model), nil
}

func (r *GormCampaignRepo) ListByTenant(ctx context.Context, tenantID string) ([]domain.Campaign, error) {
	var models []CampaignModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	campaigns := make([]domain.Campaign, 0, len(models))
	for i := range models {
		campaigns = append(campaigns, *campaignModelToDomain(&models[i]))
	}
	return campaigns, nil
}

// Transition moves a campaign to status `to` only if it is currently in one of
// `from`. The row is locked for the duration of the check.
func (r *GormCampaignRepo) Transition(
	ctx context.Context,
	id string,
	from []domain.CampaignStatus,
	to domain.CampaignStatus,
) (*domain.Campaign, error) {
	var model CampaignModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&model, "id = ?", id).Error; err != nil {
			return translateError(err)
		}

		if !slices.Contains(from, model.Status) {
			return fmt.Errorf("%w: campaign is %s", domain.ErrConflict, model.Status)
		}

		model.Status = to
		return tx.Model(&model).Update("status", to).Error
	})
	if err != nil {
		return nil, err
	}
	return campaignModelToDomain(&model), nil
}
