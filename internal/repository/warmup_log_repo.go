package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/DeeipChheda/warmup-master-main/internal/domain"
)

type WarmupLogRepository interface {
	ListRecent(ctx context.Context, identityID string, limit int) ([]domain.WarmupLog, error)
}

type GormWarmupLogRepo struct {
	db *gorm.DB
}

func NewGormWarmupLogRepo(db *gorm.DB) *GormWarmupLogRepo {
	return &GormWarmupLogRepo{db: db}
}

// ListRecent returns the newest entries first.
func (r *GormWarmupLogRepo) ListRecent(ctx context.Context, identityID string, limit int) ([]domain.WarmupLog, error) {
	if limit <= 0 {
		limit = 30
	}

	var models []WarmupLogModel
	err := r.db.WithContext(ctx).
		Where("identity_id = ?", identityID).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	logs := make([]domain.WarmupLog, 0, len(models))
	for i := range models {
		logs = append(logs, *warmupLogModelToDomain(&models[i]))
	}
	return logs, nil
}
