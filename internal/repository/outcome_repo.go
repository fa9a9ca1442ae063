package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/DeeipChheda/warmup-master-main/internal/domain"
)

type OutcomeRepository interface {
	Record(ctx context.Context, o *domain.SendOutcome) error
	Tally(ctx context.Context, identityID string, since time.Time) (domain.OutcomeTally, error)
	RecipientsWithOutcome(ctx context.Context, campaignID string) ([]string, error)
}

type outcomeCount struct {
	Outcome domain.Outcome `gorm:"column:outcome"`
	Count   int64          `gorm:"column:count"`
}

var campaignCounterColumn = map[domain.Outcome]string{
	domain.OutcomeDelivered:     "delivered_count",
	domain.OutcomeBounced:       "bounce_count",
	domain.OutcomeSpamComplaint: "spam_count",
}

type GormOutcomeRepo struct {
	db *gorm.DB
}

func NewGormOutcomeRepo(db *gorm.DB) *GormOutcomeRepo {
	return &GormOutcomeRepo{db: db}
}

// Record writes the outcome, the campaign counters and the identity's
// sent_today in one transaction. The sent_today increment carries the daily
// limit as a ceiling; when it would be crossed nothing is written.
func (r *GormOutcomeRepo) Record(ctx context.Context, o *domain.SendOutcome) error {
	if err := o.Validate(); err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		result := tx.Model(&IdentityModel{}).
			Where("id = ? AND sent_today + 1 <= daily_limit", o.IdentityID).
			Updates(map[string]any{
				"sent_today": gorm.Expr("sent_today + 1"),
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return r.ceilingError(tx, o.IdentityID)
		}

		if o.CampaignID != nil {
			column := campaignCounterColumn[o.Outcome]
			result := tx.Model(&CampaignModel{}).
				Where("id = ? AND status = ?", *o.CampaignID, domain.CampaignSending).
				Updates(map[string]any{
					"sent_count": gorm.Expr("sent_count + 1"),
					column:       gorm.Expr(column + " + 1"),
					"updated_at": now,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return domain.ErrConflict
			}
		}

		model := outcomeModelFromDomain(o)
		if model.CreatedAt.IsZero() {
			model.CreatedAt = now
		}
		if err := tx.Create(model).Error; err != nil {
			return translateError(err)
		}
		*o = *outcomeModelToDomain(model)
		return nil
	})
}

func (r *GormOutcomeRepo) ceilingError(tx *gorm.DB, identityID string) error {
	var model IdentityModel
	err := tx.Select("id", "daily_limit", "sent_today").First(&model, "id = ?", identityID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	return &domain.DailyLimitExceededError{
		IdentityID: identityID,
		Requested:  1,
		Remaining:  max(model.DailyLimit-model.SentToday, 0),
		DailyLimit: model.DailyLimit,
	}
}

// Tally counts outcomes for an identity. A zero since counts every record.
func (r *GormOutcomeRepo) Tally(ctx context.Context, identityID string, since time.Time) (domain.OutcomeTally, error) {
	query := r.db.WithContext(ctx).
		Model(&SendOutcomeModel{}).
		Select("outcome, COUNT(*) as count").
		Where("identity_id = ?", identityID)
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}

	var counts []outcomeCount
	if err := query.Group("outcome").Scan(&counts).Error; err != nil {
		return domain.OutcomeTally{}, err
	}

	var tally domain.OutcomeTally
	for _, c := range counts {
		tally.Add(c.Outcome, c.Count)
	}
	return tally, nil
}

func (r *GormOutcomeRepo) RecipientsWithOutcome(ctx context.Context, campaignID string) ([]string, error) {
	var recipients []string
	err := r.db.WithContext(ctx).
		Model(&SendOutcomeModel{}).
		Where("campaign_id = ?", campaignID).
		Pluck("recipient", &recipients).Error
	if err != nil {
		return nil, err
	}
	return recipients, nil
}
