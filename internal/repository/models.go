package repository

import (
	"time"

	"github.com/lib/pq"

	"github.com/DeeipChheda/warmup-master-main/internal/domain"
)

// TenantModel is the persistence model for the tenants table.
type TenantModel struct {
	ID        string      `gorm:"type:uuid;primaryKey"`
	Email     string      `gorm:"type:varchar(255);not null;uniqueIndex"`
	Plan      domain.Tier `gorm:"type:varchar(32);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (TenantModel) TableName() string {
	return "tenants"
}

// IdentityModel is the persistence model for the identities table.
type IdentityModel struct {
	ID       string              `gorm:"type:uuid;primaryKey"`
	TenantID string              `gorm:"type:uuid;not null;index"`
	Kind     domain.IdentityKind `gorm:"type:varchar(10);not null"`
	Address  string              `gorm:"type:varchar(255);not null"`
	Mode     domain.Mode         `gorm:"type:varchar(32);not null"`

	WarmupDay       int  `gorm:"not null;default:0"`
	WarmupCompleted bool `gorm:"not null;default:false"`
	DailyLimit      int  `gorm:"not null"`
	SentToday       int  `gorm:"not null;default:0"`

	HealthScore  int                 `gorm:"not null;default:100"`
	HealthStatus domain.HealthStatus `gorm:"type:varchar(10);not null"`
	BounceRate   float64             `gorm:"not null;default:0"`
	SpamRate     float64             `gorm:"not null;default:0"`
	IsPaused     bool                `gorm:"not null;default:false"`
	PauseReason  *string             `gorm:"type:text"`

	SPFValid   bool `gorm:"column:spf_valid;not null;default:false"`
	DKIMValid  bool `gorm:"column:dkim_valid;not null;default:false"`
	DMARCValid bool `gorm:"column:dmarc_valid;not null;default:false"`
	Verified   bool `gorm:"not null;default:false"`

	BounceThreshold float64 `gorm:"not null"`
	SpamThreshold   float64 `gorm:"not null"`

	WarmupEnabled     bool                `gorm:"not null;default:false"`
	WarmupStatus      domain.WarmupStatus `gorm:"type:varchar(10)"`
	WarmupDailyVolume int                 `gorm:"not null;default:0"`
	WarmupRampUp      int                 `gorm:"not null;default:0"`
	DailySendLimit    int                 `gorm:"not null;default:0"`

	LastCyclePeriod string    `gorm:"type:varchar(10);not null;default:''"`
	LastResetAt     time.Time `gorm:"type:timestamptz;not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (IdentityModel) TableName() string {
	return "identities"
}

// CampaignModel is the persistence model for the campaigns table.
type CampaignModel struct {
	ID         string                `gorm:"type:uuid;primaryKey"`
	TenantID   string                `gorm:"type:uuid;not null;index"`
	IdentityID string                `gorm:"type:uuid;not null;index"`
	Name       string                `gorm:"type:varchar(255);not null"`
	Subject    string                `gorm:"type:text;not null"`
	Body       string                `gorm:"type:text;not null"`
	Recipients pq.StringArray        `gorm:"type:text[];not null"`
	Status     domain.CampaignStatus `gorm:"type:varchar(10);not null"`

	SentCount      int `gorm:"not null;default:0"`
	DeliveredCount int `gorm:"not null;default:0"`
	BounceCount    int `gorm:"not null;default:0"`
	SpamCount      int `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (CampaignModel) TableName() string {
	return "campaigns"
}

// SendOutcomeModel is the persistence model for send_outcomes. Rows are
// never updated.
type SendOutcomeModel struct {
	ID         string         `gorm:"type:uuid;primaryKey"`
	IdentityID string         `gorm:"type:uuid;not null"`
	CampaignID *string        `gorm:"type:uuid"`
	Recipient  string         `gorm:"type:varchar(255);not null"`
	Outcome    domain.Outcome `gorm:"type:varchar(20);not null"`
	CreatedAt  time.Time
}

func (SendOutcomeModel) TableName() string {
	return "send_outcomes"
}

// WarmupLogModel is the persistence model for warmup_logs.
type WarmupLogModel struct {
	ID         string `gorm:"type:uuid;primaryKey"`
	IdentityID string `gorm:"type:uuid;not null"`
	Period     string `gorm:"type:varchar(10);not null"`
	Day        int    `gorm:"not null"`
	DailyLimit int    `gorm:"not null"`
	Sent       int64  `gorm:"not null;default:0"`
	Delivered  int64  `gorm:"not null;default:0"`
	Bounced    int64  `gorm:"not null;default:0"`
	Spam       int64  `gorm:"not null;default:0"`
	CreatedAt  time.Time
}

func (WarmupLogModel) TableName() string {
	return "warmup_logs"
}

func tenantModelFromDomain(t *domain.Tenant) *TenantModel {
	if t == nil {
		return nil
	}

	return &TenantModel{
		ID:        t.ID,
		Email:     t.Email,
		Plan:      t.Plan,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func tenantModelToDomain(m *TenantModel) *domain.Tenant {
	if m == nil {
		return nil
	}

	return &domain.Tenant{
		ID:        m.ID,
		Email:     m.Email,
		Plan:      m.Plan,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func identityModelFromDomain(i *domain.Identity) *IdentityModel {
	if i == nil {
		return nil
	}

	return &IdentityModel{
		ID:                i.ID,
		TenantID:          i.TenantID,
		Kind:              i.Kind,
		Address:           i.Address,
		Mode:              i.Mode,
		WarmupDay:         i.WarmupDay,
		WarmupCompleted:   i.WarmupCompleted,
		DailyLimit:        i.DailyLimit,
		SentToday:         i.SentToday,
		HealthScore:       i.HealthScore,
		HealthStatus:      i.HealthStatus,
		BounceRate:        i.BounceRate,
		SpamRate:          i.SpamRate,
		IsPaused:          i.IsPaused,
		PauseReason:       i.PauseReason,
		SPFValid:          i.SPFValid,
		DKIMValid:         i.DKIMValid,
		DMARCValid:        i.DMARCValid,
		Verified:          i.Verified,
		BounceThreshold:   i.BounceThreshold,
		SpamThreshold:     i.SpamThreshold,
		WarmupEnabled:     i.WarmupEnabled,
		WarmupStatus:      i.WarmupStatus,
		WarmupDailyVolume: i.WarmupDailyVolume,
		WarmupRampUp:      i.WarmupRampUp,
		DailySendLimit:    i.DailySendLimit,
		LastCyclePeriod:   i.LastCyclePeriod,
		LastResetAt:       i.LastResetAt,
		CreatedAt:         i.CreatedAt,
		UpdatedAt:         i.UpdatedAt,
	}
}

func identityModelToDomain(m *IdentityModel) *domain.Identity {
	if m == nil {
		return nil
	}

	return &domain.Identity{
		ID:                m.ID,
		TenantID:          m.TenantID,
		Kind:              m.Kind,
		Address:           m.Address,
		Mode:              m.Mode,
		WarmupDay:         m.WarmupDay,
		WarmupCompleted:   m.WarmupCompleted,
		DailyLimit:        m.DailyLimit,
		SentToday:         m.SentToday,
		HealthScore:       m.HealthScore,
		HealthStatus:      m.HealthStatus,
		BounceRate:        m.BounceRate,
		SpamRate:          m.SpamRate,
		IsPaused:          m.IsPaused,
		PauseReason:       m.PauseReason,
		SPFValid:          m.SPFValid,
		DKIMValid:         m.DKIMValid,
		DMARCValid:        m.DMARCValid,
		Verified:          m.Verified,
		BounceThreshold:   m.BounceThreshold,
		SpamThreshold:     m.SpamThreshold,
		WarmupEnabled:     m.WarmupEnabled,
		WarmupStatus:      m.WarmupStatus,
		WarmupDailyVolume: m.WarmupDailyVolume,
		WarmupRampUp:      m.WarmupRampUp,
		DailySendLimit:    m.DailySendLimit,
		LastCyclePeriod:   m.LastCyclePeriod,
		LastResetAt:       m.LastResetAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func campaignModelFromDomain(c *domain.Campaign) *CampaignModel {
	if c == nil {
		return nil
	}

	return &CampaignModel{
		ID:             c.ID,
		TenantID:       c.TenantID,
		IdentityID:     c.IdentityID,
		Name:           c.Name,
		Subject:        c.Subject,
		Body:           c.Body,
		Recipients:     pq.StringArray(c.Recipients),
		Status:         c.Status,
		SentCount:      c.SentCount,
		DeliveredCount: c.DeliveredCount,
		BounceCount:    c.BounceCount,
		SpamCount:      c.SpamCount,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func campaignModelToDomain(m *CampaignModel) *domain.Campaign {
	if m == nil {
		return nil
	}

	return &domain.Campaign{
		ID:             m.ID,
		TenantID:       m.TenantID,
		IdentityID:     m.IdentityID,
		Name:           m.Name,
		Subject:        m.Subject,
		Body:           m.Body,
		Recipients:     []string(m.Recipients),
		Status:         m.Status,
		SentCount:      m.SentCount,
		DeliveredCount: m.DeliveredCount,
		BounceCount:    m.BounceCount,
		SpamCount:      m.SpamCount,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func outcomeModelFromDomain(o *domain.SendOutcome) *SendOutcomeModel {
	if o == nil {
		return nil
	}

	return &SendOutcomeModel{
		ID:         o.ID,
		IdentityID: o.IdentityID,
		CampaignID: o.CampaignID,
		Recipient:  o.Recipient,
		Outcome:    o.Outcome,
		CreatedAt:  o.CreatedAt,
	}
}

func outcomeModelToDomain(m *SendOutcomeModel) *domain.SendOutcome {
	if m == nil {
		return nil
	}

	return &domain.SendOutcome{
		ID:         m.ID,
		IdentityID: m.IdentityID,
		CampaignID: m.CampaignID,
		Recipient:  m.Recipient,
		Outcome:    m.Outcome,
		CreatedAt:  m.CreatedAt,
	}
}

func warmupLogModelFromDomain(l *domain.WarmupLog) *WarmupLogModel {
	if l == nil {
		return nil
	}

	return &WarmupLogModel{
		ID:         l.ID,
		IdentityID: l.IdentityID,
		Period:     l.Period,
		Day:        l.Day,
		DailyLimit: l.DailyLimit,
		Sent:       l.Sent,
		Delivered:  l.Delivered,
		Bounced:    l.Bounced,
		Spam:       l.Spam,
		CreatedAt:  l.CreatedAt,
	}
}

func warmupLogModelToDomain(m *WarmupLogModel) *domain.WarmupLog {
	if m == nil {
		return nil
	}

	return &domain.WarmupLog{
		ID:         m.ID,
		IdentityID: m.IdentityID,
		Period:     m.Period,
		Day:        m.Day,
		DailyLimit: m.DailyLimit,
		Sent:       m.Sent,
		Delivered:  m.Delivered,
		Bounced:    m.Bounced,
		Spam:       m.Spam,
		CreatedAt:  m.CreatedAt,
	}
}
