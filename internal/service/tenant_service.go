package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/DeeipChheda/warmup-master-main/internal/admission"
	"github.com/DeeipChheda/warmup-master-main/internal/domain"
	"github.com/DeeipChheda/warmup-master-main/internal/plan"
	"github.com/DeeipChheda/warmup-master-main/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TenantView is a tenant together with its resolved entitlement.
type TenantView struct {
	Tenant      domain.Tenant
	Entitlement plan.Entitlement
}

type TenantService struct {
	tenants repository.TenantRepository
	plans   admission.PlanResolver
	logger  *zap.Logger
}

func NewTenantService(
	tenants repository.TenantRepository,
	plans admission.PlanResolver,
	logger *zap.Logger,
) (*TenantService, error) {
	if tenants == nil {
		return nil, fmt.Errorf("tenant repository is required")
	}
	if plans == nil {
		return nil, fmt.Errorf("plan resolver is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &TenantService{tenants: tenants, plans: plans, logger: logger}, nil
}

func (s *TenantService) Create(ctx context.Context, tenant *domain.Tenant) (*TenantView, error) {
	tenant.Email = strings.TrimSpace(tenant.Email)
	if tenant.Plan == "" {
		tenant.Plan = domain.TierFree
	}
	if err := tenant.Validate(); err != nil {
		return nil, err
	}
	if tenant.ID == "" {
		tenant.ID = uuid.NewString()
	}

	if err := s.tenants.Create(ctx, tenant); err != nil {
		return nil, err
	}

	s.logger.Info("tenant created",
		zap.String("tenantId", tenant.ID),
		zap.String("plan", tenant.Plan.String()),
	)
	return &TenantView{Tenant: *tenant, Entitlement: s.plans.Resolve(*tenant)}, nil
}

func (s *TenantService) Get(ctx context.Context, id string) (*TenantView, error) {
	tenant, err := s.tenants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &TenantView{Tenant: *tenant, Entitlement: s.plans.Resolve(*tenant)}, nil
}
