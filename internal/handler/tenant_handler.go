package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/DeeipChheda/warmup-master-main/internal/domain"
	"github.com/DeeipChheda/warmup-master-main/internal/service"
)

type TenantService interface {
	Create(ctx context.Context, tenant *domain.Tenant) (*service.TenantView, error)
	Get(ctx context.Context, id string) (*service.TenantView, error)
}

type TenantHandler struct {
	service TenantService
}

func NewTenantHandler(service TenantService) (*TenantHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("tenant service is required")
	}
	return &TenantHandler{service: service}, nil
}

func RegisterTenantRoutes(router fiber.Router, service TenantService) error {
	h, err := NewTenantHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/tenants", h.CreateTenant)
	v1.Get("/tenants/:id", h.GetTenant)

	return nil
}

type createTenantRequest struct {
	Email string `json:"email"`
	Plan  string `json:"plan"`
}

type entitlementResponse struct {
	Tier                  string   `json:"tier"`
	MaxIdentities         int      `json:"maxIdentities"`
	DailyLimitPerIdentity int      `json:"dailyLimitPerIdentity"`
	AllowedModes          []string `json:"allowedModes"`
	WarmupRequired        bool     `json:"warmupRequired"`
}

type tenantResponse struct {
	ID          string              `json:"id"`
	Email       string              `json:"email"`
	Plan        string              `json:"plan"`
	Entitlement entitlementResponse `json:"entitlement"`
	CreatedAt   time.Time           `json:"createdAt,omitempty"`
}

func (h *TenantHandler) CreateTenant(c *fiber.Ctx) error {
	var req createTenantRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	tenant := domain.Tenant{Email: strings.TrimSpace(req.Email)}
	if raw := strings.TrimSpace(req.Plan); raw != "" {
		tier, err := domain.ParseTierFromString(raw)
		if err != nil {
			return toHTTPError(err)
		}
		tenant.Plan = tier
	}

	view, err := h.service.Create(requestCtx(c), &tenant)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(toTenantResponse(view))
}

func (h *TenantHandler) GetTenant(c *fiber.Ctx) error {
	id, err := requiredParam(c, "id")
	if err != nil {
		return err
	}

	view, err := h.service.Get(requestCtx(c), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(toTenantResponse(view))
}

func toTenantResponse(view *service.TenantView) tenantResponse {
	e := view.Entitlement
	modes := make([]string, 0, len(e.AllowedModes))
	for _, m := range e.AllowedModes {
		modes = append(modes, m.String())
	}

	return tenantResponse{
		ID:    view.Tenant.ID,
		Email: view.Tenant.Email,
		Plan:  view.Tenant.Plan.String(),
		Entitlement: entitlementResponse{
			Tier:                  e.Tier.String(),
			MaxIdentities:         e.MaxIdentities,
			DailyLimitPerIdentity: e.DailyLimitPerIdentity,
			AllowedModes:          modes,
			WarmupRequired:        e.WarmupRequired,
		},
		CreatedAt: view.Tenant.CreatedAt,
	}
}
