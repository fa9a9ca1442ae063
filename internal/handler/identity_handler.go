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

type IdentityService interface {
	Create(ctx context.Context, tenantID string, in service.CreateIdentityInput) (*domain.Identity, error)
	List(ctx context.Context, tenantID string) ([]domain.Identity, error)
	Get(ctx context.Context, tenantID, id string) (*domain.Identity, error)
	Validate(ctx context.Context, tenantID, id string) (*domain.Identity, error)
	Pause(ctx context.Context, tenantID, id, reason string) (*domain.Identity, error)
	Resume(ctx context.Context, tenantID, id string) (*domain.Identity, error)
	ResetHealth(ctx context.Context, tenantID, id string) (*domain.Identity, error)
	StartWarmup(ctx context.Context, tenantID, id string) (*domain.Identity, error)
	StopWarmup(ctx context.Context, tenantID, id string) (*domain.Identity, error)
	UpdateSettings(ctx context.Context, tenantID, id string, settings service.WarmupSettings) (*domain.Identity, error)
	WarmupStats(ctx context.Context, tenantID, id string) (*service.WarmupStats, error)
}

type HealthViewer interface {
	View(ctx context.Context, tenantID, identityID string) (*service.HealthView, error)
}

type IdentityHandler struct {
	service IdentityService
	health  HealthViewer
}

func NewIdentityHandler(service IdentityService, health HealthViewer) (*IdentityHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("identity service is required")
	}
	if health == nil {
		return nil, fmt.Errorf("health viewer is required")
	}
	return &IdentityHandler{service: service, health: health}, nil
}

func RegisterIdentityRoutes(router fiber.Router, service IdentityService, health HealthViewer) error {
	h, err := NewIdentityHandler(service, health)
	if err != nil {
		return err
	}

	identities := router.Group("/v1/identities", requireTenant)
	identities.Post("/", h.CreateIdentity)
	identities.Get("/", h.ListIdentities)
	identities.Get("/:id", h.GetIdentity)
	identities.Post("/:id/validate", h.ValidateIdentity)
	identities.Post("/:id/pause", h.PauseIdentity)
	identities.Post("/:id/resume", h.ResumeIdentity)
	identities.Get("/:id/health", h.GetHealth)
	identities.Post("/:id/health/reset", h.ResetHealth)
	identities.Post("/:id/warmup/start", h.StartWarmup)
	identities.Post("/:id/warmup/stop", h.StopWarmup)
	identities.Patch("/:id/warmup/settings", h.UpdateWarmupSettings)
	identities.Get("/:id/warmup/stats", h.GetWarmupStats)

	return nil
}

type warmupSettingsRequest struct {
	DailyVolume     *int     `json:"dailyVolume,omitempty"`
	RampUp          *int     `json:"rampUp,omitempty"`
	DailySendLimit  *int     `json:"dailySendLimit,omitempty"`
	BounceThreshold *float64 `json:"bounceThreshold,omitempty"`
}

type createIdentityRequest struct {
	Kind            string                `json:"kind"`
	Address         string                `json:"address"`
	Mode            string                `json:"mode"`
	BounceThreshold float64               `json:"bounceThreshold,omitempty"`
	SpamThreshold   float64               `json:"spamThreshold,omitempty"`
	WarmupEnabled   bool                  `json:"warmupEnabled"`
	Warmup          warmupSettingsRequest `json:"warmup"`
}

type pauseRequest struct {
	Reason string `json:"reason"`
}

type identityResponse struct {
	ID              string          `json:"id"`
	Kind            string          `json:"kind"`
	Address         string          `json:"address"`
	Mode            string          `json:"mode"`
	WarmupDay       int             `json:"warmupDay"`
	WarmupCompleted bool            `json:"warmupCompleted"`
	DailyLimit      int             `json:"dailyLimit"`
	SentToday       int             `json:"sentToday"`
	Remaining       int             `json:"remaining"`
	HealthScore     int             `json:"healthScore"`
	HealthStatus    string          `json:"healthStatus"`
	BounceRate      float64         `json:"bounceRate"`
	SpamRate        float64         `json:"spamRate"`
	IsPaused        bool            `json:"isPaused"`
	PauseReason     string          `json:"pauseReason,omitempty"`
	SPFValid        bool            `json:"spfValid"`
	DKIMValid       bool            `json:"dkimValid"`
	DMARCValid      bool            `json:"dmarcValid"`
	Verified        bool            `json:"verified"`
	BounceThreshold float64         `json:"bounceThreshold"`
	SpamThreshold   float64         `json:"spamThreshold"`
	Warmup          *warmupResponse `json:"warmup,omitempty"`
	CreatedAt       time.Time       `json:"createdAt,omitempty"`
}

type warmupResponse struct {
	Enabled        bool   `json:"enabled"`
	Status         string `json:"status"`
	DailyVolume    int    `json:"dailyVolume"`
	RampUp         int    `json:"rampUp"`
	DailySendLimit int    `json:"dailySendLimit"`
}

type healthResponse struct {
	IdentityID   string  `json:"identityId"`
	Sent         int64   `json:"sent"`
	Delivered    int64   `json:"delivered"`
	Bounced      int64   `json:"bounced"`
	Spam         int64   `json:"spam"`
	BounceRate   float64 `json:"bounceRate"`
	SpamRate     float64 `json:"spamRate"`
	HealthScore  int     `json:"healthScore"`
	HealthStatus string  `json:"healthStatus"`
	IsPaused     bool    `json:"isPaused"`
	PauseReason  string  `json:"pauseReason,omitempty"`
}

type warmupLogResponse struct {
	Period     string `json:"period"`
	Day        int    `json:"day"`
	DailyLimit int    `json:"dailyLimit"`
	Sent       int64  `json:"sent"`
	Delivered  int64  `json:"delivered"`
	Bounced    int64  `json:"bounced"`
	Spam       int64  `json:"spam"`
}

type warmupStatsResponse struct {
	IdentityID   string              `json:"identityId"`
	WarmupDay    int                 `json:"warmupDay"`
	WarmupStatus string              `json:"warmupStatus,omitempty"`
	Completed    bool                `json:"completed"`
	DailyLimit   int                 `json:"dailyLimit"`
	SentToday    int                 `json:"sentToday"`
	Sent         int64               `json:"sent"`
	Delivered    int64               `json:"delivered"`
	Bounced      int64               `json:"bounced"`
	Spam         int64               `json:"spam"`
	BounceRate   float64             `json:"bounceRate"`
	SpamRate     float64             `json:"spamRate"`
	Logs         []warmupLogResponse `json:"logs"`
}

func (h *IdentityHandler) CreateIdentity(c *fiber.Ctx) error {
	var req createIdentityRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	kind, err := domain.ParseIdentityKindFromString(req.Kind)
	if err != nil {
		return toHTTPError(err)
	}
	mode, err := domain.ParseModeFromString(req.Mode)
	if err != nil {
		return toHTTPError(err)
	}

	identity, err := h.service.Create(requestCtx(c), tenantID(c), service.CreateIdentityInput{
		Kind:            kind,
		Address:         strings.TrimSpace(req.Address),
		Mode:            mode,
		BounceThreshold: req.BounceThreshold,
		SpamThreshold:   req.SpamThreshold,
		WarmupEnabled:   req.WarmupEnabled,
		WarmupSettings:  toWarmupSettings(req.Warmup),
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(toIdentityResponse(identity))
}

func (h *IdentityHandler) ListIdentities(c *fiber.Ctx) error {
	identities, err := h.service.List(requestCtx(c), tenantID(c))
	if err != nil {
		return toHTTPError(err)
	}

	responses := make([]identityResponse, 0, len(identities))
	for i := range identities {
		responses = append(responses, toIdentityResponse(&identities[i]))
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": responses})
}

func (h *IdentityHandler) GetIdentity(c *fiber.Ctx) error {
	return h.respond(c, h.service.Get)
}

func (h *IdentityHandler) ValidateIdentity(c *fiber.Ctx) error {
	return h.respond(c, h.service.Validate)
}

func (h *IdentityHandler) PauseIdentity(c *fiber.Ctx) error {
	var req pauseRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}
	return h.respond(c, func(ctx context.Context, tenantID, id string) (*domain.Identity, error) {
		return h.service.Pause(ctx, tenantID, id, req.Reason)
	})
}

func (h *IdentityHandler) ResumeIdentity(c *fiber.Ctx) error {
	return h.respond(c, h.service.Resume)
}

func (h *IdentityHandler) ResetHealth(c *fiber.Ctx) error {
	return h.respond(c, h.service.ResetHealth)
}

func (h *IdentityHandler) StartWarmup(c *fiber.Ctx) error {
	return h.respond(c, h.service.StartWarmup)
}

func (h *IdentityHandler) StopWarmup(c *fiber.Ctx) error {
	return h.respond(c, h.service.StopWarmup)
}

func (h *IdentityHandler) UpdateWarmupSettings(c *fiber.Ctx) error {
	var req warmupSettingsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	return h.respond(c, func(ctx context.Context, tenantID, id string) (*domain.Identity, error) {
		return h.service.UpdateSettings(ctx, tenantID, id, toWarmupSettings(req))
	})
}

func (h *IdentityHandler) GetHealth(c *fiber.Ctx) error {
	id, err := requiredParam(c, "id")
	if err != nil {
		return err
	}

	view, err := h.health.View(requestCtx(c), tenantID(c), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(healthResponse{
		IdentityID:   view.IdentityID,
		Sent:         view.Tally.Sent,
		Delivered:    view.Tally.Delivered,
		Bounced:      view.Tally.Bounced,
		Spam:         view.Tally.Spam,
		BounceRate:   view.BounceRate,
		SpamRate:     view.SpamRate,
		HealthScore:  view.HealthScore,
		HealthStatus: view.HealthStatus.String(),
		IsPaused:     view.IsPaused,
		PauseReason:  view.PauseReason,
	})
}

func (h *IdentityHandler) GetWarmupStats(c *fiber.Ctx) error {
	id, err := requiredParam(c, "id")
	if err != nil {
		return err
	}

	stats, err := h.service.WarmupStats(requestCtx(c), tenantID(c), id)
	if err != nil {
		return toHTTPError(err)
	}

	logs := make([]warmupLogResponse, 0, len(stats.Logs))
	for _, l := range stats.Logs {
		logs = append(logs, warmupLogResponse{
			Period:     l.Period,
			Day:        l.Day,
			DailyLimit: l.DailyLimit,
			Sent:       l.Sent,
			Delivered:  l.Delivered,
			Bounced:    l.Bounced,
			Spam:       l.Spam,
		})
	}

	return c.Status(fiber.StatusOK).JSON(warmupStatsResponse{
		IdentityID:   stats.IdentityID,
		WarmupDay:    stats.WarmupDay,
		WarmupStatus: stats.WarmupStatus.String(),
		Completed:    stats.Completed,
		DailyLimit:   stats.DailyLimit,
		SentToday:    stats.SentToday,
		Sent:         stats.Sent,
		Delivered:    stats.Delivered,
		Bounced:      stats.Bounced,
		Spam:         stats.Spam,
		BounceRate:   stats.BounceRate,
		SpamRate:     stats.SpamRate,
		Logs:         logs,
	})
}

// respond runs a single-identity operation and renders the result.
func (h *IdentityHandler) respond(
	c *fiber.Ctx,
	fn func(ctx context.Context, tenantID, id string) (*domain.Identity, error),
) error {
	id, err := requiredParam(c, "id")
	if err != nil {
		return err
	}

	identity, err := fn(requestCtx(c), tenantID(c), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(toIdentityResponse(identity))
}

func toWarmupSettings(req warmupSettingsRequest) service.WarmupSettings {
	return service.WarmupSettings{
		DailyVolume:     req.DailyVolume,
		RampUp:          req.RampUp,
		DailySendLimit:  req.DailySendLimit,
		BounceThreshold: req.BounceThreshold,
	}
}

func toIdentityResponse(i *domain.Identity) identityResponse {
	if i == nil {
		return identityResponse{}
	}

	resp := identityResponse{
		ID:              i.ID,
		Kind:            i.Kind.String(),
		Address:         i.Address,
		Mode:            i.Mode.String(),
		WarmupDay:       i.WarmupDay,
		WarmupCompleted: i.WarmupCompleted,
		DailyLimit:      i.DailyLimit,
		SentToday:       i.SentToday,
		Remaining:       i.Remaining(),
		HealthScore:     i.HealthScore,
		HealthStatus:    i.HealthStatus.String(),
		BounceRate:      i.BounceRate,
		SpamRate:        i.SpamRate,
		IsPaused:        i.IsPaused,
		PauseReason:     i.PauseReasonText(),
		SPFValid:        i.SPFValid,
		DKIMValid:       i.DKIMValid,
		DMARCValid:      i.DMARCValid,
		Verified:        i.Verified,
		BounceThreshold: i.BounceThreshold,
		SpamThreshold:   i.SpamThreshold,
		CreatedAt:       i.CreatedAt,
	}
	if i.Kind == domain.KindMailbox {
		resp.Warmup = &warmupResponse{
			Enabled:        i.WarmupEnabled,
			Status:         i.WarmupStatus.String(),
			DailyVolume:    i.WarmupDailyVolume,
			RampUp:         i.WarmupRampUp,
			DailySendLimit: i.DailySendLimit,
		}
	}
	return resp
}
