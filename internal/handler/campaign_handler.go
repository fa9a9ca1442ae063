package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/DeeipChheda/warmup-master-main/internal/domain"
)

type CampaignService interface {
	Create(ctx context.Context, tenantID string, campaign *domain.Campaign) (*domain.Campaign, error)
	Get(ctx context.Context, tenantID, id string) (*domain.Campaign, error)
	List(ctx context.Context, tenantID string) ([]domain.Campaign, error)
	Send(ctx context.Context, tenantID, id string) (*domain.Campaign, error)
}

type CampaignHandler struct {
	service CampaignService
}

func NewCampaignHandler(service CampaignService) (*CampaignHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("campaign service is required")
	}
	return &CampaignHandler{service: service}, nil
}

func RegisterCampaignRoutes(router fiber.Router, service CampaignService) error {
	h, err := NewCampaignHandler(service)
	if err != nil {
		return err
	}

	campaigns := router.Group("/v1/campaigns", requireTenant)
	campaigns.Post("/", h.CreateCampaign)
	campaigns.Get("/", h.ListCampaigns)
	campaigns.Get("/:id", h.GetCampaign)
	campaigns.Post("/:id/send", h.SendCampaign)

	return nil
}

type createCampaignRequest struct {
	IdentityID string   `json:"identityId"`
	Name       string   `json:"name"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	Recipients []string `json:"recipients"`
}

type campaignResponse struct {
	ID             string    `json:"id"`
	IdentityID     string    `json:"identityId"`
	Name           string    `json:"name"`
	Subject        string    `json:"subject"`
	Status         string    `json:"status"`
	RecipientCount int       `json:"recipientCount"`
	SentCount      int       `json:"sentCount"`
	DeliveredCount int       `json:"deliveredCount"`
	BounceCount    int       `json:"bounceCount"`
	SpamCount      int       `json:"spamCount"`
	CreatedAt      time.Time `json:"createdAt,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt,omitempty"`
}

func (h *CampaignHandler) CreateCampaign(c *fiber.Ctx) error {
	var req createCampaignRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	campaign := domain.Campaign{
		IdentityID: strings.TrimSpace(req.IdentityID),
		Name:       strings.TrimSpace(req.Name),
		Subject:    strings.TrimSpace(req.Subject),
		Body:       req.Body,
		Recipients: req.Recipients,
	}

	created, err := h.service.Create(requestCtx(c), tenantID(c), &campaign)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(toCampaignResponse(created))
}

func (h *CampaignHandler) ListCampaigns(c *fiber.Ctx) error {
	campaigns, err := h.service.List(requestCtx(c), tenantID(c))
	if err != nil {
		return toHTTPError(err)
	}

	responses := make([]campaignResponse, 0, len(campaigns))
	for i := range campaigns {
		responses = append(responses, toCampaignResponse(&campaigns[i]))
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": responses})
}

func (h *CampaignHandler) GetCampaign(c *fiber.Ctx) error {
	id, err := requiredParam(c, "id")
	if err != nil {
		return err
	}

	campaign, err := h.service.Get(requestCtx(c), tenantID(c), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(toCampaignResponse(campaign))
}

// SendCampaign queues the campaign; delivery happens in the workers.
func (h *CampaignHandler) SendCampaign(c *fiber.Ctx) error {
	id, err := requiredParam(c, "id")
	if err != nil {
		return err
	}

	campaign, err := h.service.Send(requestCtx(c), tenantID(c), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusAccepted).JSON(toCampaignResponse(campaign))
}

func toCampaignResponse(c *domain.Campaign) campaignResponse {
	if c == nil {
		return campaignResponse{}
	}

	return campaignResponse{
		ID:             c.ID,
		IdentityID:     c.IdentityID,
		Name:           c.Name,
		Subject:        c.Subject,
		Status:         c.Status.String(),
		RecipientCount: len(c.Recipients),
		SentCount:      c.SentCount,
		DeliveredCount: c.DeliveredCount,
		BounceCount:    c.BounceCount,
		SpamCount:      c.SpamCount,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}
