package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/DeeipChheda/warmup-master-main/internal/domain"
)

const defaultWebhookTimeout = 10 * time.Second

type webhookRequest struct {
	IdentityID string `json:"identityId"`
	CampaignID string `json:"campaignId,omitempty"`
	From       string `json:"from"`
	To         string `json:"to"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
}

type webhookResponse struct {
	Outcome string `json:"outcome"`
}

var _ Sender = (*WebhookSender)(nil)

// WebhookSender hands messages to an HTTP delivery gateway. The gateway
// answers with the outcome; an empty answer counts as delivered.
type WebhookSender struct {
	client   *resty.Client
	endpoint string
}

func NewWebhookSender(endpoint string) (*WebhookSender, error) {
	client := resty.New()
	client.SetTimeout(defaultWebhookTimeout)
	client.SetRetryCount(0)

	return NewWebhookSenderWithClient(endpoint, client)
}

func NewWebhookSenderWithClient(endpoint string, client *resty.Client) (*WebhookSender, error) {
	trimmedEndpoint := strings.TrimSpace(endpoint)
	if trimmedEndpoint == "" {
		return nil, fmt.Errorf("webhook endpoint is required")
	}
	if _, err := url.ParseRequestURI(trimmedEndpoint); err != nil {
		return nil, fmt.Errorf("invalid webhook endpoint: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultWebhookTimeout)
	}
	client.SetRetryCount(0)

	return &WebhookSender{
		client:   client,
		endpoint: trimmedEndpoint,
	}, nil
}

func (p *WebhookSender) Send(ctx context.Context, msg Message) (domain.Outcome, error) {
	if p == nil || p.client == nil {
		return "", fmt.Errorf("sender is not initialized")
	}
	if err := msg.Validate(); err != nil {
		return "", fmt.Errorf("invalid message: %w", err)
	}

	var result webhookResponse
	response, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(webhookRequest{
			IdentityID: msg.IdentityID,
			CampaignID: msg.CampaignID,
			From:       msg.From,
			To:         msg.To,
			Subject:    msg.Subject,
			Body:       msg.Body,
		}).
		SetResult(&result).
		Post(p.endpoint)
	if err != nil {
		return "", &ProviderError{
			Sender:    SenderWebhook,
			Message:   "request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}
	if response == nil {
		return "", &ProviderError{
			Sender:    SenderWebhook,
			Message:   "empty response",
			Transient: true,
		}
	}

	statusCode := response.StatusCode()
	if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
		return "", webhookStatusError(statusCode, strings.TrimSpace(response.String()))
	}

	if strings.TrimSpace(result.Outcome) == "" {
		return domain.OutcomeDelivered, nil
	}
	outcome, err := domain.ParseOutcomeFromString(result.Outcome)
	if err != nil {
		return "", &ProviderError{
			Sender:     SenderWebhook,
			StatusCode: statusCode,
			Message:    "unknown outcome",
			Cause:      err,
		}
	}
	return outcome, nil
}
