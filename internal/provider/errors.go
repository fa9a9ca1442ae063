package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/DeeipChheda/warmup-master-main/internal/domain"
)

const (
	SenderSES     = "ses"
	SenderWebhook = "webhook"
)

// ProviderError is a send that produced no outcome. Transient failures are
// retried by the dispatcher; anything else leaves the recipient unresolved.
type ProviderError struct {
	Sender     string
	StatusCode int
	Message    string
	Transient  bool
	Cause      error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "<nil>"
	}

	prefix := "sender error"
	if e.Sender != "" {
		prefix = e.Sender + " sender error"
	}
	parts := []string{prefix}
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// IsTransient reports whether a failed send is worth retrying. Cancellation
// never is; a deadline or network timeout always is.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Transient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// webhookStatusError maps a non-2xx webhook reply. Throttling and server
// errors are retried; other client errors are final.
func webhookStatusError(statusCode int, body string) *ProviderError {
	msg := fmt.Sprintf("webhook returned status %d", statusCode)
	if body != "" {
		msg = fmt.Sprintf("%s: %s", msg, body)
	}
	return &ProviderError{
		Sender:     SenderWebhook,
		StatusCode: statusCode,
		Message:    msg,
		Transient:  statusCode == http.StatusTooManyRequests || statusCode >= http.StatusInternalServerError,
	}
}

// classifySESError turns an SES failure into a send result. A rejected
// message is a bounce for the recipient, not a sender failure. Account level
// refusals are final since retrying cannot succeed until an operator acts.
func classifySESError(err error) (domain.Outcome, error) {
	var rejected *types.MessageRejected
	if errors.As(err, &rejected) {
		return domain.OutcomeBounced, nil
	}
	if errors.Is(err, context.Canceled) {
		return "", err
	}

	var (
		suspended *types.AccountSuspendedException
		paused    *types.SendingPausedException
		notFound  *types.NotFoundException
		badInput  *types.BadRequestException
	)
	switch {
	case errors.As(err, &suspended), errors.As(err, &paused):
		return "", &ProviderError{Sender: SenderSES, Message: "sending disabled for account", Cause: err}
	case errors.As(err, &notFound), errors.As(err, &badInput):
		return "", &ProviderError{Sender: SenderSES, Message: "request refused", Cause: err}
	default:
		return "", &ProviderError{Sender: SenderSES, Message: "request failed", Transient: true, Cause: err}
	}
}
