package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/DeeipChheda/warmup-master-main/internal/domain"
	"github.com/DeeipChheda/warmup-master-main/internal/observability"
)

// HeaderTenantID scopes identity, campaign and health routes to one tenant.
const HeaderTenantID = "X-Tenant-ID"

// RequestContext copies the request id into the user context so services
// and queued messages carry the same correlation id.
func RequestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		if id := requestCorrelationID(c); id != "" {
			ctx = observability.WithCorrelationID(ctx, id)
		}
		if tenantID := strings.TrimSpace(c.Get(HeaderTenantID)); tenantID != "" {
			ctx = observability.WithTenantID(ctx, tenantID)
		}
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func requestCorrelationID(c *fiber.Ctx) string {
	if value := strings.TrimSpace(c.Get(fiber.HeaderXRequestID)); value != "" {
		return value
	}
	if value, ok := c.Locals("requestid").(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

const tenantLocal = "tenantId"

// requireTenant rejects tenant-scoped requests without the tenant header.
func requireTenant(c *fiber.Ctx) error {
	tenantID := strings.TrimSpace(c.Get(HeaderTenantID))
	if tenantID == "" {
		return fiber.NewError(fiber.StatusUnauthorized, HeaderTenantID+" header is required")
	}
	c.Locals(tenantLocal, tenantID)
	return c.Next()
}

func tenantID(c *fiber.Ctx) string {
	id, _ := c.Locals(tenantLocal).(string)
	return id
}

func requestCtx(c *fiber.Ctx) context.Context {
	if ctx := c.UserContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return nil
}

func requiredParam(c *fiber.Ctx, name string) (string, error) {
	value := strings.TrimSpace(c.Params(name))
	if value == "" {
		return "", toHTTPError(fmt.Errorf("%w: %s is required", domain.ErrValidation, name))
	}
	return value, nil
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrQuotaExceeded), errors.Is(err, domain.ErrModeNotEntitled):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrIdentityPaused):
		return fiber.NewError(fiber.StatusLocked, err.Error())
	case errors.Is(err, domain.ErrDailyLimitExceeded):
		return fiber.NewError(fiber.StatusTooManyRequests, err.Error())
	default:
		return err
	}
}
