package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("record not found")
	ErrConflict   = errors.New("conflict")
	ErrMalformed  = errors.New("malformed record")

	ErrQuotaExceeded      = errors.New("identity quota exceeded")
	ErrModeNotEntitled    = errors.New("mode not entitled")
	ErrIdentityPaused     = errors.New("identity paused")
	ErrDailyLimitExceeded = errors.New("daily limit exceeded")
)

// QuotaExceededError is returned when a tenant already owns its plan's
// maximum number of identities.
type QuotaExceededError struct {
	Owned int
	Limit int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s: %d of %d identities in use", ErrQuotaExceeded, e.Owned, e.Limit)
}

func (e *QuotaExceededError) Unwrap() error { return ErrQuotaExceeded }

// ModeNotEntitledError is returned when a mode is outside the tenant's plan.
type ModeNotEntitledError struct {
	Mode    Mode
	Allowed []Mode
}

func (e *ModeNotEntitledError) Error() string {
	allowed := make([]string, 0, len(e.Allowed))
	for _, m := range e.Allowed {
		allowed = append(allowed, m.String())
	}
	return fmt.Sprintf("%s: %q not in [%s]", ErrModeNotEntitled, e.Mode, strings.Join(allowed, ", "))
}

func (e *ModeNotEntitledError) Unwrap() error { return ErrModeNotEntitled }

// IdentityPausedError carries the reason an identity was paused.
type IdentityPausedError struct {
	IdentityID string
	Reason     string
}

func (e *IdentityPausedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrIdentityPaused, e.Reason)
}

func (e *IdentityPausedError) Unwrap() error { return ErrIdentityPaused }

// DailyLimitExceededError reports how much of today's quota is left.
type DailyLimitExceededError struct {
	IdentityID string
	Requested  int
	Remaining  int
	DailyLimit int
}

func (e *DailyLimitExceededError) Error() string {
	return fmt.Sprintf("%s: requested %d, remaining %d of %d",
		ErrDailyLimitExceeded, e.Requested, e.Remaining, e.DailyLimit)
}

func (e *DailyLimitExceededError) Unwrap() error { return ErrDailyLimitExceeded }
