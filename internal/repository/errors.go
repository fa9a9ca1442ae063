package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/DeeipChheda/warmup-master-main/internal/domain"
)

// translateError maps driver errors onto domain sentinels.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case isUniqueViolationError(err):
		return domain.ErrConflict
	default:
		return err
	}
}

func isUniqueViolationError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
