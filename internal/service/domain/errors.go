package domain

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/qs-lzh/hotel-management/internal/service"
)

// translate maps a store error to the service taxonomy. notFound is returned
// for gorm.ErrRecordNotFound; errors that already carry a kind pass through.
func translate(err error, notFound error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) && notFound != nil {
		return notFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", op, service.ErrConflict)
	}
	if errors.Is(err, service.ErrInternal) || service.Kind(err) != service.ErrInternal {
		return err
	}
	return service.Internal(op, err)
}
