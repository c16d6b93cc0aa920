package usecase

import (
	"errors"
	"fmt"

	"shop_service/internal/domain"
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), domain.ErrInvalidArgument)
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
