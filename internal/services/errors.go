package services

import (
	"errors"

	"sabohub/internal/apperr"
)

func isNotFound(err error) bool {
	return errors.Is(err, apperr.ErrNotFound)
}
