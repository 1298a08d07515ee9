package service

import (
	"errors"

	"alterstory-server/shared/models"
	"alterstory-server/shared/utils"
)

// isDomainError сообщает, что ошибка уже описывает бизнес-ситуацию и отдается клиенту как есть.
func isDomainError(err error) bool {
	var validationErr *models.ValidationError
	switch {
	case errors.As(err, &validationErr),
		errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrUnauthorized),
		errors.Is(err, models.ErrForbidden),
		errors.Is(err, models.ErrAlreadyContributed),
		errors.Is(err, models.ErrCapacityExceeded),
		errors.Is(err, models.ErrUsernameTaken),
		errors.Is(err, models.ErrBadRequest),
		errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, utils.ErrInvalidCursor):
		return true
	}
	return false
}

// storageFailure скрывает детали хранилища за models.ErrStorage.
// Доменные ошибки возвращаются без изменений.
func storageFailure(err error) error {
	if err == nil || isDomainError(err) || errors.Is(err, models.ErrStorage) {
		return err
	}
	return models.ErrStorage
}
