// Package apperr задаёт категории ошибок бизнес-логики.
// Конкретные ошибки оборачивают категорию через %w, поэтому errors.Is
// срабатывает и для категории, и для конкретной причины.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation — некорректные входные данные, отклоняются до обращения к хранилищу.
	ErrValidation = errors.New("validation error")
	// ErrForbidden — операция запрещена для инициатора.
	ErrForbidden = errors.New("forbidden")
)

// Validation создаёт ошибку категории ErrValidation.
func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// Forbidden создаёт ошибку категории ErrForbidden.
func Forbidden(msg string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, msg)
}
