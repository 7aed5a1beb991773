package service

import (
	"errors"
	"fmt"

	"github.com/RoGogDBD/closet/internal/repository"
)

// Виды ошибок сервиса. Проверяются через errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error описывает ошибку сервиса с сообщением для клиента.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// translate переводит ошибки хранилища в ошибки сервиса.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return newError(ErrNotFound, "%s not found", what)
	case errors.Is(err, repository.ErrDuplicate):
		return newError(ErrConflict, "%s already exists", what)
	case errors.Is(err, repository.ErrInvalidOrder):
		return newError(ErrValidation, "%v", err)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}
