package service

import (
	"errors"
	"fmt"

	"github.com/flicky/printmarket/internal/validation"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotOwner   = errors.New("not the owner of this resource")
	ErrConflict   = errors.New("resource was modified by another request")
)

func validationError(err error) error {
	return fmt.Errorf("%w: %s", ErrValidation, validation.Message(err))
}

func validate(req any) error {
	if err := validation.Struct(req); err != nil {
		return validationError(err)
	}
	return nil
}
