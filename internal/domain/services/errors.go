package services

import (
	"errors"
	"fmt"
)

var (
	// ErrForbidden черновик принадлежит другому пользователю
	ErrForbidden = errors.New("forbidden")

	ErrUnknownResource = errors.New("unknown content resource")
	ErrUnknownRoute    = errors.New("route is not available for the role")
	ErrReservedField   = errors.New(`field "sections" is reserved`)
)

// RequiredFieldError не заполнено обязательное поле верхнего уровня
type RequiredFieldError struct {
	Field string
}

func (e *RequiredFieldError) Error() string {
	return fmt.Sprintf("field %q is required", e.Field)
}
