package domain

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

// ErrNotFound - сущность/событие/перемещение с таким id не найдено.
var ErrNotFound = errors.New("not found")

// ValidationError - некорректный запрос (пустой id, координата вне мира, неизвестный enum).
// Возвращается вызывающему сразу, в очередь такие запросы не попадают.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// Invalid is a shorthand constructor for ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotFound wraps ErrNotFound with the kind and id of the missing record.
func NotFound(kind, id string) error {
	return oops.
		Code("not_found").
		With("kind", kind, "id", id).
		Wrapf(ErrNotFound, "%s %s", kind, id)
}

// IsNotFound reports whether err is (or wraps) ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
