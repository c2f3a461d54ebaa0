package materials

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("material not found")
	ErrDuplicateCode = errors.New("this material code already exists in the system, please use a new code")
	ErrInvalidInput  = errors.New("invalid input")
	ErrEmptyValue    = errors.New("value is required")
)

// ParseError поле формы, которое не удалось разобрать.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is любая ParseError считается ErrInvalidInput.
func (e *ParseError) Is(target error) bool {
	return target == ErrInvalidInput
}
