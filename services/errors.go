package services

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Common errors
var (
	ErrPromptNotFound  = errors.New("prompt not found")
	ErrVersionNotFound = errors.New("version not found")
	ErrNoteNotFound    = errors.New("note not found")
	ErrTagNotFound     = errors.New("tag not found")
	ErrGroupNotFound   = errors.New("group not found")
	ErrValidation      = errors.New("validation error")
	ErrVersionLimit    = errors.New("version limit reached")
	ErrLastVersion     = errors.New("cannot delete the only version")
	ErrStorage         = errors.New("storage failure")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// ValidationError carries the field that failed. Matches ErrValidation under
// errors.Is so callers can branch on the category.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// isModelValidation reports whether err came out of a model's Validate.
func isModelValidation(err error) bool {
	var verrs validation.Errors
	return errors.As(err, &verrs)
}
