// Package validator wraps the go-playground/validator library behind a
// single Validate function with standardized error formatting. Struct fields
// are validated through `validate:"..."` tags.
package validator

import (
	"errors"
	"fmt"

	gvalidator "github.com/go-playground/validator/v10"
)

// ErrValidationFailed is the root of the multi-error chain returned when a
// struct fails validation, allowing callers to detect validation failures
// with errors.Is regardless of how many fields were rejected.
var ErrValidationFailed = errors.New("struct validation failed")

var validate *gvalidator.Validate

func init() {
	validate = gvalidator.New(gvalidator.WithRequiredStructEnabled())
}

// formatError turns raw validator errors into a joined error chain rooted at
// ErrValidationFailed, with one formatted message per failing field. Errors
// that are not validation errors pass through unchanged.
func formatError(err error) error {
	var validationErrors gvalidator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	errs := []error{ErrValidationFailed}
	for _, fieldErr := range validationErrors {
		errs = append(errs, fmt.Errorf("'%s': value '%v' does not satisfy the '%s' rule",
			fieldErr.Field(),
			fieldErr.Value(),
			fieldErr.Tag(),
		))
	}

	return errors.Join(errs...)
}

// Validate checks the given struct against its validation tags. It returns
// nil when every field passes, or an error chain including
// ErrValidationFailed otherwise.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return formatError(err)
	}

	return nil
}
