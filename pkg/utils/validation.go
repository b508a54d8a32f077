package utils

import (
	"errors"
	"fmt"
	"strings"

	apperrors "chatapi/pkg/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 5

// ValidateStruct validates a struct based on its validation tags. Failures
// are InvalidInput errors.
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return apperrors.NewInvalidInputError(formatValidationError(err).Error())
	}
	return nil
}

// ValidateEmail checks the address format.
func ValidateEmail(email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return apperrors.NewInvalidInputError("email must be a valid email")
	}
	return nil
}

// ValidatePassword enforces the minimum password length.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return apperrors.NewInvalidInputError(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	return nil
}

func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		msgs := make([]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			msgs = append(msgs, formatFieldError(e))
		}
		return errors.New(strings.Join(msgs, "; "))
	}
	return err
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Field())

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "dive":
		return fmt.Sprintf("%s contains invalid values", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
