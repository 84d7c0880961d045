package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/vaultsandbox/passvault-go/internal/pqc"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("pqcsuite", func(fl validator.FieldLevel) bool {
		_, err := pqc.Init(fl.Field().String())
		return err == nil
	})
}

// Validate checks every field against its constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	if c.KDFParams().Validate() != nil {
		return fmt.Errorf("%w: kdf: memory_kib must be at least 8 per thread", ErrInvalidConfig)
	}
	return nil
}

// formatValidationError reports the first failing field.
func formatValidationError(err error) error {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	for _, e := range validationErrs {
		switch e.Tag() {
		case "min":
			return fmt.Errorf("%w: %s must be at least %s", ErrInvalidConfig, e.Namespace(), e.Param())
		case "max":
			return fmt.Errorf("%w: %s must be at most %s", ErrInvalidConfig, e.Namespace(), e.Param())
		case "oneof":
			return fmt.Errorf("%w: %s must be one of [%s], got %q", ErrInvalidConfig, e.Namespace(), e.Param(), e.Value())
		case "pqcsuite":
			return fmt.Errorf("%w: %s: unsupported suite %q, want one of %v", ErrInvalidConfig, e.Namespace(), e.Value(), pqc.Names())
		default:
			return fmt.Errorf("%w: %s failed %s", ErrInvalidConfig, e.Namespace(), e.Tag())
		}
	}
	return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
}
