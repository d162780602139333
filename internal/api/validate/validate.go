// Package validate checks decoded request bodies before they reach the
// services.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/go-playground/validator/v10"

	"github.com/stine-ri/wings-of-memory/internal/model"
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = val.RegisterValidation("mail", func(fl validator.FieldLevel) bool {
		return strfmt.IsEmail(fl.Field().String())
	})
	_ = val.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return model.ValidPhone(fl.Field().String())
	})
	_ = val.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return val
}

// Struct validates s against its `validate` tags and reports the first
// failure as a model.ValidationError named after the JSON field.
func Struct(s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var fes validator.ValidationErrors
	if !errors.As(err, &fes) || len(fes) == 0 {
		return model.NewValidationError("body", err.Error())
	}
	fe := fes[0]
	return model.NewValidationError(fe.Field(), message(fe))
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "mail":
		return "is not a valid email address"
	case "phone":
		return "is not a valid phone number"
	case "max":
		return fmt.Sprintf("exceeds %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s", fe.Tag())
	}
}

// Email checks a single address the way the `mail` tag does.
func Email(addr string) error {
	if addr == "" {
		return model.NewValidationError("email", "is required")
	}
	if len(addr) > 320 || !strfmt.IsEmail(addr) {
		return model.NewValidationError("email", "is not a valid email address")
	}
	return nil
}

// Identifier rejects path identifiers that cannot be a slug or an ID.
func Identifier(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return model.NewValidationError(field, "is required")
	}
	if len(id) > 128 {
		return model.NewValidationError(field, "exceeds 128 characters")
	}
	return nil
}
