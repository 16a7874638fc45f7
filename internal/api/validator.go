package api

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/fekuna/catalog-service/internal/apperr"
)

var skuPattern = regexp.MustCompile(`^[a-zA-Z0-9\-_]+$`)

// RequestValidator adapts go-playground/validator to echo's Validator
// interface, translating tag failures into the field-level error taxonomy.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("sku", func(fl validator.FieldLevel) bool {
		return skuPattern.MatchString(fl.Field().String())
	})
	return &RequestValidator{validate: v}
}

func (v *RequestValidator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperr.Internal(err)
	}

	fields := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperr.FieldError{
			Field:   fe.Field(),
			Message: validationMessage(fe),
		})
	}
	return apperr.ValidationFields(fields)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s cannot exceed %s characters", fe.Field(), fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	case "sku":
		return fmt.Sprintf("%s can only contain letters, numbers, hyphens and underscores", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
