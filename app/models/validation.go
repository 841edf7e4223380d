package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ManuelReschke/MemberPortal/internal/pkg/sms"
)

// FieldError describes a single invalid input field in an API response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report json names so field errors match the request body
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return sms.ValidPhoneNumber(fl.Field().String())
	})
	_ = v.RegisterValidation("event_status", func(fl validator.FieldLevel) bool {
		return ValidEventStatus(fl.Field().String())
	})

	return v
}

// ValidateStruct validates s and returns the list of invalid fields, or nil.
func ValidateStruct(s interface{}) []FieldError {
	return ValidationErrors(validate.Struct(s))
}

// ValidationErrors converts a validator error into field errors.
// Returns nil when err is nil or not a validation error.
func ValidationErrors(err error) []FieldError {
	var verrs validator.ValidationErrors
	if err == nil || !errors.As(err, &verrs) {
		return nil
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "phone":
		return "must be a valid mobile phone number"
	case "event_status":
		return "must be one of: open, closed, cancelled, completed"
	}
	return "is invalid"
}
